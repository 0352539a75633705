package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/travelq/internal/app"
	"github.com/kailas-cloud/travelq/internal/domain/query"
	"github.com/kailas-cloud/travelq/internal/domain/record"
	"github.com/kailas-cloud/travelq/internal/prompt"
)

// searchFlags are shared by the search subcommands.
type searchFlags struct {
	source      string
	destination string
	city        string
	budget      int
	topK        int
	fuzzy       bool
}

func (f *searchFlags) query(cmd *cobra.Command) (query.Query, error) {
	q := query.Query{Source: f.source, Destination: f.destination, City: f.city}
	if cmd.Flags().Changed("budget") {
		if f.budget < 0 {
			return q, fmt.Errorf("--budget must not be negative")
		}
		q.Budget = query.IntPtr(f.budget)
	}
	return q, nil
}

// options resolves fuzzy and top-k against the config defaults.
func (f *searchFlags) options(cmd *cobra.Command, a *app.App) (fuzzy bool, k int) {
	fuzzy = a.Config.Retrieval.FuzzyEnabled()
	if cmd.Flags().Changed("fuzzy") {
		fuzzy = f.fuzzy
	}
	k = a.Config.Retrieval.TopK
	if f.topK > 0 {
		k = f.topK
	}
	return fuzzy, k
}

func newSearchCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the travel datasets directly",
	}
	cmd.AddCommand(
		newSearchBusesCmd(c),
		newSearchFlightsCmd(c),
		newSearchHotelsCmd(c),
		newSearchAttractionsCmd(c),
	)
	return cmd
}

func addCommonFlags(cmd *cobra.Command, f *searchFlags) {
	cmd.Flags().IntVarP(&f.topK, "top-k", "k", 0, "maximum results (default from config)")
	cmd.Flags().BoolVar(&f.fuzzy, "fuzzy", true, "fuzzy city matching (default from config)")
}

func addRouteFlags(cmd *cobra.Command, f *searchFlags) {
	cmd.Flags().StringVar(&f.source, "source", "", "departure city")
	cmd.Flags().StringVar(&f.destination, "destination", "", "arrival city")
	cmd.Flags().IntVar(&f.budget, "budget", 0, "maximum price in rupees")
	addCommonFlags(cmd, f)
}

func newSearchBusesCmd(c *cli) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "buses",
		Short: "List buses by price, then rating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			q, err := f.query(cmd)
			if err != nil {
				return err
			}
			fuzzy, k := f.options(cmd, a)
			buses := a.Retrieval.RetrieveBuses(cmd.Context(), q, fuzzy, k)
			if c.jsonOut {
				return c.ui.JSON(buses)
			}
			if len(buses) == 0 {
				c.ui.Warning("%s", prompt.NoBuses(prompt.OrUnknown(q.Source), prompt.OrUnknown(q.Destination), prompt.Budget(q.Budget)))
				return nil
			}
			c.ui.Table(busHeaders, busRows(buses))
			return nil
		},
	}
	addRouteFlags(cmd, f)
	return cmd
}

func newSearchFlightsCmd(c *cli) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "flights",
		Short: "List flights by price, then travel time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			q, err := f.query(cmd)
			if err != nil {
				return err
			}
			fuzzy, k := f.options(cmd, a)
			flights := a.Retrieval.RetrieveFlights(cmd.Context(), q, fuzzy, k)
			if c.jsonOut {
				return c.ui.JSON(flights)
			}
			if len(flights) == 0 {
				c.ui.Warning("%s", prompt.NoFlights(prompt.OrUnknown(q.Source), prompt.OrUnknown(q.Destination), prompt.Budget(q.Budget)))
				return nil
			}
			c.ui.Table(flightHeaders, flightRows(flights))
			return nil
		},
	}
	addRouteFlags(cmd, f)
	return cmd
}

func newSearchHotelsCmd(c *cli) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "hotels",
		Short: "List hotels by nightly price, then rating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			q, err := f.query(cmd)
			if err != nil {
				return err
			}
			fuzzy, k := f.options(cmd, a)
			hotels, priceCol := a.Retrieval.RetrieveHotels(cmd.Context(), q, fuzzy, k)
			if c.jsonOut {
				return c.ui.JSON(map[string]any{"price_column": priceCol, "items": hotels})
			}
			if len(hotels) == 0 {
				c.ui.Warning("%s", prompt.NoHotels(prompt.OrUnknown(q.City), prompt.Budget(q.Budget)))
				return nil
			}
			c.ui.Table(hotelHeaders, hotelRows(hotels))
			return nil
		},
	}
	cmd.Flags().StringVar(&f.city, "city", "", "hotel city")
	cmd.Flags().IntVar(&f.budget, "budget", 0, "maximum nightly price in rupees")
	addCommonFlags(cmd, f)
	return cmd
}

func newSearchAttractionsCmd(c *cli) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "attractions",
		Short: "Sample attractions in a city",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			q, err := f.query(cmd)
			if err != nil {
				return err
			}
			fuzzy, k := f.options(cmd, a)
			attractions := a.Retrieval.RetrieveAttractions(cmd.Context(), q, fuzzy, k)
			if c.jsonOut {
				return c.ui.JSON(attractions)
			}
			if len(attractions) == 0 {
				c.ui.Warning("%s", prompt.NoAttractions(prompt.OrUnknown(q.City)))
				return nil
			}
			c.ui.Table(attractionHeaders, attractionRows(attractions))
			return nil
		},
	}
	cmd.Flags().StringVar(&f.city, "city", "", "attraction city")
	addCommonFlags(cmd, f)
	return cmd
}

// Table headers.
var (
	busHeaders        = []string{"SOURCE", "DESTINATION", "TYPE", "DEPARTS", "DURATION", "PRICE", "RATING"}
	flightHeaders     = []string{"AIRLINE", "FROM", "TO", "CLASS", "DEPARTS", "DURATION", "PRICE"}
	hotelHeaders      = []string{"CITY", "HOTEL", "PER NIGHT", "RATING"}
	attractionHeaders = []string{"CITY", "ATTRACTION", "CATEGORY", "BEST TIME"}
)

func busRows(buses []record.Bus) [][]string {
	rows := make([][]string, len(buses))
	for i, b := range buses {
		rows[i] = []string{b.Source, b.Destination, b.BusType, b.DepartureTime, b.TravelDuration,
			prompt.FormatCurrency(b.Price), formatRating(b.Rating)}
	}
	return rows
}

func flightRows(flights []record.Flight) [][]string {
	rows := make([][]string, len(flights))
	for i, fl := range flights {
		rows[i] = []string{fl.Airline, fl.From, fl.To, fl.Class, fl.DepTime, fl.TimeTaken, prompt.FormatCurrency(fl.Price)}
	}
	return rows
}

func hotelRows(hotels []record.Hotel) [][]string {
	rows := make([][]string, len(hotels))
	for i, h := range hotels {
		rows[i] = []string{h.City, h.HotelName, prompt.FormatCurrency(h.PricePerNight), formatRating(h.Rating)}
	}
	return rows
}

func attractionRows(attractions []record.Attraction) [][]string {
	rows := make([][]string, len(attractions))
	for i, at := range attractions {
		rows[i] = []string{at.City, at.Name, at.Category, at.BestTime}
	}
	return rows
}

func formatRating(r *float64) string {
	if r == nil {
		return "-"
	}
	return strconv.FormatFloat(*r, 'f', 1, 64)
}
