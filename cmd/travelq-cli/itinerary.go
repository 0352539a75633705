package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/travelq/internal/domain/query"
	"github.com/kailas-cloud/travelq/internal/prompt"
	"github.com/kailas-cloud/travelq/internal/usecase/itinerary"
)

// itineraryResult is the JSON shape of the itinerary command.
type itineraryResult struct {
	itinerary.Bundle
	Plan     string `json:"plan,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
}

func newItineraryCmd(c *cli) *cobra.Command {
	var (
		source, destination string
		budget, days        int
		fuzzy, render       bool
		question            string
	)

	cmd := &cobra.Command{
		Use:   "itinerary",
		Short: "Compose a multi-day trip from the datasets",
		Long: `Itinerary splits the budget between transit and hotels, picks outbound
and return travel, and samples one attraction per day.

With --render the assistant writes a day-by-day plan from the bundle.`,
		Example: `  travelq-cli itinerary --source Delhi --destination Jaipur --days 3 --budget 30000`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}

			q := query.ItineraryQuery{NumDays: days, Source: source, Destination: destination}
			if cmd.Flags().Changed("budget") {
				if budget < 0 {
					return fmt.Errorf("--budget must not be negative")
				}
				q.Budget = query.IntPtr(budget)
			}
			if !cmd.Flags().Changed("fuzzy") {
				fuzzy = a.Config.Retrieval.FuzzyEnabled()
			}

			res := itineraryResult{Bundle: a.Itinerary.Compose(cmd.Context(), q, fuzzy)}
			if render {
				if question == "" {
					question = fmt.Sprintf("Plan a %d-day trip from %s to %s",
						res.Query.NumDays, prompt.OrUnknown(source), prompt.OrUnknown(destination))
				}
				sp := c.ui.Spinner("Planning...")
				res.Plan, res.Degraded, err = a.Assistant.RenderItinerary(cmd.Context(), res.Bundle, question)
				sp.Stop()
				if err != nil {
					return err
				}
			}

			if c.jsonOut {
				return c.ui.JSON(res)
			}
			printBundle(c.ui, res.Bundle)
			if render {
				c.ui.Section("Plan")
				if res.Degraded {
					c.ui.Warning("completion provider unavailable")
				}
				c.ui.Text(res.Plan)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "departure city")
	cmd.Flags().StringVar(&destination, "destination", "", "destination city")
	cmd.Flags().IntVar(&budget, "budget", 0, fmt.Sprintf("total budget in rupees (default %d)", query.DefaultItineraryTotal))
	cmd.Flags().IntVar(&days, "days", query.DefaultNumDays, "number of days")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", true, "fuzzy city matching (default from config)")
	cmd.Flags().BoolVar(&render, "render", false, "ask the assistant to write the plan")
	cmd.Flags().StringVar(&question, "question", "", "question passed to the assistant with --render")
	return cmd
}

func printBundle(ui *UI, b itinerary.Bundle) {
	ui.Section("Budget")
	ui.KeyValue("total", prompt.FormatCurrency(b.Total))
	ui.KeyValue("transit", prompt.FormatCurrency(b.TransitBudget))
	ui.KeyValue("hotels", prompt.FormatCurrency(b.HotelBudget))

	ui.Section("Outbound")
	printTable(ui, busHeaders, busRows(b.Buses), prompt.NoBusesFound)
	printTable(ui, flightHeaders, flightRows(b.Flights), prompt.NoFlightsFound)

	ui.Section("Hotels")
	printTable(ui, hotelHeaders, hotelRows(b.Hotels), prompt.NoHotelsFound)

	ui.Section("Days")
	if len(b.Attractions) == 0 {
		ui.Text(prompt.NoAttractionsFound)
	}
	for i, at := range b.Attractions {
		ui.KeyValue(fmt.Sprintf("day %d", i+1), fmt.Sprintf("%s (%s)", at.Name, at.Category))
	}

	ui.Section("Return")
	printTable(ui, busHeaders, busRows(b.ReturnBuses), prompt.NoReturnBusesFound)
	printTable(ui, flightHeaders, flightRows(b.ReturnFlights), prompt.NoReturnFlightsFound)
}

func printTable(ui *UI, headers []string, rows [][]string, empty string) {
	if len(rows) == 0 {
		ui.Text(empty)
		return
	}
	ui.Table(headers, rows)
}
