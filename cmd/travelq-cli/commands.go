package main

import (
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/travelq/internal/domain"
	"github.com/kailas-cloud/travelq/internal/heuristic"
	"github.com/kailas-cloud/travelq/internal/version"
)

func newAskCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Ask the assistant a travel question",
		Example: `  travelq-cli ask "buses from Delhi to Jaipur under 1500"
  travelq-cli ask --offline "hotels in Goa under 3000"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}

			sp := c.ui.Spinner("Thinking...")
			reply, err := a.Assistant.Respond(cmd.Context(), strings.Join(args, " "))
			sp.Stop()
			if err != nil {
				return err
			}

			if c.jsonOut {
				return c.ui.JSON(reply)
			}
			if reply.Degraded {
				c.ui.Warning("completion provider unavailable")
			}
			c.ui.Info("intent: %s, sentiment: %s", reply.Intent, reply.Sentiment)
			c.ui.Text(reply.Text)
			return nil
		},
	}
}

// intentResult is the JSON shape of the intent command.
type intentResult struct {
	Message   string           `json:"message"`
	Intent    domain.Intent    `json:"intent"`
	Sentiment domain.Sentiment `json:"sentiment"`
}

func newIntentCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "intent <message>",
		Short: "Detect intent and sentiment with the offline heuristics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			msg := heuristic.NormalizeMessage(strings.Join(args, " "))
			res := intentResult{
				Message:   msg,
				Intent:    heuristic.DetectIntent(msg),
				Sentiment: heuristic.AnalyzeSentiment(msg),
			}
			if c.jsonOut {
				return c.ui.JSON(res)
			}
			c.ui.KeyValue("intent", res.Intent)
			c.ui.KeyValue("sentiment", res.Sentiment)
			return nil
		},
	}
}

func newExtractCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <intent> <message>",
		Short: "Extract structured search parameters from a message",
		Long: `Extract runs only the parameter extraction step.

Intent is one of: bus, flight, hotel, attractions, itinerary.
Output is always JSON.`,
		Example: `  travelq-cli extract flight "flights from Hyderabad to Mumbai under 9000"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			intent, err := domain.ParseIntent(strings.ToLower(args[0]))
			if err != nil {
				return err
			}
			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}

			sp := c.ui.Spinner("Extracting...")
			q, err := a.Assistant.Extract(cmd.Context(), intent, strings.Join(args[1:], " "))
			sp.Stop()
			if err != nil {
				return err
			}

			c.ui.jsonMode = true
			return c.ui.JSON(q)
		},
	}
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(_ *cobra.Command, _ []string) error {
			info := version.Get()
			if c.jsonOut {
				return c.ui.JSON(struct {
					version.Info
					Go string `json:"go"`
				}{info, runtime.Version()})
			}
			c.ui.Text("travelq-cli " + info.String())
			return nil
		},
	}
}
