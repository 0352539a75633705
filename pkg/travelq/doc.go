// Package travelq embeds the travel assistant in a Go program: intent routing,
// parameter extraction and ranked retrieval over the bus, flight, hotel and
// attraction datasets, plus itinerary composition.
//
// Without a Completer the client runs fully offline on keyword heuristics.
//
//	client, _ := travelq.New(ctx, travelq.WithDatasets("data"))
//	defer client.Close()
//
//	reply, _ := client.Ask(ctx, "buses from Delhi to Jaipur under 1500")
//	fmt.Println(reply.Text)
//
//	buses := client.Buses(ctx, travelq.Query{Source: "Delhi", Destination: "Jaipur"})
//	trip, _ := client.Itinerary(ctx, travelq.ItineraryQuery{Source: "Delhi", Destination: "Jaipur", NumDays: 3})
//	plan, _, _ := client.Plan(ctx, trip, "")
//
// Plug in any model through Completer, and share completion cache and budget
// counters between processes with WithRedis.
package travelq
