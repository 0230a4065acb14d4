// Package finder embeds the lost-and-found matcher in a Go program, backed by
// Valkey or Redis with the JSON module.
//
// The service binary owns image input and the event consumer. The SDK covers the
// text path: register alerts, report found items and, when no consumer is
// running, match a stored item synchronously.
//
//	client, _ := finder.New(ctx,
//	    finder.WithValkey("localhost:6379", ""),
//	    finder.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	_, _ = client.RegisterAlert(ctx, finder.AlertInput{
//	    Email:       "owner@example.com",
//	    Description: "black leather wallet",
//	})
//	item, _ := client.ReportFound(ctx, finder.FoundInput{Description: "wallet found on bus 12"})
//	out, _ := client.Match(ctx, item.ID)
package finder
