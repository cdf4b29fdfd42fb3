// Package api provides the bridge's HTTP diagnostic API and WebSocket
// event stream.
//
// It lists the published accessories, reads and writes characteristics
// live against the item registry, pages through the audit trail and
// streams every characteristic change to WebSocket subscribers on the
// "characteristic.changed" channel.
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
