// Package events fans characteristic events out to the bridge's side
// channels and routes remote MQTT writes back into characteristics.
//
// The Dispatcher implements accessory.EventSink. It queues events without
// blocking the characteristic call and delivers them to every Sink from a
// single goroutine. Sink failures are logged and never reach the caller.
//
//	dispatcher := events.NewDispatcher(256,
//	    events.NewStateSink(mqttClient),
//	    events.NewHistorySink(influxClient),
//	    events.NewAuditSink(auditRepo),
//	    events.NewBroadcastSink(hub),
//	)
//	go dispatcher.Run(ctx)
package events
