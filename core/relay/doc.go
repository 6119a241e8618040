// Package relay is the event relay engine: it pulls keyed events from an upstream
// Listener and pushes them to subscriber sinks through a Publisher.
//
// The pieces are small interfaces so backends can be swapped independently:
//
//   - Listener: one-shot, ordered event sequence of a single upstream connection.
//   - Connector: produces fresh listeners and owns the reconnect policy. An error from
//     Connect is permanent.
//   - Publisher: key to sink registry that performs delivery.
//   - Sink: push-only handle to one subscriber transport.
//
// Relay glues them together. Its outer loop connects, runs the ingest pipeline until
// the listener ends and then reconnects immediately. When the connector gives up, Start
// returns an error wrapping ErrFatalExhaustion; it is the only error that leaves the
// package. Everything else (transient connect errors, stream termination, failed
// registrations, dead sinks) is logged and absorbed.
//
// # Dispatch
//
// Publishes run with a fixed concurrency ceiling (DefaultConcurrency). By default the
// ceiling is split into lanes by key hash, which keeps events of one key in upstream
// order. WithUnorderedDispatch switches to a flat pool where same-key events may
// overtake each other.
//
// # Usage
//
//	pub := fanout.New[int32, submission.Update]()
//	r := relay.New[int32, submission.Update](conn, pub, relay.WithLogger(log))
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(r.Run(ctx))
//
//	sink := relay.NewChanSink[submission.Update](16)
//	_ = r.AddSubscriber(ctx, 42, sink)
//	for {
//	    select {
//	    case v := <-sink.C():
//	        // write v to the client
//	    case <-sink.Done():
//	        return
//	    }
//	}
package relay
