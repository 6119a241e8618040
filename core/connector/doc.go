// Package connector implements relay.Connector with a fixed-interval retry policy.
//
// Attempts are spaced at least one cool-down window apart (DefaultWindow, 180s).
// This is plain polling, not exponential backoff. A successful dial returns at once;
// the next Connect call, typically issued when the stream ends, waits out whatever
// remains of the window armed by the previous attempt.
//
//	conn := connector.New[int32, submission.Update](
//	    pg.NewDialer(pg.ListenConfig{URL: cfg.ConnectionURL, Channels: cfg.ListenChannels}, decode),
//	    connector.WithWindow(3*time.Minute),
//	    connector.WithLogger(log),
//	)
//	l, err := conn.Connect(ctx) // err is permanent
package connector
