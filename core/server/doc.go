// Package server wraps http.Server with graceful shutdown and an errgroup
// friendly Run.
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	g.Go(srv.Run(ctx, handler))
//
// The default write timeout is zero because subscribers keep their response
// open. Stop cancels every request context before calling Shutdown so that
// open streams end promptly.
package server
