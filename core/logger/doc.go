// Package logger provides structured logging utilities built on Go's standard slog package.
//
// New builds a *slog.Logger from functional options; the attribute helpers give
// every component the same keys for the same facts.
//
// # Basic Usage
//
//	log := logger.New(logger.WithDevelopment("rtss"))
//
//	log.Info("relay started",
//		logger.Component("relay"),
//		logger.Count("concurrency", 10),
//	)
//
//	log.Warn("sink rejected payload",
//		logger.Key(42),
//		logger.SubscriptionID(id),
//		logger.Error(err),
//	)
//
// # Environments
//
//	logger.New(logger.WithDevelopment("rtss")) // text, debug
//	logger.New(logger.WithStaging("rtss"))     // JSON, info
//	logger.New(logger.WithProduction("rtss"))  // JSON, info
//
// # Nil Safety
//
// Helpers such as Error and Key return the empty slog.Attr for nil input. slog skips
// empty attributes, so the following is safe whether or not err is nil:
//
//	log.Info("stream ended", logger.Error(err))
//
// # Testing
//
// Capture output by pointing the logger at a buffer:
//
//	var buf bytes.Buffer
//	log := logger.New(logger.WithJSONFormatter(), logger.WithOutput(&buf))
//
// Components in this module default to Nop() when no logger is supplied.
package logger
