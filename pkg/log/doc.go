// Package log provides the logging abstraction used by framecast components.
//
// The Logger interface is implemented by a zerolog adapter for production
// use and by a no-op logger for tests:
//
//	logger, err := log.NewZerologAdapter(log.Options{Level: "debug", Format: "console"})
//	cycleLog := logger.With(log.String("cycle_id", id))
//
// Field helpers (String, Int, Seq, Duration, Err, ...) keep call sites free
// of the underlying library.
package log
