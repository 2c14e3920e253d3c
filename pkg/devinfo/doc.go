// Package devinfo holds the public pieces shared by every go-devinfo
// command: the Logger interface with its slog and zap adapters, and the
// expvar-backed Metrics collector.
//
// Logging:
//
//	logger := devinfo.NewSlogAdapter(slog.Default())
//	logger.Info("dashboard started", "interval", time.Second)
//
// Production logging through zap:
//
//	zl, _ := zap.NewProduction()
//	logger := devinfo.NewZapAdapter(zl)
//
// Metrics are exposed at /debug/vars once RegisterExpvar has been called
// and an HTTP server is listening (see the --debug-addr flag).
package devinfo
