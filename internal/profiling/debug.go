package profiling

import (
	"context"
	"errors"
	"expvar"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

// DebugServer exposes /debug/vars and /debug/pprof/ on a listener.
type DebugServer struct {
	srv *http.Server
	ln  net.Listener
}

// ListenDebug binds addr ("localhost:6060", ":0") and returns an unstarted
// server.
func ListenDebug(addr string) (*DebugServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return &DebugServer{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}, nil
}

// Addr is the bound address.
func (d *DebugServer) Addr() string { return d.ln.Addr().String() }

// Serve blocks until ctx is done, then shuts the server down.
func (d *DebugServer) Serve(ctx context.Context, logger devinfo.Logger) error {
	logger = devinfo.OrNop(logger)
	errCh := make(chan error, 1)
	go func() { errCh <- d.srv.Serve(d.ln) }()
	logger.Info("debug server listening", "addr", d.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := d.srv.Shutdown(shutdownCtx)
	if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return err
}
