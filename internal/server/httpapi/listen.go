package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Serve listens on addr and serves h until ctx is done, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, log logging.Logger) error {
	listen, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serveListener(ctx, listen, h, log)
}

func serveListener(ctx context.Context, listen net.Listener, h http.Handler, log logging.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info(ctx, "stopping http server", "address", listen.Addr().String())
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error(ctx, "http shutdown", "error", err)
		}
	}()

	log.Info(ctx, "starting http server", "address", listen.Addr().String())
	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
