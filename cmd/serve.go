package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/warehouse-sim/server"
)

const shutdownTimeout = 10 * time.Second

// serveCmd accepts run requests over HTTP until interrupted
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulation over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, listenAddr)
	},
}

func serve(ctx context.Context, addr string) error {
	gin.SetMode(gin.ReleaseMode)
	m := server.NewMetrics()
	reg := server.NewRegistry(server.WithMetrics(m))
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(reg, m),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	reg.Close()
	return nil
}
