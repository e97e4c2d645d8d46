// File: cmd/serve.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/ghost/internal/observability"
)

const shutdownGrace = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var address string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream engine state over WebSocket and accept instructions from viewers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				a.cfg.SetStreamAddress(address)
			}
			return a.serve(cmd.Context(), cmd)
		},
	}
	serveCmd.Flags().StringVar(&address, "address", "", "listen address (overrides stream.address)")
	return serveCmd
}

func (a *app) serve(ctx context.Context, cmd *cobra.Command) error {
	logger := observability.GetLogger()
	c, err := a.build(ctx, true)
	if err != nil {
		return err
	}
	defer c.Shutdown()

	streamCfg := a.cfg.Stream()
	mux := http.NewServeMux()
	mux.Handle(streamCfg.Path, c.Hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok queue=%d viewers=%d\n", c.Store.QueueLen(), c.Hub.Clients())
	})

	ln, err := net.Listen("tcp", streamCfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", streamCfg.Address, err)
	}
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Start(gctx) })
	g.Go(func() error {
		logger.Info("Serving presentation stream.", zap.String("address", ln.Addr().String()), zap.String("path", streamCfg.Path))
		fmt.Fprintf(cmd.OutOrStdout(), "listening on ws://%s%s\n", ln.Addr(), streamCfg.Path)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
