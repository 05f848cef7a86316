package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"deskshell/pkg/mcpserver"
	"deskshell/pkg/server"

	"pkt.systems/pslog"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string
	var withMCP bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the compositor HTTP API and event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			ctx := cmd.Context()
			logger := pslog.Ctx(ctx)
			rt, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := rt.Close(); err != nil {
					logger.Warn("runtime close failed", "err", err)
				}
			}()

			var srv *server.Server
			api := server.NewAPI(server.APIConfig{Manager: rt.wm, Screen: rt.screen, Events: rt.bus, Logger: logger})
			srv = server.New(server.Config{
				Addr:    cfg.HTTP.Addr,
				Handler: server.NewHandler(api, func() bool { return srv.Ready() }, logger),
				// The event stream clears its own write deadline.
				WriteTimeout: 30 * time.Second,
				Logger:       logger,
			})
			if cfg.HTTP.TLSCert != "" {
				if err := srv.EnableTLS(cfg.HTTP.TLSCert, cfg.HTTP.TLSKey); err != nil {
					return err
				}
			}

			errCh := make(chan error, 2)
			go func() { errCh <- srv.ListenAndServe() }()
			if withMCP {
				mcp := mcpserver.New(mcpserver.Config{Manager: rt.wm, Version: moduleVersion(), Logger: logger})
				go func() { errCh <- mcp.Serve(ctx, mcpserver.TransportStreamableHTTP, cfg.MCP.Addr) }()
			}

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil {
					return err
				}
			}
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides http.addr)")
	cmd.Flags().BoolVar(&withMCP, "mcp", false, "also serve MCP over streamable-http on mcp.addr")
	return cmd
}
