package main

import (
	"github.com/spf13/cobra"

	"deskshell/pkg/mcpserver"

	"pkt.systems/pslog"
)

func newMCPCmd() *cobra.Command {
	var transport string
	var addr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the compositor as MCP tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if transport != "" {
				cfg.MCP.Transport = transport
			}
			if addr != "" {
				cfg.MCP.Addr = addr
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

			srv := mcpserver.New(mcpserver.Config{Manager: rt.wm, Version: moduleVersion(), Logger: logger})
			return srv.Serve(ctx, cfg.MCP.Transport, cfg.MCP.Addr)
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "", "stdio or streamable-http (overrides mcp.transport)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address for streamable-http (overrides mcp.addr)")
	return cmd
}
