package main

import (
	"encoding/json"
	"errors"
	"net"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"deskshell/pkg/server"
	"deskshell/pkg/websocket"
	"deskshell/pkg/wm"

	"pkt.systems/pslog"
)

// watchURL turns a listen address such as ":27490" into a dialable
// websocket URL for the event feed.
func watchURL(addr string, types []string) string {
	host, port, err := net.SplitHostPort(addr)
	if err == nil && host == "" {
		addr = net.JoinHostPort("127.0.0.1", port)
	}
	u := "ws://" + addr + server.APIPrefix + "/ws"
	if len(types) > 0 {
		u += "?types=" + strings.Join(types, ",")
	}
	return u
}

func newWatchCmd() *cobra.Command {
	var (
		addr  string
		types []string
		count int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow compositor events from a running deskd",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				addr = cfg.HTTP.Addr
			}
			ctx := cmd.Context()
			url := watchURL(addr, types)
			conn, err := websocket.Dial(ctx, url)
			if err != nil {
				return err
			}
			defer conn.Close()
			pslog.Ctx(ctx).Debug("watching events", "url", url)

			go func() {
				select {
				case <-ctx.Done():
					_ = conn.CloseWithStatus(websocket.CloseGoingAway, "")
				case <-conn.Done():
				}
			}()

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			for seen := 0; count <= 0 || seen < count; seen++ {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					var ce *websocket.CloseError
					if errors.As(err, &ce) || ctx.Err() != nil {
						return nil
					}
					return err
				}
				var ev wm.Event
				if err := json.Unmarshal(msg, &ev); err != nil {
					return err
				}
				if err := enc.Encode(ev); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "deskd HTTP address (default from config)")
	cmd.Flags().StringSliceVar(&types, "type", nil, "event types to follow (repeatable)")
	cmd.Flags().IntVar(&count, "count", 0, "exit after this many events")
	return cmd
}
