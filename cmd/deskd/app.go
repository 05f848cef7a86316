package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"deskshell/pkg/config"
	"deskshell/pkg/eventbus"
	"deskshell/pkg/kv"
	"deskshell/pkg/wm"

	"pkt.systems/pslog"
)

// app is the compositor and its collaborators, built from config.
type app struct {
	cfg    config.Config
	store  kv.Store
	screen *wm.Screen
	bus    *eventbus.Bus
	wm     *wm.Manager
	log    pslog.Logger
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	logger := pslog.Ctx(ctx)
	store, err := kv.Open(cfg.Storage.Backend, cfg.Storage.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	logger.Info("storage opened", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path)

	rt := &app{
		cfg:    cfg,
		store:  store,
		screen: wm.NewScreen(cfg.Viewport.Width, cfg.Viewport.Height, cfg.Viewport.TaskbarHeight),
		bus:    eventbus.New(cfg.Events.Buffer, logger),
		log:    logger,
	}
	rt.wm = wm.NewManager(wm.Config{
		Store:      store,
		Events:     rt.bus,
		Viewport:   rt.screen,
		Logger:     logger,
		SessionKey: cfg.Persistence.SessionKey,
		PrefsKey:   cfg.Persistence.PrefsKey,
		WriteDelay: cfg.Persistence.WriteDelay(),
	})
	logger.Info("session restored", "windows", len(rt.wm.Windows()), "groups", len(rt.wm.SnapGroups()))
	return rt, nil
}

// Close flushes pending window writes and closes the store.
func (rt *app) Close() error {
	rt.wm.Shutdown()
	if err := rt.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
