// Package server exposes the window manager over HTTP: a JSON API under
// /api/v1, compositor events as server-sent events or over a websocket,
// health and readiness probes, and the listener lifecycle with graceful
// shutdown.
//
// Example usage:
//
//	api := server.NewAPI(server.APIConfig{Manager: mgr, Screen: screen, Events: bus})
//	srv := server.New(server.Config{Addr: ":8080", Handler: server.NewHandler(api, nil, logger)})
//	go srv.ListenAndServe()
//	defer srv.Shutdown(ctx)
package server
