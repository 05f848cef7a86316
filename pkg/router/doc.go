// Package router provides the HTTP router behind the deskshell API, with
// pattern matching, middleware support, and URL parameter extraction.
//
// The router supports the following patterns:
//   - Exact match: /api/v1/windows
//   - Named parameters: /api/v1/windows/:id
//   - Nested parameters: /api/v1/layouts/:layout/slots/:slot
//   - Wildcard matching: /static/*
//
// Example usage:
//
//	r := router.New()
//	r.Use(router.LoggingMiddleware(logger))
//	r.GET("/api/v1/windows/:id", windowHandler)
//	http.ListenAndServe(":8080", r)
package router
