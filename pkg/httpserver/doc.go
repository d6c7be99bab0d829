// Package httpserver runs an http.Handler with graceful shutdown and provides
// liveness and readiness handlers.
//
//	srv := httpserver.New(cfg, log)
//	err := srv.Run(ctx, router) // returns after ctx is done or SIGINT/SIGTERM
package httpserver
