// Package shutdown coordinates graceful process termination.
//
// Components register named hooks; on SIGINT, SIGTERM or cancellation of
// the supplied context the hooks run in reverse registration order under
// a shared timeout:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("kv server", srv.Shutdown)
//	h.OnShutdown("storage", func(context.Context) error { return engine.Close() })
//	err := h.Wait(ctx)
package shutdown
