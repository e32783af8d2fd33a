// Package logger provides a thin factory around log/slog with functional
// options and transparent injection of request-scoped context values.
//
// The factory returns a *slog.Logger whose handler runs registered
// ContextExtractor callbacks on every record, so attributes like the bound
// tenant schema or request id appear in every log line without explicit
// threading:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "authzkit"),
//	    logger.WithContextExtractors(tenant.LogExtractor()),
//	)
package logger
