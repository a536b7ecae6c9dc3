// Package requestid tags every request with an ID that shows up in the
// response header, the logs and the audit events.
//
//	r.Use(requestid.Middleware)
//	log := logger.New(logger.WithContextExtractors(requestid.LogExtractor))
//	auditLog := audit.NewLogger(sink, audit.WithRequestIDExtractor(requestid.FromContext))
package requestid
