// Package audit records security-relevant actions as structured events.
//
// A Logger stamps each event with an id and time, fills request details from
// context through optional extractors, scrubs metadata through a
// MetadataFilter and hands the result to a Storage.
//
// Storages:
//
//   - MemoryStorage keeps events in a slice and can be queried. Tests use it.
//   - SlogStorage writes events as log records.
//   - OpenSearchStorage indexes events and supports bulk writes and queries.
//   - AsyncWriter batches events in front of any BatchStorage.
//
// # Usage
//
//	l := audit.NewLogger(audit.NewMemoryStorage(),
//	    audit.WithMetadataFilter(audit.NewMetadataFilter(nil)),
//	)
//	_ = l.Log(ctx, "two_factor.setup",
//	    audit.WithUserID(userID),
//	    audit.WithResource("two_factor_credential", userID),
//	)
//
// # Sensitive data
//
// The default filter removes keys such as "secret", "code" and
// "backup_codes" and masks "email". Keep secrets out of metadata anyway.
package audit
