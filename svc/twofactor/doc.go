// Package twofactor implements TOTP two-factor authentication for user
// accounts: enrollment, verification with authenticator codes or single-use
// backup codes, status, disabling and backup code regeneration.
//
// A Service combines four collaborators:
//
//   - Store persists credentials and attempts (MemoryStore, pgstore, mongostore).
//   - Cipher seals the TOTP secret and backup codes at rest (*secrets.Cipher).
//   - Throttle limits verification attempts per user (RateLimitThrottle).
//   - AuditLogger receives security events (*audit.Logger, optional).
//
// Typical wiring:
//
//	throttle, _ := twofactor.NewThrottle(ratelimit.NewMemoryStore(), cfg)
//	svc, err := twofactor.New(store, secrets.NewCipher(keys), throttle,
//		twofactor.WithConfig(cfg),
//		twofactor.WithAuditLogger(auditLog),
//		twofactor.WithLogger(log),
//	)
//
//	res, err := svc.Setup(ctx, twofactor.Identity{UserID: "42", AccountName: "ann@example.com"})
//	// show res.URI as a QR code and res.BackupCodes once
//	_, err = svc.VerifySetup(ctx, id, "123456")
//	_, err = svc.Verify(ctx, id, "654321")
//
// Credentials move through three states: unprovisioned, pending and
// enabled. Setup creates or replaces a pending credential, VerifySetup
// enables it and Disable deletes it. Operations called in the wrong state
// fail with ErrCredentialState.
//
// Every mutation is a compare-and-swap on Credential.Version, so a backup
// code is accepted at most once and, with ReplayProtection on, each TOTP
// time step is accepted at most once per user.
//
// Errors are classified by KindOf. Storage and cipher failures are logged
// with their cause and returned as the bare ErrStorage or ErrCipher.
// Throttled calls return *RateLimitError.
package twofactor
