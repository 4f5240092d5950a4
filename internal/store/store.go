package store

// Well-known keys used by the synchronization core. Each value is
// independently readable and writable, and each caller tolerates absence.
const (
	KeyCredential     = "auth.credential"
	KeyTheme          = "pref.theme"
	KeyOnboardingSeen = "pref.onboarding_seen"
	KeyCooldownExpiry = "recommend.cooldown_expiry"
)

// Store is the single indirection point between the synchronization core and
// durable storage. Implementations never surface backend failures: a failed
// read reports a miss and a failed write is dropped, so callers treat the
// store as best-effort cache rather than a source of truth.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)
	// Set writes the value for key.
	Set(key, value string)
	// Delete removes the value for key.
	Delete(key string)
}
