package session

// Metrics receives counters from the Manager. pkg/metrics provides the
// Prometheus implementation.
type Metrics interface {
	CredentialIssued(kind string)
	RefreshLookup(result string)
	CacheError(op string)
	Revoked(scope string, n int64)
	Swept(n int64)
	Rotation(result string)
}

const (
	KindAccess  = "access"
	KindRefresh = "refresh"

	LookupCacheHit = "cache_hit"
	LookupStoreHit = "store_hit"
	LookupMiss     = "miss"

	ScopeOne = "one"
	ScopeAll = "all"

	RotationOK       = "ok"
	RotationInvalid  = "invalid"
	RotationConsumed = "consumed"
	RotationError    = "error"
)

type nopMetrics struct{}

func (nopMetrics) CredentialIssued(string) {}
func (nopMetrics) RefreshLookup(string)    {}
func (nopMetrics) CacheError(string)       {}
func (nopMetrics) Revoked(string, int64)   {}
func (nopMetrics) Swept(int64)             {}
func (nopMetrics) Rotation(string)         {}
