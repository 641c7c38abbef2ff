package file

import "sync"

// Deprecation describes one read of a legacy line-array record.
type Deprecation struct {
	Path    string
	Backend string
}

var (
	deprecationMu sync.RWMutex
	deprecationFn func(Deprecation)
)

// SetDeprecationHandler installs the sink for deprecation events.
// Backends emit at most one event per operation that touches legacy
// records. A nil handler silences events.
func SetDeprecationHandler(fn func(Deprecation)) {
	deprecationMu.Lock()
	deprecationFn = fn
	deprecationMu.Unlock()
}

// Deprecate reports that an operation read a legacy record.
func Deprecate(d Deprecation) {
	deprecationMu.RLock()
	fn := deprecationFn
	deprecationMu.RUnlock()
	if fn != nil {
		fn(d)
	}
}
