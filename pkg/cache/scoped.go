package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// A server shared by several maps, or several deployments sharing one Redis,
// keep their entries apart by scope.
//
// Example usage:
//
//	// Separate namespaces for two deployments
//	prod := NewScopedKeyer(NewDefaultKeyer(), "prod:")
//	staging := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DocumentKey generates a prefixed document key.
func (k *ScopedKeyer) DocumentKey(datasetVersion, featureVersion, optionsHash string) string {
	return k.prefix + k.inner.DocumentKey(datasetVersion, featureVersion, optionsHash)
}
