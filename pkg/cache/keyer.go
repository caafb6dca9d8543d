package cache

// Keyer builds cache keys for derived documents.
type Keyer interface {
	// DocumentKey returns the key of the descriptor document derived from
	// the given dataset version, boundary version and options hash.
	DocumentKey(datasetVersion, featureVersion, optionsHash string) string
}

// DefaultKeyer builds keys of the form "doc:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DocumentKey hashes the three versions into one key.
func (DefaultKeyer) DocumentKey(datasetVersion, featureVersion, optionsHash string) string {
	return hashKey("doc", datasetVersion, featureVersion, optionsHash)
}
