package driven

// ConfigStore holds settings under flat dotted keys such as
// "embedding.provider". Typed getters return the zero value when a key is
// missing or holds another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	// GetFloat also accepts integers.
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores value and persists the whole store.
	Set(key string, value any) error

	Save() error
	// Load replaces the in-memory values with what is persisted, dropping
	// unsaved changes.
	Load() error

	// Path names the backing file, or a placeholder for stores without one.
	Path() string
}
