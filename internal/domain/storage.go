package domain

// KeyValueStore persists small string values across sessions.
// It holds auth tokens, app preferences and recent searches; it never backs a cache.
type KeyValueStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
	Clear() error
}
