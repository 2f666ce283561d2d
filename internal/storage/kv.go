// Package storage provides the durable key/value store behind the
// conversation collections. Each collection is one key holding its
// full JSON-serialized value.
package storage

// KV is the key/value contract the conversation store persists
// through. Implementations must return domain.ErrNotFound from Get for
// absent keys.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Close() error
}

// Fixed keys, one per persisted collection.
const (
	KeyMessages       = "messages"
	KeyMemory         = "memory"
	KeyJournal        = "journal"
	KeyWritings       = "writings"
	KeyLastRitualDate = "last_ritual_date"
)
