package storage

import (
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/solmirre/ally/internal/domain"
	"github.com/solmirre/ally/internal/logger"
)

// Compile-time interface check.
var _ KV = (*BadgerKV)(nil)

// BadgerKV persists keys in an embedded Badger database under the
// given directory.
type BadgerKV struct {
	db  *badger.DB
	log *logger.Logger
}

// OpenBadger opens (or creates) the store at dir.
func OpenBadger(dir string, log *logger.Logger) (*BadgerKV, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	log.Debug("badger store opened at %s", dir)
	return &BadgerKV{db: db, log: log}, nil
}

// Get returns the value stored under key, or domain.ErrNotFound.
func (s *BadgerKV) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set stores value under key, replacing any previous value.
func (s *BadgerKV) Set(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Close flushes and closes the database.
func (s *BadgerKV) Close() error {
	return s.db.Close()
}
