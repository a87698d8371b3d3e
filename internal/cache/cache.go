// Package cache stores raw byte payloads with an expiry. The catalog uses it
// to avoid refetching the course feed on every start.
package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrKeyNotFound is returned when a key is absent or has expired.
var ErrKeyNotFound = errors.New("key not found in cache")

type Cache interface {
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	Close() error
}

// BadgerCache implements Cache on an embedded BadgerDB.
type BadgerCache struct {
	db *badger.DB
}

// NewBadgerCache opens (or creates) a cache directory at path.
func NewBadgerCache(path string) (*BadgerCache, error) {
	return openBadger(badger.DefaultOptions(path))
}

// NewInMemoryBadgerCache returns a cache that lives only as long as the process.
func NewInMemoryBadgerCache() (*BadgerCache, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true))
}

func openBadger(opts badger.Options) (*BadgerCache, error) {
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger cache: %w", err)
	}
	return &BadgerCache{db: db}, nil
}

// Set stores value under key. A zero ttl stores it without expiry.
func (c *BadgerCache) Set(key string, value []byte, ttl time.Duration) error {
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (c *BadgerCache) Get(key string) ([]byte, error) {
	var val []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return val, nil
}

func (c *BadgerCache) Delete(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (c *BadgerCache) Close() error {
	return c.db.Close()
}
