// Package kv is the key-value connector used for caches, sessions, and
// short-lived tokens. It is backed by BadgerDB, an embedded store, so no
// external service is required.
package kv

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned by Get when the key does not exist or its TTL has
// expired.
var ErrNotFound = errors.New("kv: key not found")

// Store is a thin connector over a Badger database.
//
// Badger handles its own locking and MVCC, so Store is safe for concurrent
// use without additional synchronization. Values are strings; callers that
// need structure serialize before storing.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database at path and verifies it is readable.
// With inMemory set, path is ignored and nothing touches disk — used by
// tests and throwaway environments.
func Open(path string, inMemory bool) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening key-value store: %w", err)
	}

	s := &Store{db: db}
	if err := s.Health(); err != nil {
		db.Close()
		return nil, fmt.Errorf("key-value store health check: %w", err)
	}
	return s, nil
}

// Health runs an empty read transaction to confirm the store is usable.
func (s *Store) Health() error {
	return s.db.View(func(*badger.Txn) error { return nil })
}

// Get returns the value stored under key, or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			value = string(v)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("getting %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key with no expiry.
func (s *Store) Set(key, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	return nil
}

// SetTTL stores value under key and lets it expire after ttl.
func (s *Store) SetTTL(key, value string, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), []byte(value)).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("setting %q with ttl: %w", key, err)
	}
	return nil
}

// Exists reports whether key currently holds a value.
func (s *Store) Exists(key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %q: %w", key, err)
	}
	return true, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
