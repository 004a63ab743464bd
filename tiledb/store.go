// Package tiledb is a bbolt-backed disk cache of raw tile images, keyed by URL.
package tiledb

import (
	"errors"
	"fmt"
	"github.com/rotblauer/globe/params"
	"go.etcd.io/bbolt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

var ErrNotFound = errors.New("tile not in store")

var (
	tilesBucket   = []byte(params.TileDBBucket)
	fetchedBucket = []byte("fetched")
)

type Store struct {
	db       *bbolt.DB
	path     string
	readOnly bool
}

// Open opens or creates the store at path.
// A writable store holds an exclusive file lock; Open gives up after a second
// if another process holds it.
func Open(path string, readOnly bool) (*Store, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		ReadOnly: readOnly,
		Timeout:  time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open tile store %s: %w", path, err)
	}
	s := &Store{db: db, path: path, readOnly: readOnly}
	if !readOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			if _, err := tx.CreateBucketIfNotExists(tilesBucket); err != nil {
				return err
			}
			_, err := tx.CreateBucketIfNotExists(fetchedBucket)
			return err
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	slog.Debug("Opened tile store", "path", path, "readonly", readOnly)
	return s, nil
}

func (s *Store) Path() string { return s.path }

// Get returns a copy of the stored image bytes for url.
func (s *Store) Get(url string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(tilesBucket)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(url))
		if v == nil {
			return ErrNotFound
		}
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	return out, err
}

func (s *Store) Has(url string) bool {
	found := false
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(tilesBucket); b != nil {
			found = b.Get([]byte(url)) != nil
		}
		return nil
	})
	return found
}

// Put stores data for url and stamps the fetch time.
func (s *Store) Put(url string, data []byte) error {
	if url == "" {
		return fmt.Errorf("put: empty url")
	}
	if data == nil {
		return fmt.Errorf("put: nil data")
	}
	stamp, err := time.Now().UTC().MarshalBinary()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(tilesBucket).Put([]byte(url), data); err != nil {
			return err
		}
		return tx.Bucket(fetchedBucket).Put([]byte(url), stamp)
	})
}

// FetchedAt returns when url was last stored.
func (s *Store) FetchedAt(url string) (time.Time, error) {
	var t time.Time
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(fetchedBucket)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(url))
		if v == nil {
			return ErrNotFound
		}
		return t.UnmarshalBinary(v)
	})
	return t, err
}

// Len is the number of stored tiles.
func (s *Store) Len() (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(tilesBucket); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n, err
}

// ForEach calls fn with every stored url and its size in bytes.
func (s *Store) ForEach(fn func(url string, size int) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(tilesBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			return fn(string(k), len(v))
		})
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
