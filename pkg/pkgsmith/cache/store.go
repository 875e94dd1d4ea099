package cache

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a cache entry doesn't exist.
var ErrNotFound = errors.New("cache entry not found")

// Store wraps badger for cache operations.
type Store struct {
	db *badger.DB
}

// OpenStore opens or creates a cache store at the given path.
func OpenStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging.

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves a cached entry by root and relative path.
func (s *Store) Get(root, relPath string) (*Entry, error) {
	key := MakeKey(root, relPath)
	var entry Entry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(entry.Decode)
	})

	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Put stores a cached entry.
func (s *Store) Put(root, relPath string, entry *Entry) error {
	key := MakeKey(root, relPath)
	value, err := entry.Encode()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// DeletePrefix removes all entries with the given root prefix.
func (s *Store) DeletePrefix(root string) error {
	prefix := MakeKeyPrefix(root)

	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := txn.Delete(it.Item().KeyCopy(nil)); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteAll removes every entry in the store.
func (s *Store) DeleteAll() error {
	return s.db.DropAll()
}

// PutBatch stores multiple entries efficiently in a single write batch.
func (s *Store) PutBatch(root string, entries map[string]*Entry) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for relPath, entry := range entries {
		key := MakeKey(root, relPath)
		value, err := entry.Encode()
		if err != nil {
			return err
		}
		if err := wb.Set(key, value); err != nil {
			return err
		}
	}

	return wb.Flush()
}

// Count returns the number of entries under the given root prefix.
// An empty root counts all entries.
func (s *Store) Count(root string) (int, error) {
	var prefix []byte
	if root != "" {
		prefix = MakeKeyPrefix(root)
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
