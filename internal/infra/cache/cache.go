package cache

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/mmrzaf/tabgen/internal/domain"
)

var tablesBucket = []byte("tables")

// TableCache stores generated tables under the hash of the request that
// produced them.
type TableCache interface {
	Get(key string) (*domain.Table, bool, error)
	Put(key string, table *domain.Table) error
	Close() error
}

// BoltCache is a TableCache backed by a bbolt file.
type BoltCache struct {
	db *bolt.DB
}

func OpenBolt(path string) (*BoltCache, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(tablesBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}
	return &BoltCache{db: db}, nil
}

func (c *BoltCache) Get(key string) (*domain.Table, bool, error) {
	var raw []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(tablesBucket).Get([]byte(key))
		if v != nil {
			// only valid for the life of the transaction
			raw = make([]byte, len(v))
			copy(raw, v)
		}
		return nil
	})
	if err != nil || raw == nil {
		return nil, false, err
	}

	var t domain.Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, false, fmt.Errorf("decode cached table %s: %w", key, err)
	}
	return &t, true, nil
}

func (c *BoltCache) Put(key string, table *domain.Table) error {
	raw, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tablesBucket).Put([]byte(key), raw)
	})
}

// Len reports how many tables are cached.
func (c *BoltCache) Len() (int, error) {
	n := 0
	err := c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(tablesBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (c *BoltCache) Close() error {
	return c.db.Close()
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(string) (*domain.Table, bool, error) { return nil, false, nil }
func (Nop) Put(string, *domain.Table) error         { return nil }
func (Nop) Close() error                            { return nil }
