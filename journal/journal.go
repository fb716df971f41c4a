// Package journal keeps an append-only record of every operation that
// changed the project, stored in a bbolt database next to the manifest.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// DefaultFileName is the journal database inside the project root.
const DefaultFileName = ".asset-manifest.db"

var bucketName = []byte("modifications")

// Entry is a single operation. Entries are never rewritten.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Sources   []string  `json:"sources,omitempty"`
	Dest      string    `json:"dest,omitempty"`
	Level     string    `json:"level,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
}

type Journal interface {
	Append(e Entry) error
	Recent(limit int) ([]Entry, error)
	Close() error
}

// DB is a Journal backed by bbolt.
type DB struct {
	db  *bolt.DB
	now func() time.Time
}

// Open creates or opens the journal at path.
func Open(path string) (*DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init journal %s: %w", path, err)
	}
	return &DB{db: db, now: time.Now}, nil
}

// Append stores e under the next sequence number. ID and Timestamp are
// filled in when empty.
func (j *DB) Append(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = j.now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(itob(seq), data)
	})
}

// Recent returns up to limit entries, newest first. A limit <= 0 returns
// everything.
func (j *DB) Recent(limit int) ([]Entry, error) {
	entries := []Entry{}
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decode entry %d: %w", binary.BigEndian.Uint64(k), err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

func (j *DB) Close() error {
	return j.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Nop discards everything. Used when the journal is disabled.
type Nop struct{}

func (Nop) Append(Entry) error           { return nil }
func (Nop) Recent(int) ([]Entry, error) { return []Entry{}, nil }
func (Nop) Close() error                { return nil }
