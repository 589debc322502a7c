package stats

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"synced-lyrics-go/logcolors"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const runsBucketName = "runs"

// Record is the persisted summary of one run
type Record struct {
	ID          uint64           `json:"id"`
	Start       time.Time        `json:"start"`
	End         time.Time        `json:"end"`
	Directory   string           `json:"directory"`
	Mode        string           `json:"mode"`
	Processed   int64            `json:"processed"`
	Found       int64            `json:"found"`
	Synced      int64            `json:"synced"`
	Unsynced    int64            `json:"unsynced"`
	TagErrors   int64            `json:"tag_errors"`
	SourceHits  map[string]int64 `json:"source_hits"`
	SuccessRate float64          `json:"success_rate"`
}

// Elapsed is the wall time of the run
func (r Record) Elapsed() time.Duration {
	return r.End.Sub(r.Start)
}

// Store keeps run history in a dedicated BoltDB file
type Store struct {
	db     *bolt.DB
	dbPath string
	mu     sync.Mutex
}

// NewStore opens (creating if needed) the run history database
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(runsBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create runs bucket: %w", err)
	}

	log.Debugf("%s Stats store opened at %s", logcolors.LogStats, dbPath)
	return &Store{db: db, dbPath: dbPath}, nil
}

// SaveRun appends a record and returns it with its assigned ID
func (s *Store) SaveRun(rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(runsBucketName))
		if b == nil {
			return fmt.Errorf("runs bucket not found")
		}
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		rec.ID = id

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal run: %w", err)
		}
		return b.Put(itob(id), data)
	})
	if err != nil {
		return rec, fmt.Errorf("failed to save run: %w", err)
	}
	return rec, nil
}

// ListRuns returns up to limit records, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(limit int) ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(runsBucketName))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(records) >= limit {
				break
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				log.Warnf("%s Skipping unreadable run %d: %v", logcolors.LogStats, binary.BigEndian.Uint64(k), err)
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return records, nil
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) Close() error {
	return s.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
