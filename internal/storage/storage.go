package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/chesssearch/internal/board"
	"github.com/hailam/chesssearch/internal/engine"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	keyFirstLaunch = "first_launch"
	resultPrefix   = "result/"
)

// ErrNotFound is returned when no record exists for a fingerprint.
var ErrNotFound = errors.New("storage: record not found")

// Preferences holds command-line defaults that outlive a single run.
type Preferences struct {
	Depth     int       `json:"depth"`
	HashMB    int       `json:"hash_mb"`
	Iterative bool      `json:"iterative"`
	NullMove  bool      `json:"null_move"`
	LMR       bool      `json:"lmr"`
	LastUsed  time.Time `json:"last_used"`
}

// DefaultPreferences returns the preferences used before any are saved.
func DefaultPreferences() *Preferences {
	opts := engine.DefaultOptions()
	return &Preferences{
		Depth:     6,
		HashMB:    opts.HashMB,
		Iterative: true,
		NullMove:  opts.NullMove,
		LMR:       opts.LMR,
	}
}

// Apply copies the preferences onto engine options.
func (p *Preferences) Apply(opts *engine.Options) {
	opts.HashMB = p.HashMB
	opts.NullMove = p.NullMove
	opts.LMR = p.LMR
}

// Record is a stored search result. Records are keyed by the position's
// fingerprint, so transposed move orders share one record.
type Record struct {
	FEN         string    `json:"fen"`
	Fingerprint uint64    `json:"fingerprint"`
	BestMove    string    `json:"best_move"`
	SAN         string    `json:"san,omitempty"`
	Score       int       `json:"score"`
	Depth       int       `json:"depth"`
	Nodes       uint64    `json:"nodes"`
	PV          []string  `json:"pv,omitempty"`
	SessionID   string    `json:"session_id"`
	SearchedAt  time.Time `json:"searched_at"`
}

// Stats aggregates every search recorded in the store.
type Stats struct {
	Searches    int    `json:"searches"`
	Nodes       uint64 `json:"nodes"`
	CacheHits   uint64 `json:"cache_hits"`
	CacheStores uint64 `json:"cache_stores"`
	DeepestPly  int    `json:"deepest_ply"`
}

// HitsPerSearch returns the average number of cache hits per search.
func (s *Stats) HitsPerSearch() float64 {
	if s.Searches == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.Searches)
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the store in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens the store in dir. An empty dir keeps everything in memory.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", dir, err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch returns true if this is the first launch
func (s *Storage) IsFirstLaunch() (bool, error) {
	firstLaunch := true

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		firstLaunch = false
		return nil
	})

	return firstLaunch, err
}

// MarkFirstLaunchComplete marks that first launch setup is complete
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

// SavePreferences saves user preferences
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastUsed = time.Now()
	return s.put(keyPreferences, prefs)
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	if err := s.get(keyPreferences, prefs); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return prefs, nil
}

// LoadStats loads search statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*Stats, error) {
	stats := &Stats{}
	if err := s.get(keyStats, stats); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return stats, nil
}

// SaveResult stores res for the position given as FEN and folds it into the
// running statistics. An existing record for the same fingerprint is only
// replaced by a result of at least the same depth.
func (s *Storage) SaveResult(fen string, res engine.Result) error {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}

	rec := &Record{
		FEN:         pos.ToFEN(),
		Fingerprint: pos.Hash,
		BestMove:    res.BestMove.String(),
		Score:       res.Score,
		Depth:       res.Depth,
		Nodes:       res.Nodes,
		SessionID:   res.SessionID,
		SearchedAt:  time.Now().UTC(),
	}
	if res.BestMove != board.NoMove && pos.IsLegal(res.BestMove) {
		rec.SAN = res.BestMove.ToSAN(pos)
	}
	for _, m := range res.PV {
		rec.PV = append(rec.PV, m.String())
	}

	key := resultKey(pos.Hash)
	return s.db.Update(func(txn *badger.Txn) error {
		var old Record
		switch err := getTxn(txn, key, &old); {
		case err == nil && old.Depth > rec.Depth:
			return nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return err
		}
		if err := setTxn(txn, key, rec); err != nil {
			return err
		}

		stats := &Stats{}
		if err := getTxn(txn, keyStats, stats); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		stats.Searches++
		stats.Nodes += res.Nodes
		stats.CacheHits += res.CacheHits
		stats.CacheStores += res.CacheStores
		stats.DeepestPly = max(stats.DeepestPly, res.Depth)
		return setTxn(txn, keyStats, stats)
	})
}

// LoadResult returns the record stored for a fingerprint, or ErrNotFound.
func (s *Storage) LoadResult(fingerprint uint64) (*Record, error) {
	rec := &Record{}
	if err := s.get(resultKey(fingerprint), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Results returns every stored record in fingerprint order.
func (s *Storage) Results() ([]*Record, error) {
	var records []*Record
	prefix := []byte(resultPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rec := &Record{}
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, rec)
			})
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

// DeleteResult removes the record for a fingerprint.
func (s *Storage) DeleteResult(fingerprint uint64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(resultKey(fingerprint)))
	})
}

func resultKey(fingerprint uint64) string {
	return fmt.Sprintf("%s%016x", resultPrefix, fingerprint)
}

func (s *Storage) put(key string, v any) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return setTxn(txn, key, v)
	})
}

func (s *Storage) get(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		return getTxn(txn, key, v)
	})
}

func setTxn(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

func getTxn(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}
