package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// Common errors
var (
	ErrJobNotFound = errors.New("job not found")
	ErrClosed      = errors.New("job store closed")
	ErrInvalidKey  = errors.New("encryption key must be 16, 24 or 32 bytes")
)

// encryptedIndexCacheSize is required by Badger when encryption is on.
const encryptedIndexCacheSize = 16 << 20

var jobPrefix = []byte("job/")

// Config configures a JobStore.
type Config struct {
	// Dir is the Badger data directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// GCInterval is the value-log GC period. Zero disables GC.
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC.
	GCThreshold float64

	// EncryptionKey enables at-rest encryption. It must be 16, 24 or 32 bytes.
	EncryptionKey []byte
}

// DefaultConfig returns a configuration for a store under dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		SyncWrites:  true,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
	}
}

// Stats is a point-in-time view of the store.
type Stats struct {
	Jobs         int64
	LSMSize      int64
	ValueLogSize int64
	LastGCTime   int64 // Unix milliseconds
	GCRuns       uint64
}

// JobStore persists jobs in Badger.
type JobStore struct {
	db     *badger.DB
	cfg    Config
	logger *slog.Logger

	jobs       atomic.Int64
	lastGCTime atomic.Int64
	gcRuns     atomic.Uint64

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens (or creates) a job store.
func Open(cfg Config, logger *slog.Logger) (*JobStore, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, fmt.Errorf("storage: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites

	if len(cfg.EncryptionKey) > 0 {
		switch len(cfg.EncryptionKey) {
		case 16, 24, 32:
		default:
			return nil, fmt.Errorf("storage: %w", ErrInvalidKey)
		}
		opts = opts.WithEncryptionKey(cfg.EncryptionKey).WithIndexCacheSize(encryptedIndexCacheSize)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}

	s := &JobStore{
		db:     db,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	n, err := s.countKeys()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: count jobs: %w", err)
	}
	s.jobs.Store(n)

	// Value-log GC is not supported in memory mode.
	if cfg.GCInterval > 0 && !cfg.InMemory {
		go s.gcLoop()
	} else {
		close(s.doneCh)
	}

	logger.Info("job store opened",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"encrypted", len(cfg.EncryptionKey) > 0,
		"jobs", n)

	return s, nil
}

func jobKey(id string) []byte {
	return append(append([]byte(nil), jobPrefix...), id...)
}

// Put stores a job, replacing any job with the same ID.
func (s *JobStore) Put(ctx context.Context, job *Job) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := job.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("storage: encode job: %w", err)
	}

	created := false
	err = s.db.Update(func(txn *badger.Txn) error {
		key := jobKey(job.ID)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			created = true
		} else if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("storage: put job %s: %w", job.ID, err)
	}

	if created {
		s.jobs.Add(1)
	}
	return nil
}

// Get returns the job with the given ID.
func (s *JobStore) Get(ctx context.Context, id string) (*Job, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if id == "" {
		return nil, ErrJobIDRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var job Job
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(jobKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrJobNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &job)
		})
	})
	if err != nil {
		return nil, err
	}

	return &job, nil
}

// List calls fn for every stored job in ID order until fn returns false.
// ULID job IDs make this creation order.
func (s *JobStore) List(ctx context.Context, fn func(*Job) bool) error {
	if s.closed.Load() {
		return ErrClosed
	}

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = jobPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var job Job
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &job)
			}); err != nil {
				return err
			}

			if !fn(&job) {
				break
			}
		}
		return nil
	})
}

// Count returns the number of stored jobs.
func (s *JobStore) Count() int64 {
	return s.jobs.Load()
}

func (s *JobStore) countKeys() (int64, error) {
	var n int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = jobPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// GC runs value-log garbage collection until nothing is left to rewrite.
// It returns the number of rewrite passes.
func (s *JobStore) GC(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	if s.cfg.InMemory {
		return 0, nil
	}

	start := time.Now()
	passes := 0
	for ctx.Err() == nil {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return passes, fmt.Errorf("storage: gc: %w", err)
		}
		passes++
	}

	s.lastGCTime.Store(time.Now().UnixMilli())
	s.gcRuns.Add(1)

	s.logger.Debug("gc completed",
		"passes", passes,
		"elapsed", time.Since(start))

	return passes, nil
}

// Stats returns storage statistics.
func (s *JobStore) Stats() Stats {
	var lsm, vlog int64
	if !s.closed.Load() {
		lsm, vlog = s.db.Size()
	}

	return Stats{
		Jobs:         s.jobs.Load(),
		LSMSize:      lsm,
		ValueLogSize: vlog,
		LastGCTime:   s.lastGCTime.Load(),
		GCRuns:       s.gcRuns.Load(),
	}
}

// Close stops the GC loop and closes the database. Only the first call
// does any work; later calls return its result.
func (s *JobStore) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.logger.Info("closing job store")
		s.closed.Store(true)

		close(s.stopCh)
		select {
		case <-s.doneCh:
		case <-ctx.Done():
			s.logger.Warn("gc still running, closing anyway")
		}

		if err := s.db.Close(); err != nil {
			s.closeErr = fmt.Errorf("storage: close db: %w", err)
			return
		}
		s.logger.Info("job store closed")
	})
	return s.closeErr
}

// gcLoop runs periodic garbage collection.
func (s *JobStore) gcLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := s.GC(ctx); err != nil && !errors.Is(err, ErrClosed) {
				s.logger.Error("auto gc failed", "error", err)
			}
			cancel()

		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// Badger is chatty at info level; route it to debug.
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
