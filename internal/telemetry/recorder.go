// Package telemetry records per-poll input batch statistics in SQLite.
//
// Samples are queued without blocking the frame loop and written in batches
// by a background goroutine. When the queue is full samples are discarded.
package telemetry

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// ErrClosed is returned after Close
var ErrClosed = errors.New("telemetry recorder closed")

// Sample is the outcome of one poll.
type Sample struct {
	Time    time.Time
	Device  string // "keyboard" or "mouse"
	Count   int
	Dropped int
}

// Summary aggregates the samples of one device.
type Summary struct {
	Device    string
	Polls     int64
	Events    int64
	Dropped   int64
	Overflows int64
}

// Config holds configuration for the recorder.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BatchSize is the number of samples written per transaction.
	// Default: 120
	BatchSize int

	// BatchTimeout is how long a partial batch may wait.
	// Default: 2s
	BatchTimeout time.Duration

	// QueueSize bounds the samples waiting to be written.
	// Default: 1024
	QueueSize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(dbPath string) Config {
	return Config{
		DBPath:       dbPath,
		BatchSize:    120,
		BatchTimeout: 2 * time.Second,
		QueueSize:    1024,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS polls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp INTEGER NOT NULL,   -- UnixNano
    device TEXT NOT NULL,
    count INTEGER NOT NULL,
    dropped INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_polls_device ON polls(device, timestamp);
`

// Recorder writes samples to SQLite.
type Recorder struct {
	config Config
	db     *sql.DB

	queue   chan Sample
	flushCh chan chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}

	closed   atomic.Bool
	lost     atomic.Int64
	closeErr error
	once     sync.Once
}

// Open creates a recorder with default settings.
func Open(dbPath string) (*Recorder, error) {
	return OpenWithConfig(DefaultConfig(dbPath))
}

// OpenWithConfig creates a recorder with custom configuration.
func OpenWithConfig(config Config) (*Recorder, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = 120
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = 2 * time.Second
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1024
	}

	if err := os.MkdirAll(filepath.Dir(config.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := config.DBPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	r := &Recorder{
		config:  config,
		db:      db,
		queue:   make(chan Sample, config.QueueSize),
		flushCh: make(chan chan struct{}),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go r.writer()

	log.Printf("Telemetry: recording input statistics to %s", config.DBPath)
	return r, nil
}

// Record queues a sample. It never blocks.
func (r *Recorder) Record(s Sample) {
	if r.closed.Load() {
		return
	}
	if s.Time.IsZero() {
		s.Time = time.Now()
	}
	select {
	case r.queue <- s:
	default:
		r.lost.Add(1)
	}
}

// Lost returns how many samples were discarded because the queue was full.
func (r *Recorder) Lost() int64 {
	return r.lost.Load()
}

// Flush blocks until every queued sample is written.
func (r *Recorder) Flush() error {
	if r.closed.Load() {
		return ErrClosed
	}
	done := make(chan struct{})
	select {
	case r.flushCh <- done:
		<-done
		return nil
	case <-r.doneCh:
		return ErrClosed
	}
}

// Summaries returns per-device totals ordered by device name.
func (r *Recorder) Summaries() ([]Summary, error) {
	rows, err := r.db.Query(`
		SELECT device, COUNT(*), SUM(count), SUM(dropped), SUM(CASE WHEN dropped > 0 THEN 1 ELSE 0 END)
		FROM polls GROUP BY device ORDER BY device`)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.Device, &s.Polls, &s.Events, &s.Dropped, &s.Overflows); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close writes pending samples and closes the database.
func (r *Recorder) Close() error {
	r.once.Do(func() {
		r.closed.Store(true)
		close(r.stopCh)
		<-r.doneCh
		r.closeErr = r.db.Close()
	})
	return r.closeErr
}

func (r *Recorder) writer() {
	defer close(r.doneCh)

	batch := make([]Sample, 0, r.config.BatchSize)
	timer := time.NewTimer(r.config.BatchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		r.write(batch)
		batch = batch[:0]
	}
	drain := func() {
		for {
			select {
			case s := <-r.queue:
				batch = append(batch, s)
			default:
				return
			}
		}
	}

	for {
		select {
		case s := <-r.queue:
			batch = append(batch, s)
			if len(batch) >= r.config.BatchSize {
				flush()
				timer.Reset(r.config.BatchTimeout)
			}

		case <-timer.C:
			flush()
			timer.Reset(r.config.BatchTimeout)

		case done := <-r.flushCh:
			drain()
			flush()
			close(done)

		case <-r.stopCh:
			drain()
			flush()
			return
		}
	}
}

// write stores a batch in a single transaction.
func (r *Recorder) write(batch []Sample) {
	tx, err := r.db.Begin()
	if err != nil {
		log.Printf("Telemetry: failed to begin transaction: %v", err)
		return
	}

	stmt, err := tx.Prepare("INSERT INTO polls (timestamp, device, count, dropped) VALUES (?, ?, ?, ?)")
	if err != nil {
		log.Printf("Telemetry: failed to prepare statement: %v", err)
		tx.Rollback()
		return
	}
	defer stmt.Close()

	for _, s := range batch {
		if _, err := stmt.Exec(s.Time.UnixNano(), s.Device, s.Count, s.Dropped); err != nil {
			log.Printf("Telemetry: failed to insert sample: %v", err)
			tx.Rollback()
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("Telemetry: failed to commit batch: %v", err)
	}
}
