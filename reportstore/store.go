package reportstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/c360/tickfifo/errors"
	"github.com/c360/tickfifo/metric"
	"github.com/c360/tickfifo/pkg/retry"
	"github.com/c360/tickfifo/scenario"
)

// DefaultBucket is the KV bucket reports are written to.
const DefaultBucket = "TICKFIFO_REPORTS"

// ErrNotFound is returned when no report exists under an ID.
var ErrNotFound = stderrors.New("report not found")

// Bucket is the subset of a key-value bucket the store needs.
type Bucket interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Record is a stored report with the time it was saved.
type Record struct {
	StoredAt time.Time        `json:"stored_at"`
	Report   *scenario.Report `json:"report"`
}

// Store persists scenario reports in a Bucket.
type Store struct {
	bucket  Bucket
	codec   Codec
	retry   retry.Config
	logger  *slog.Logger
	metrics *metric.Metrics
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records storage failures in the core error counter.
func WithMetrics(m *metric.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithCodec sets the record encoding. The default is JSON.
func WithCodec(c Codec) Option {
	return func(s *Store) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithRetry overrides the retry policy used for writes.
func WithRetry(cfg retry.Config) Option {
	return func(s *Store) {
		s.retry = cfg
	}
}

// New creates a Store over bucket.
func New(bucket Bucket, opts ...Option) *Store {
	s := &Store{
		bucket: bucket,
		codec:  JSON,
		retry:  retry.DefaultConfig(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "reportstore", "codec", s.codec.Name())
	return s
}

// Save writes report under its ID. Transient bucket failures are retried.
func (s *Store) Save(ctx context.Context, report *scenario.Report) error {
	if report == nil || report.ID == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "Store", "Save", "report id check")
	}
	if !validKey(report.ID) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: key %q", errors.ErrInvalidData, report.ID),
			"Store", "Save", "report id check")
	}

	data, err := s.codec.Marshal(Record{StoredAt: s.now().UTC(), Report: report})
	if err != nil {
		return errors.WrapInvalid(err, "Store", "Save", "marshal report")
	}

	err = retry.Do(ctx, s.retry, func() error {
		return s.bucket.Put(ctx, report.ID, data)
	})
	if err != nil {
		s.fail("put")
		if errors.IsInvalid(err) {
			return errors.WrapInvalid(err, "Store", "Save", "put "+report.ID)
		}
		return errors.WrapTransient(err, "Store", "Save", "put "+report.ID)
	}

	s.logger.Debug("Report stored", "id", report.ID, "scenario", report.Name, "passed", report.Passed)
	return nil
}

// Get returns the record stored under id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	data, err := s.bucket.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.WrapInvalid(err, "Store", "Get", "get "+id)
		}
		s.fail("get")
		return nil, errors.WrapTransient(err, "Store", "Get", "get "+id)
	}

	var rec Record
	if err := s.codec.Unmarshal(data, &rec); err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), "Store", "Get", "decode "+id)
	}
	return &rec, nil
}

// List returns every stored record, oldest first. Entries that fail to
// decode are logged and skipped.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	keys, err := s.bucket.Keys(ctx)
	if err != nil {
		s.fail("keys")
		return nil, errors.WrapTransient(err, "Store", "List", "list keys")
	}

	records := make([]*Record, 0, len(keys))
	for _, key := range keys {
		rec, err := s.Get(ctx, key)
		if err != nil {
			if errors.IsTransient(err) {
				return nil, err
			}
			s.logger.Warn("Skipping unreadable report", "key", key, "error", err)
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StoredAt.Before(records[j].StoredAt)
	})
	return records, nil
}

// Latest returns the most recently stored record for a scenario name.
func (s *Store) Latest(ctx context.Context, name string) (*Record, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Report != nil && records[i].Report.Name == name {
			return records[i], nil
		}
	}
	return nil, errors.WrapInvalid(ErrNotFound, "Store", "Latest", "find "+name)
}

// Delete removes the record stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.bucket.Delete(ctx, id); err != nil {
		s.fail("delete")
		return errors.WrapTransient(err, "Store", "Delete", "delete "+id)
	}
	return nil
}

func (s *Store) fail(action string) {
	if s.metrics != nil {
		s.metrics.RecordError("reportstore", action)
	}
}

// validKey reports whether key is usable as a NATS KV key.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '=', r == '.', r == '/':
		default:
			return false
		}
	}
	return true
}
