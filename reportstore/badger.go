package reportstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/c360/tickfifo/errors"
)

// keyPrefix namespaces report keys inside a shared badger directory.
var keyPrefix = []byte("report/")

// BadgerBucket is a Bucket backed by BadgerDB.
type BadgerBucket struct {
	db *badger.DB
}

// OpenBadger opens a badger database in dir. An empty dir runs badger in
// memory-only mode.
func OpenBadger(dir string, logger *slog.Logger) (*BadgerBucket, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.WithLogger(badgerLogger{logger: logger.With("component", "badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.WrapFatal(err, "reportstore", "OpenBadger", "open "+dir)
	}
	return &BadgerBucket{db: db}, nil
}

func badgerKey(key string) []byte {
	return append(append([]byte(nil), keyPrefix...), key...)
}

// Put implements Bucket.
func (b *BadgerBucket) Put(_ context.Context, key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(key), value)
	})
	if err != nil {
		return errors.WrapTransient(err, "BadgerBucket", "Put", "set "+key)
	}
	return nil
}

// Get implements Bucket. A missing key wraps ErrNotFound.
func (b *BadgerBucket) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, errors.WrapTransient(err, "BadgerBucket", "Get", "get "+key)
	}
	return val, nil
}

// Delete implements Bucket. Deleting a missing key is not an error.
func (b *BadgerBucket) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(key))
	})
	if err != nil && !stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.WrapTransient(err, "BadgerBucket", "Delete", "delete "+key)
	}
	return nil
}

// Keys implements Bucket. Keys come back in byte order.
func (b *BadgerBucket) Keys(_ context.Context) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(keyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "BadgerBucket", "Keys", "iterate")
	}
	return keys, nil
}

// Close closes the database.
func (b *BadgerBucket) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger output to slog. Info and debug chatter is
// demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(f string, v ...any) { l.logger.Error(fmt.Sprintf(f, v...)) }
func (l badgerLogger) Warningf(f string, v ...any) {
	l.logger.Warn(fmt.Sprintf(f, v...))
}
func (l badgerLogger) Infof(f string, v ...any)  { l.logger.Debug(fmt.Sprintf(f, v...)) }
func (l badgerLogger) Debugf(f string, v ...any) { l.logger.Debug(fmt.Sprintf(f, v...)) }
