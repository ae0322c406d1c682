package reportstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/tickfifo/errors"
	"github.com/c360/tickfifo/natsclient"
	"github.com/c360/tickfifo/pkg/retry"
)

// Open gets or creates the report bucket on client and returns a Store over
// it. Bucket creation is retried with retry.Quick while the server warms up.
func Open(ctx context.Context, client *natsclient.Client, cfg jetstream.KeyValueConfig, opts ...Option) (*Store, error) {
	kv, err := retry.DoWithResult(ctx, retry.Quick(), func() (jetstream.KeyValue, error) {
		return client.CreateKeyValueBucket(ctx, cfg)
	})
	if err != nil {
		return nil, errors.Wrap(err, "reportstore", "Open", "open bucket "+cfg.Bucket)
	}
	return New(NewKVBucket(kv), opts...), nil
}

// KVBucket adapts a JetStream KeyValue bucket to Bucket.
type KVBucket struct {
	kv jetstream.KeyValue
}

// NewKVBucket wraps kv.
func NewKVBucket(kv jetstream.KeyValue) *KVBucket {
	return &KVBucket{kv: kv}
}

// Put implements Bucket.
func (b *KVBucket) Put(ctx context.Context, key string, value []byte) error {
	if _, err := b.kv.Put(ctx, key, value); err != nil {
		return errors.WrapTransient(err, "KVBucket", "Put", "put "+key)
	}
	return nil
}

// Get implements Bucket. A missing key wraps ErrNotFound.
func (b *KVBucket) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := b.kv.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) || stderrors.Is(err, jetstream.ErrKeyDeleted) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, errors.WrapTransient(err, "KVBucket", "Get", "get "+key)
	}
	return entry.Value(), nil
}

// Delete implements Bucket.
func (b *KVBucket) Delete(ctx context.Context, key string) error {
	if err := b.kv.Delete(ctx, key); err != nil {
		return errors.WrapTransient(err, "KVBucket", "Delete", "delete "+key)
	}
	return nil
}

// Keys implements Bucket. An empty bucket yields no keys and no error.
func (b *KVBucket) Keys(ctx context.Context) ([]string, error) {
	lister, err := b.kv.ListKeys(ctx)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, errors.WrapTransient(err, "KVBucket", "Keys", "list keys")
	}
	defer func() { _ = lister.Stop() }()

	var keys []string
	for key := range lister.Keys() {
		keys = append(keys, key)
	}
	return keys, nil
}

// BucketConfig returns the KV settings for a report bucket. A zero ttl keeps
// reports forever.
func BucketConfig(name string, ttl time.Duration) jetstream.KeyValueConfig {
	if name == "" {
		name = DefaultBucket
	}
	return jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "tickfifo scenario reports",
		History:     1,
		TTL:         ttl,
	}
}
