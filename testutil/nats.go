package testutil

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/c360/tickfifo/errors"
)

// Handler is the callback signature shared with natsclient.Client.
type Handler = func(context.Context, []byte)

// MockNATSClient delivers published messages synchronously to subscribers
// of the exact subject and records every message. It satisfies
// tickport.Transport.
type MockNATSClient struct {
	mu         sync.RWMutex
	messages   map[string][][]byte
	handlers   map[string][]*mockSub
	closed     bool
	publishErr error
}

type mockSub struct{ handler Handler }

// NewMockNATSClient creates an open client with no subscriptions.
func NewMockNATSClient() *MockNATSClient {
	return &MockNATSClient{
		messages: make(map[string][][]byte),
		handlers: make(map[string][]*mockSub),
	}
}

// Publish records data and runs the subject's handlers on the caller's
// goroutine.
func (c *MockNATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.WrapTransient(errors.ErrNoConnection, "MockNATSClient", "Publish", subject)
	}
	if c.publishErr != nil {
		err := c.publishErr
		c.mu.Unlock()
		return err
	}
	c.messages[subject] = append(c.messages[subject], data)
	subs := slices.Clone(c.handlers[subject])
	c.mu.Unlock()

	for _, sub := range subs {
		sub.handler(ctx, data)
	}
	return nil
}

// Subscribe registers handler for subject until ctx is done.
func (c *MockNATSClient) Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.WrapTransient(errors.ErrNoConnection, "MockNATSClient", "Subscribe", subject)
	}
	sub := &mockSub{handler: handler}
	c.handlers[subject] = append(c.handlers[subject], sub)
	context.AfterFunc(ctx, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.handlers[subject] = slices.DeleteFunc(c.handlers[subject], func(s *mockSub) bool { return s == sub })
	})
	return nil
}

// SubscriberCount returns the number of live subscriptions on subject.
func (c *MockNATSClient) SubscriberCount(subject string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers[subject])
}

// GetMessages returns a copy of the messages published on subject.
func (c *MockNATSClient) GetMessages(subject string) [][]byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.messages[subject])
}

// GetMessageCount returns the number of messages published on subject.
func (c *MockNATSClient) GetMessageCount(subject string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages[subject])
}

// Clear forgets the messages recorded on subject.
func (c *MockNATSClient) Clear(subject string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.messages, subject)
}

// SetPublishError makes Publish fail with err until it is reset with nil.
func (c *MockNATSClient) SetPublishError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishErr = err
}

// Close makes further Publish and Subscribe calls fail.
func (c *MockNATSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (c *MockNATSClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// ErrKeyNotFound is returned by MockKVStore.Get for a missing key.
var ErrKeyNotFound = stderrors.New("key not found")

// MockKVStore is an in-memory key-value bucket with the same method set as
// the report store's Bucket.
type MockKVStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMockKVStore creates an empty store.
func NewMockKVStore() *MockKVStore {
	return &MockKVStore{data: make(map[string][]byte)}
}

// Put stores a copy of value.
func (kv *MockKVStore) Put(_ context.Context, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = slices.Clone(value)
	return nil
}

// Get returns a copy of the value stored under key.
func (kv *MockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	val, ok := kv.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return slices.Clone(val), nil
}

// Delete removes key. Missing keys are not an error.
func (kv *MockKVStore) Delete(_ context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data, key)
	return nil
}

// Keys returns the stored keys in sorted order.
func (kv *MockKVStore) Keys(_ context.Context) ([]string, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return slices.Sorted(maps.Keys(kv.data)), nil
}

// WaitForMessage returns the latest message on subject, failing the test
// if none arrives within timeout.
func WaitForMessage(t *testing.T, client *MockNATSClient, subject string, timeout time.Duration) []byte {
	t.Helper()
	var last []byte
	require.Eventually(t, func() bool {
		msgs := client.GetMessages(subject)
		if len(msgs) == 0 {
			return false
		}
		last = msgs[len(msgs)-1]
		return true
	}, timeout, 5*time.Millisecond, "no message on %s", subject)
	return last
}

// WaitForMessageCount waits until at least count messages were published on
// subject.
func WaitForMessageCount(t *testing.T, client *MockNATSClient, subject string, count int, timeout time.Duration) {
	t.Helper()
	require.Eventually(t, func() bool {
		return client.GetMessageCount(subject) >= count
	}, timeout, 5*time.Millisecond, "want %d messages on %s", count, subject)
}

// AssertMessageReceived fails the test when nothing was published on subject.
func AssertMessageReceived(t *testing.T, client *MockNATSClient, subject string) {
	t.Helper()
	require.NotZero(t, client.GetMessageCount(subject), "no message on %s", subject)
}

// AssertNoMessages fails the test when anything was published on subject.
func AssertNoMessages(t *testing.T, client *MockNATSClient, subject string) {
	t.Helper()
	require.Zero(t, client.GetMessageCount(subject), "unexpected messages on %s", subject)
}
