package reportstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/tickfifo/errors"
)

func TestBadgerBucket_CRUD(t *testing.T) {
	b, err := OpenBadger("", nil)
	require.NoError(t, err)
	defer b.Close()
	ctx := context.Background()

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, b.Put(ctx, "b", []byte("2")))
	require.NoError(t, b.Put(ctx, "a", []byte("1")))

	val, err := b.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)

	keys, err = b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, b.Delete(ctx, "a"))
	require.NoError(t, b.Delete(ctx, "a"), "deleting twice is fine")

	_, err = b.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadgerBucket_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := OpenBadger(dir, nil)
	require.NoError(t, err)
	store := newStore(t, b)
	report := runReport(t, "reset-priority")
	require.NoError(t, store.Save(ctx, report))
	require.NoError(t, b.Close())

	b, err = OpenBadger(dir, nil)
	require.NoError(t, err)
	defer b.Close()

	rec, err := New(b).Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, "reset-priority", rec.Report.Name)
}

func TestOpenURL(t *testing.T) {
	ctx := context.Background()

	store, closeFn, err := OpenURL(ctx, "memory://", nil, nil)
	require.NoError(t, err)
	report := runReport(t, "simultaneous")
	require.NoError(t, store.Save(ctx, report))
	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	require.NoError(t, closeFn())

	store, closeFn, err = OpenURL(ctx, "badger://"+t.TempDir(), nil, nil)
	require.NoError(t, err)
	require.NotNil(t, store)
	require.NoError(t, closeFn())

	for _, bad := range []string{"badger://", "kv://REPORTS", "s3://bucket", ""} {
		_, _, err := OpenURL(ctx, bad, nil, nil)
		require.Error(t, err, bad)
		assert.True(t, errors.IsInvalid(err), bad)
	}
}
