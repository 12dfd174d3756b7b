package orderid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"print-relay/internal/store"
)

func TestNext_FreshCounterStartsAtTwo(t *testing.T) {
	a := New(store.NewMemory())
	ctx := context.Background()

	for _, want := range []string{"002", "003", "004"} {
		got, err := a.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNext_WrapsToZero(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(context.Background(), "currentOrderId", "199"))
	a := New(kv)

	got, err := a.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "000", got)

	got, err = a.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "001", got)
}

func TestNext_FullPeriod(t *testing.T) {
	a := New(store.NewMemory())
	ctx := context.Background()

	ids := make([]string, 200)
	for i := range ids {
		var err error
		ids[i], err = a.Next(ctx)
		require.NoError(t, err)
		require.Len(t, ids[i], 3)
	}

	assert.Equal(t, "002", ids[0])
	assert.Equal(t, "199", ids[197])
	assert.Equal(t, "000", ids[198])
	assert.Equal(t, "001", ids[199])

	// Period 200: the next allocation repeats the first.
	again, err := a.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids[0], again)
}

func TestNext_PersistsBeforeReturning(t *testing.T) {
	kv := store.NewMemory()
	a := New(kv)

	_, err := a.Next(context.Background())
	require.NoError(t, err)

	raw, ok, err := kv.Get(context.Background(), "currentOrderId")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", raw)
}

func TestNext_CorruptCounter(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(context.Background(), "currentOrderId", "banana"))

	_, err := New(kv).Next(context.Background())
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "000", Format(0))
	assert.Equal(t, "005", Format(5))
	assert.Equal(t, "042", Format(42))
	assert.Equal(t, "199", Format(199))
	// Pad to at least three digits, keep the trailing three.
	assert.Equal(t, "234", Format(1234))
}
