package sendqueue

import (
	"errors"
	"testing"

	"github.com/lmshao/network/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullSend(sent *[]byte) func([]byte) (int, bool, error) {
	return func(p []byte) (int, bool, error) {
		*sent = append(*sent, p...)
		return len(p), false, nil
	}
}

func TestDrainEmptyQueue(t *testing.T) {
	q := New()
	empty, err := q.Drain(func(p []byte) (int, bool, error) {
		t.Fatal("send should not be called on an empty queue")
		return 0, false, nil
	})
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestDrainFullWrite(t *testing.T) {
	q := New()
	b := core.NewBuffer(5)
	b.Assign([]byte("hello"))
	q.Push(b)

	var sent []byte
	empty, err := q.Drain(fullSend(&sent))
	require.NoError(t, err)
	assert.True(t, empty)
	assert.Equal(t, "hello", string(sent))
}

func TestDrainPartialWriteReplacesFront(t *testing.T) {
	q := New()
	b := core.NewBuffer(5)
	b.Assign([]byte("hello"))
	q.Push(b)

	calls := 0
	empty, err := q.Drain(func(p []byte) (int, bool, error) {
		calls++
		return 2, false, nil // only "he" accepted
	})
	require.NoError(t, err)
	assert.False(t, empty)
	assert.Equal(t, 1, calls)
	assert.False(t, q.Empty())

	// second drain should send the remaining "llo"
	var sent []byte
	empty, err = q.Drain(fullSend(&sent))
	require.NoError(t, err)
	assert.True(t, empty)
	assert.Equal(t, "llo", string(sent))
}

func TestDrainWouldBlockStopsWithoutError(t *testing.T) {
	q := New()
	b := core.NewBuffer(3)
	b.Assign([]byte("abc"))
	q.Push(b)

	empty, err := q.Drain(func(p []byte) (int, bool, error) {
		return 0, true, nil
	})
	require.NoError(t, err)
	assert.False(t, empty)
	assert.False(t, q.Empty())
}

func TestDrainErrorPropagates(t *testing.T) {
	q := New()
	b := core.NewBuffer(3)
	b.Assign([]byte("abc"))
	q.Push(b)

	wantErr := errors.New("boom")
	_, err := q.Drain(func(p []byte) (int, bool, error) {
		return 0, false, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestDrainMultipleBuffersInOrder(t *testing.T) {
	q := New()
	for _, s := range []string{"foo", "bar", "baz"} {
		b := core.NewBuffer(len(s))
		b.Assign([]byte(s))
		q.Push(b)
	}

	var sent []byte
	empty, err := q.Drain(fullSend(&sent))
	require.NoError(t, err)
	assert.True(t, empty)
	assert.Equal(t, "foobarbaz", string(sent))
}
