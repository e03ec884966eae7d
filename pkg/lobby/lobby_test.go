package lobby

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_GetList(t *testing.T) {
	l := New(NewMemoryStore())

	room, err := l.Create(context.Background(), strings.NewReader("1x2\na\na\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, room.Code)
	assert.Equal(t, room.Code, room.Board.ID())

	got, ok := l.Get(room.Code)
	assert.True(t, ok)
	assert.Same(t, room, got)

	_, ok = l.Get("NOPE")
	assert.False(t, ok)

	assert.Len(t, l.List(), 1)
}

func TestCreate_RejectsMalformedBoard(t *testing.T) {
	l := New(NewMemoryStore())
	_, err := l.Create(context.Background(), strings.NewReader("not-a-header\n"))
	assert.Error(t, err)
}

func TestConcurrentCreate_NoDuplicateOrLostCodes(t *testing.T) {
	l := New(NewMemoryStore())
	const n = 64

	var wg sync.WaitGroup
	codes := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			room, err := l.Create(context.Background(), strings.NewReader("1x1\na\n"))
			require.NoError(t, err)
			codes[idx] = room.Code
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, c := range codes {
		assert.False(t, seen[c], "duplicate room code %q", c)
		seen[c] = true
	}
	assert.Len(t, l.List(), n)
}
