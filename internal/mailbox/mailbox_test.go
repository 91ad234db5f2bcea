package mailbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestWins(t *testing.T) {
	mb := New[int]()
	mb.Put(1)
	mb.Put(2)
	mb.Put(3)

	assert.True(t, mb.Pending())
	v, ok := mb.Take(context.Background())
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = mb.TryTake()
	assert.False(t, ok)
	assert.False(t, mb.Pending())
}

func TestTakeBlocksUntilPut(t *testing.T) {
	mb := New[string]()
	got := make(chan string, 1)

	go func() {
		v, _ := mb.Take(context.Background())
		got <- v
	}()

	time.Sleep(10 * time.Millisecond)
	mb.Put("reload")

	select {
	case v := <-got:
		assert.Equal(t, "reload", v)
	case <-time.After(time.Second):
		t.Fatal("Take did not wake up")
	}
}

func TestTakeHonoursContext(t *testing.T) {
	mb := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, ok := mb.Take(ctx)
	assert.False(t, ok)
}

func TestStaleNotifyIsHarmless(t *testing.T) {
	mb := New[int]()
	mb.Put(1)
	_, ok := mb.TryTake()
	require.True(t, ok)

	// the notification from Put is still buffered; Take must not return a zero value
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, ok = mb.Take(ctx)
	assert.False(t, ok)
}
