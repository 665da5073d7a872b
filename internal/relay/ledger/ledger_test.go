package ledger

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkSeen_FirstTimeOnly(t *testing.T) {
	l := New(128, time.Minute)

	assert.False(t, l.HasSeen("a"))
	assert.True(t, l.MarkSeen("a"))
	assert.True(t, l.HasSeen("a"))
	assert.False(t, l.MarkSeen("a"))
	assert.Equal(t, 1, l.Len())
}

func TestMarkSeen_ConcurrentDuplicates_ExactlyOneWinner(t *testing.T) {
	l := New(1024, time.Minute)

	const goroutines = 64
	const ids = 50

	var wins atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for i := 0; i < ids; i++ {
				if l.MarkSeen(fmt.Sprintf("msg-%d", i)) {
					wins.Add(1)
				}
			}
		}()
	}
	close(start)
	wg.Wait()

	// 同一个 id 并发抢，只有一个赢家
	require.Equal(t, int64(ids), wins.Load())
	assert.Equal(t, ids, l.Len())
}

func TestLedger_SizeBound(t *testing.T) {
	l := New(10, time.Minute)
	for i := 0; i < 30; i++ {
		l.MarkSeen(fmt.Sprintf("id-%d", i))
	}
	assert.LessOrEqual(t, l.Len(), 10)
	// the most recent window survives
	assert.True(t, l.HasSeen("id-29"))
	assert.False(t, l.HasSeen("id-0"))
}

func TestLedger_TTLExpiry(t *testing.T) {
	l := New(128, 50*time.Millisecond)
	l.MarkSeen("short-lived")
	require.True(t, l.HasSeen("short-lived"))

	time.Sleep(120 * time.Millisecond)
	assert.False(t, l.HasSeen("short-lived"))
	// an expired id can be marked again
	assert.True(t, l.MarkSeen("short-lived"))
}
