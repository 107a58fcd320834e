package core_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/islands/pkg/core"
)

func TestFireGuard_LatchesOnce(t *testing.T) {
	g := core.NewFireGuard()
	assert.False(t, g.Latched())
	assert.True(t, g.Latch())
	assert.False(t, g.Latch())
	assert.True(t, g.Latched())
}

func TestFireGuard_ConcurrentLatch(t *testing.T) {
	g := core.NewFireGuard()
	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Latch() {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}
