package cachutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

func TestSuppressed_Do(t *testing.T) {
	var (
		s       Suppressed[int]
		calls   atomic.Int32
		release = make(chan struct{})
		wg      sync.WaitGroup
	)
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.Do("key", func() int {
				calls.Inc()
				<-release
				return 42
			})
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, []int{42, 42, 42, 42, 42}, results)
	assert.LessOrEqual(t, calls.Load(), int32(5))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))

	assert.Equal(t, 7, s.Do("other", func() int { return 7 }))
}
