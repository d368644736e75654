package threadpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return logger.Sugar()
}

func TestPool_SubmitRunsFunction(t *testing.T) {
	p, err := New(&Config{Size: 2, MaxSize: 2, Logger: testLogger(t)})
	require.NoError(t, err)
	defer p.Close()

	var ran atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)

	require.NoError(t, p.Submit(func() {
		defer wg.Done()
		ran.Store(true)
	}))

	wg.Wait()
	require.True(t, ran.Load())
}

func TestPool_GrowsBeyondInitialSize(t *testing.T) {
	p, err := New(&Config{Size: 1, MaxSize: 4, Logger: testLogger(t)})
	require.NoError(t, err)
	defer p.Close()

	block := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < 3; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			<-block
		}))
	}

	require.Eventually(t, func() bool { return p.Size() > 1 }, time.Second, time.Millisecond)
	close(block)
	wg.Wait()
}

func TestPool_SubmitAfterCloseFails(t *testing.T) {
	p, err := New(&Config{Size: 1, MaxSize: 1, Logger: testLogger(t)})
	require.NoError(t, err)
	require.NoError(t, p.Close())

	err = p.Submit(func() {})
	require.ErrorIs(t, err, ErrClosed)
}

func TestPool_ReusesIdleWorkersRatherThanGrowingUnbounded(t *testing.T) {
	p, err := New(&Config{Size: 2, MaxSize: 2, Logger: testLogger(t)})
	require.NoError(t, err)
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
		}))
	}
	wg.Wait()

	require.Equal(t, 2, p.Size())
}
