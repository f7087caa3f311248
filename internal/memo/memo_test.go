package memo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	calls atomic.Int32
}

func (c *counter) add(a, b int) func(context.Context) (int, error) {
	return func(context.Context) (int, error) {
		c.calls.Add(1)
		return a + b, nil
	}
}

func TestDoReturnsResult(t *testing.T) {
	c, err := New[int](8)
	require.NoError(t, err)
	var cnt counter

	v, err := c.Do(context.Background(), cnt.add(2, 3), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	v, err = c.Do(context.Background(), cnt.add(10, 7), 10, 7)
	require.NoError(t, err)
	assert.Equal(t, 17, v)
}

func TestRepeatedCallsHitCache(t *testing.T) {
	c, err := New[int](8)
	require.NoError(t, err)
	var cnt counter

	for range 3 {
		v, err := c.Do(context.Background(), cnt.add(4, 4), 4)
		require.NoError(t, err)
		assert.Equal(t, 8, v)
	}
	assert.Equal(t, int32(1), cnt.calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestArgumentOrderMatters(t *testing.T) {
	c, err := New[int](8)
	require.NoError(t, err)
	var cnt counter

	_, _ = c.Do(context.Background(), cnt.add(2, 3), 2, 3)
	_, _ = c.Do(context.Background(), cnt.add(3, 2), 3, 2)
	_, _ = c.Do(context.Background(), cnt.add(2, 3), 2, 3)

	assert.Equal(t, int32(2), cnt.calls.Load())
}

func TestFuncWrapsUnaryFunction(t *testing.T) {
	c, err := New[string](8)
	require.NoError(t, err)
	var calls atomic.Int32
	greet := Func(c, func(_ context.Context, name string) (string, error) {
		calls.Add(1)
		return "Hello, " + name, nil
	})

	for _, name := range []string{"Alice", "Alice", "Bob"} {
		v, err := greet(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, "Hello, "+name, v)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestErrorsAreNotCached(t *testing.T) {
	c, err := New[int](8)
	require.NoError(t, err)
	var calls atomic.Int32
	flaky := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, errors.New("transient")
		}
		return 42, nil
	}

	_, err = c.Do(context.Background(), flaky, "q")
	assert.ErrorContains(t, err, "transient")

	v, err := c.Do(context.Background(), flaky, "q")
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLeastRecentlyUsedIsEvicted(t *testing.T) {
	c, err := New[int](1)
	require.NoError(t, err)
	var cnt counter

	_, _ = c.Do(context.Background(), cnt.add(1, 0), 1)
	_, _ = c.Do(context.Background(), cnt.add(2, 0), 2)
	_, _ = c.Do(context.Background(), cnt.add(1, 0), 1)

	assert.Equal(t, int32(3), cnt.calls.Load())
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestZeroSizeDisablesStorage(t *testing.T) {
	c, err := New[int](0)
	require.NoError(t, err)
	var cnt counter

	_, _ = c.Do(context.Background(), cnt.add(1, 1), 1)
	_, _ = c.Do(context.Background(), cnt.add(1, 1), 1)

	assert.Equal(t, int32(2), cnt.calls.Load())
	assert.Zero(t, c.Len())
}

func TestNegativeSizeIsRejected(t *testing.T) {
	_, err := New[int](-1)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestConcurrentCallsShareExecution(t *testing.T) {
	c, err := New[int](8)
	require.NoError(t, err)

	var calls atomic.Int32
	gate := make(chan struct{})
	slow := func(context.Context) (int, error) {
		calls.Add(1)
		<-gate
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Do(context.Background(), slow, "same")
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []int{7, 7, 7, 7, 7}, results)
}

func TestCancelledCallerStopsWaiting(t *testing.T) {
	c, err := New[int](8)
	require.NoError(t, err)

	gate := make(chan struct{})
	defer close(gate)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Do(ctx, func(fctx context.Context) (int, error) {
		assert.NoError(t, fctx.Err())
		<-gate
		return 1, nil
	}, "blocked")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeyOfIsCanonical(t *testing.T) {
	a := map[string]int{}
	a["x"] = 1
	a["y"] = 2
	b := map[string]int{}
	b["y"] = 2
	b["x"] = 1

	ka, err := KeyOf(a, 1.5)
	require.NoError(t, err)
	kb, err := KeyOf(b, 1.5)
	require.NoError(t, err)
	assert.Equal(t, ka, kb)

	kc, err := KeyOf(b, 2.5)
	require.NoError(t, err)
	assert.NotEqual(t, ka, kc)

	empty, err := KeyOf()
	require.NoError(t, err)
	assert.Len(t, fmt.Sprint(empty), 16)
}

func TestUnencodableArgumentsAreRejected(t *testing.T) {
	c, err := New[int](8)
	require.NoError(t, err)
	var cnt counter

	_, err = c.Do(context.Background(), cnt.add(0, 0), make(chan int))
	assert.ErrorContains(t, err, "cannot encode memo key")
	assert.Zero(t, cnt.calls.Load())
}
