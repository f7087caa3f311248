package rx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeDestroyRunsTeardownsOnce(t *testing.T) {
	scope := NewScope()
	s := NewSubject[int]()
	var rec recorder[int]
	var order []string

	scope.Add(s.Subscribe(rec.add))
	scope.OnDestroy(func() { order = append(order, "first") })
	scope.OnDestroy(func() { order = append(order, "second") })

	s.Next(1)
	scope.Destroy()
	scope.Destroy()
	s.Next(2)

	assert.Equal(t, []int{1}, rec.values)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.True(t, scope.Destroyed())
	select {
	case <-scope.Done():
	default:
		t.Fatal("Done should be closed after Destroy")
	}
}

func TestScopeOnDestroyAfterDestroyRunsImmediately(t *testing.T) {
	scope := NewScope()
	scope.Destroy()

	ran := false
	scope.OnDestroy(func() { ran = true })
	sub := NewSubscription(nil)
	scope.Add(sub)

	assert.True(t, ran)
	assert.True(t, sub.Closed())
}

func TestScopeBindContext(t *testing.T) {
	scope := NewScope()
	ctx, cancel := context.WithCancel(context.Background())
	scope.BindContext(ctx)

	fired := make(chan struct{})
	scope.OnDestroy(func() { close(fired) })
	cancel()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scope was not destroyed by context cancellation")
	}
	require.True(t, scope.Destroyed())
}
