// Package memo caches the results of expensive calls keyed by their
// arguments.
//
// Arguments are encoded to canonical JSON (map keys sorted, numbers in
// their shortest form) and hashed with BLAKE3. Arguments that cannot be
// encoded, such as channels, functions or cyclic values, are rejected.
package memo

import (
	"context"
	"encoding/hex"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"
)

var logger = loggo.GetLogger("todosearch.memo")

// Key identifies one argument tuple.
type Key [32]byte

func (k Key) String() string {
	return hex.EncodeToString(k[:8])
}

// KeyOf returns the key for args. Two tuples get the same key exactly
// when their canonical encodings are equal.
func KeyOf(args ...any) (Key, error) {
	if args == nil {
		args = []any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return Key{}, errors.Annotate(err, "cannot encode memo key")
	}
	return blake3.Sum256(data), nil
}

// Cache memoizes a single function. Only successful results are stored;
// concurrent calls with the same arguments share one execution.
type Cache[V any] struct {
	entries *lru.Cache[Key, V]
	group   singleflight.Group
}

// New returns a cache holding at most size results. A size of zero
// disables storage but still coalesces concurrent calls.
func New[V any](size int) (*Cache[V], error) {
	if size < 0 {
		return nil, errors.NotValidf("negative cache size %d", size)
	}
	c := &Cache[V]{}
	if size > 0 {
		entries, err := lru.New[Key, V](size)
		if err != nil {
			return nil, errors.Trace(err)
		}
		c.entries = entries
	}
	return c, nil
}

// Do returns the cached result for args or runs fn to produce it.
//
// fn runs detached from the caller's cancellation so that callers
// sharing the execution are not failed by one of them giving up; a
// caller whose ctx ends stops waiting and gets ctx's error.
func (c *Cache[V]) Do(ctx context.Context, fn func(context.Context) (V, error), args ...any) (V, error) {
	var zero V
	key, err := KeyOf(args...)
	if err != nil {
		return zero, errors.Trace(err)
	}

	if c.entries != nil {
		if v, ok := c.entries.Get(key); ok {
			logger.Tracef("hit %s", key)
			return v, nil
		}
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(string(key[:]), func() (any, error) {
		v, err := fn(shared)
		if err != nil {
			return nil, err
		}
		if c.entries != nil {
			c.entries.Add(key, v)
		}
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	case <-ctx.Done():
		return zero, errors.Trace(ctx.Err())
	}
}

// Len returns the number of stored results.
func (c *Cache[V]) Len() int {
	if c.entries == nil {
		return 0
	}
	return c.entries.Len()
}

// Purge drops every stored result.
func (c *Cache[V]) Purge() {
	if c.entries != nil {
		c.entries.Purge()
	}
}

// Func wraps a unary function so that its results are memoized in c.
// c must not be shared with other functions.
func Func[A, V any](c *Cache[V], fn func(context.Context, A) (V, error)) func(context.Context, A) (V, error) {
	return func(ctx context.Context, arg A) (V, error) {
		return c.Do(ctx, func(ctx context.Context) (V, error) {
			return fn(ctx, arg)
		}, arg)
	}
}
