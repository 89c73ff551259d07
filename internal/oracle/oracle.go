// Package oracle answers "is this string a valid word". The backing
// implementation may be a remote service or an embedded dictionary; callers
// always go through the cache, which normalizes words and fails closed.
package oracle

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type Validator interface {
	Validate(ctx context.Context, word string) (bool, error)
}

// Func adapts a plain function, mostly for tests.
type Func func(ctx context.Context, word string) (bool, error)

func (f Func) Validate(ctx context.Context, word string) (bool, error) {
	return f(ctx, word)
}

// Cache memoizes verdicts by uppercased word. An inner failure is logged and
// cached as negative so one flaky word cannot hammer the oracle for the rest
// of the session.
type Cache struct {
	inner Validator
	log   *zap.Logger

	mu      sync.Mutex
	results map[string]bool
}

func NewCache(inner Validator, log *zap.Logger) *Cache {
	return &Cache{inner: inner, log: log, results: make(map[string]bool)}
}

func (c *Cache) Validate(ctx context.Context, word string) (bool, error) {
	key := strings.ToUpper(word)

	c.mu.Lock()
	if v, ok := c.results[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	valid, err := c.inner.Validate(ctx, key)
	if err != nil {
		c.log.Warn("oracle call failed, treating word as invalid",
			zap.String("word", key), zap.Error(err))
		valid = false
	}

	c.mu.Lock()
	c.results[key] = valid
	c.mu.Unlock()
	return valid, nil
}
