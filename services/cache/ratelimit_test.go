package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mapCache struct {
	data map[string][]byte
}

var _ CacheService = (*mapCache)(nil)

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (m *mapCache) Get(key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (m *mapCache) Set(key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mapCache) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(newMapCache(), 5*time.Minute)

	assert.False(t, rl.IsLimited("www.amazon.com"))

	assert.NoError(t, rl.MarkLimited("www.amazon.com"))
	assert.True(t, rl.IsLimited("www.amazon.com"))
	assert.False(t, rl.IsLimited("www.ebay.com"))

	assert.NoError(t, rl.Clear("www.amazon.com"))
	assert.False(t, rl.IsLimited("www.amazon.com"))
}

func TestRateLimiterNilCache(t *testing.T) {
	rl := NewRateLimiter(nil, time.Minute)

	assert.NoError(t, rl.MarkLimited("www.amazon.com"))
	assert.False(t, rl.IsLimited("www.amazon.com"))
}
