package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGet(t *testing.T) {
	c := New(time.Minute, time.Minute)

	c.Set("key", "value", time.Minute)
	got, found := c.Get("key")
	assert.True(t, found)
	assert.Equal(t, "value", got)

	_, found = c.Get("missing")
	assert.False(t, found)
}

func TestSetDefaultTTL(t *testing.T) {
	c := New(time.Minute, time.Minute)

	// Non-positive TTL falls back to the default instead of never expiring.
	c.Set("key", 1, 0)
	_, found := c.Get("key")
	assert.True(t, found)
}

func TestExpiry(t *testing.T) {
	c := New(time.Minute, time.Minute)

	c.Set("key", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, found := c.Get("key")
	assert.False(t, found)
}

func TestDeletePrefix(t *testing.T) {
	c := New(time.Minute, time.Minute)

	c.Set("dedupe:groups:a", 1, time.Minute)
	c.Set("dedupe:count", 2, time.Minute)
	c.Set("other:key", 3, time.Minute)

	c.DeletePrefix("dedupe:")

	_, found := c.Get("dedupe:groups:a")
	assert.False(t, found)
	_, found = c.Get("dedupe:count")
	assert.False(t, found)
	_, found = c.Get("other:key")
	assert.True(t, found)
}

func TestClear(t *testing.T) {
	c := New(time.Minute, time.Minute)
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	c.Clear()
	assert.Zero(t, c.ItemCount())
}
