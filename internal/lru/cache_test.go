package lru

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_GetPut(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1, time.Time{})
	c.Put("b", 2, time.Time{})

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1, time.Time{})
	c.Put("b", 2, time.Time{})
	c.Get("a")

	assert.True(t, c.Put("c", 3, time.Time{}))
	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestCache_UpdateDoesNotEvict(t *testing.T) {
	c := New[string, int](1)
	c.Put("a", 1, time.Time{})
	assert.False(t, c.Put("a", 2, time.Time{}))
	v, _ := c.Get("a")
	assert.Equal(t, 2, v)
}

func TestCache_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New[string, string](4)
	c.SetClock(func() time.Time { return now })

	c.Put("tok", "user-1", now.Add(time.Minute))
	_, ok := c.Get("tok")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get("tok")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Delete(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1, time.Time{})
	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
}

func TestCache_PanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { New[string, int](0) })
}
