package utils_test

import (
	"fmt"
	"testing"
	"time"

	"pantry-server/src/utils"

	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	t.Run("should return the cached string value if valid", func(t *testing.T) {
		cache := utils.NewCache[string](time.Minute)
		cache.Set("key", "test value")

		value, found := cache.Get("key")
		assert.True(t, found)
		assert.Equal(t, "test value", value)
	})

	t.Run("should miss unknown keys", func(t *testing.T) {
		cache := utils.NewCache[string](time.Minute)

		value, found := cache.Get("missing")
		assert.False(t, found)
		assert.Equal(t, "", value)
	})

	t.Run("should return a zero value if the entry is expired", func(t *testing.T) {
		cache := utils.NewCache[string](10 * time.Millisecond)
		cache.Set("key", "test value")
		time.Sleep(30 * time.Millisecond)

		_, found := cache.Get("key")
		assert.False(t, found)
	})

	t.Run("should return the cached struct value if valid", func(t *testing.T) {
		type User struct {
			Name  string
			Email string
		}
		cache := utils.NewCache[User](time.Minute)
		user := User{Name: "John Doe", Email: "john@example.com"}
		cache.Set("john", user)

		value, found := cache.Get("john")
		assert.True(t, found)
		assert.Equal(t, user, value)
	})

	t.Run("should delete entries", func(t *testing.T) {
		cache := utils.NewCache[int](time.Minute)
		cache.Set("a", 1)
		cache.Delete("a")

		_, found := cache.Get("a")
		assert.False(t, found)
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("should purge expired entries once the cache grows", func(t *testing.T) {
		cache := utils.NewCache[int](10 * time.Millisecond)
		for i := 0; i < 1024; i++ {
			cache.Set(fmt.Sprintf("key-%d", i), i)
		}
		time.Sleep(30 * time.Millisecond)

		cache.Set("fresh", 1)
		assert.Equal(t, 1, cache.Len())
	})
}
