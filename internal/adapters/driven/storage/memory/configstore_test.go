package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("feeds.otx.api_key", "secret"))

	val, ok := store.Get("feeds.otx.api_key")
	assert.True(t, ok)
	assert.Equal(t, "secret", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStoreWith(map[string]any{
		"str":       "value",
		"int":       42,
		"int64":     int64(7),
		"float":     3.9,
		"bool":      true,
		"strings":   []string{"a", "b"},
		"anys":      []any{"url", 3, "filepath"},
		"wrongtype": 12,
	})

	assert.Equal(t, "value", store.GetString("str"))
	assert.Equal(t, "", store.GetString("wrongtype"))
	assert.Equal(t, "", store.GetString("missing"))

	assert.Equal(t, 42, store.GetInt("int"))
	assert.Equal(t, 7, store.GetInt("int64"))
	assert.Equal(t, 3, store.GetInt("float"))
	assert.Equal(t, 0, store.GetInt("str"))

	assert.True(t, store.GetBool("bool"))
	assert.False(t, store.GetBool("str"))

	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("strings"))
	assert.Equal(t, []string{"url", "filepath"}, store.GetStringSlice("anys"))
	assert.Nil(t, store.GetStringSlice("str"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_GetStringMap(t *testing.T) {
	store := NewConfigStoreWith(map[string]any{
		"feeds.otx.type_map.FileHash-MD5": "hash:md5",
		"feeds.otx.type_map.Hostname":     "domain",
		"feeds.otx.type_map.bogus":        5,
		"feeds.otx.type_mapping":          "not under the prefix",
		"feeds.otx.api_key":               "k",
	})

	got := store.GetStringMap("feeds.otx.type_map")

	assert.Equal(t, map[string]string{
		"FileHash-MD5": "hash:md5",
		"Hostname":     "domain",
	}, got)
	assert.Empty(t, store.GetStringMap("feeds.threatfox"))
}

func TestConfigStore_NoOps(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "key." + string(rune('A'+id))
			_ = store.Set(key, "v")
			_ = store.GetString(key)
			_ = store.GetStringMap("key")
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.GetStringMap("key"), 50)
}
