package variables

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGet(t *testing.T) {
	store := NewStore(nil)
	store.Set("username", "john")
	store.Set("token", "abc123")

	value, ok := store.Get("username")
	require.True(t, ok, "expected to find 'username' key")
	assert.Equal(t, "john", value)

	value, ok = store.Get("token")
	require.True(t, ok, "expected to find 'token' key")
	assert.Equal(t, "abc123", value)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewStore(nil)
	store.Set("username", "john")

	value, ok := store.Get("missing_key")
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestMemoryStore_GetAll(t *testing.T) {
	store := NewStore(nil)
	store.Set("username", "john")
	store.Set("token", "abc123")
	store.Set("id", "42")

	all := store.GetAll()
	assert.Equal(t, map[string]string{
		"username": "john",
		"token":    "abc123",
		"id":       "42",
	}, all)

	// The returned map is a copy.
	all["username"] = "modified"
	value, _ := store.Get("username")
	assert.Equal(t, "john", value, "store was affected by modification to returned map")
}

func TestNewStoreSeeds(t *testing.T) {
	seed := map[string]string{KeyJobNumber: "12345"}
	store := NewStore(seed)
	seed[KeyJobNumber] = "changed"

	value, ok := store.Get(KeyJobNumber)
	require.True(t, ok)
	assert.Equal(t, "12345", value)
}

func TestLookup(t *testing.T) {
	assert.Equal(t, "fallback", Lookup(context.Background(), KeyJobNumber, "fallback"), "no store")

	store := NewStore(nil)
	ctx := NewContext(context.Background(), store)
	assert.Equal(t, "fallback", Lookup(ctx, KeyJobNumber, "fallback"), "missing key")

	store.Set(KeyJobNumber, "")
	assert.Equal(t, "fallback", Lookup(ctx, KeyJobNumber, "fallback"), "empty value")

	store.Set(KeyJobNumber, "J-42")
	assert.Equal(t, "J-42", Lookup(ctx, KeyJobNumber, "fallback"))
}

func TestFromContextWithoutStore(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}

func TestMemoryStore_Clear(t *testing.T) {
	store := NewStore(nil)
	store.Set("username", "john")
	store.Set("token", "abc123")
	store.Set("id", "42")
	require.Len(t, store.GetAll(), 3)

	store.Clear()

	assert.Empty(t, store.GetAll())
	_, ok := store.Get("username")
	assert.False(t, ok)
}
