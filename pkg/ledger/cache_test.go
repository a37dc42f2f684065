package ledger

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, enabled bool, ttl time.Duration, maxEntries int) (*ResponseCache, *time.Time) {
	t.Helper()
	c, err := NewResponseCache(enabled, ttl, maxEntries, log.NewStdLogger(os.Stdout))
	require.NoError(t, err)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }
	return c, &current
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, true, time.Minute, 10)

	c.Put("balance:alice", "1000")
	value, ok := c.Get("balance:alice")
	assert.True(t, ok)
	assert.Equal(t, "1000", value)
}

func TestCacheMiss_AbsentKey(t *testing.T) {
	c, _ := newTestCache(t, true, time.Minute, 10)

	value, ok := c.Get("never-stored")
	assert.False(t, ok)
	assert.Nil(t, value)
}

// An entry older than the TTL is deleted on read and reported as a miss.
func TestCacheExpiry_OnRead(t *testing.T) {
	c, clock := newTestCache(t, true, 60*time.Second, 10)

	c.Put("k", "v")

	*clock = clock.Add(30 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok, "entry still fresh at t=30s")

	*clock = clock.Add(31 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry expired at t=61s")
	assert.Equal(t, 0, c.Len(), "expired entry must be deleted")
}

// Under a pure-insert workload, capacity eviction drops the first-inserted
// key: inserting maxEntries+1 distinct keys leaves exactly maxEntries, with
// key 0 absent.
func TestCacheEviction_AtCapacity(t *testing.T) {
	const maxEntries = 5
	c, _ := newTestCache(t, true, time.Minute, maxEntries)

	for i := 0; i <= maxEntries; i++ {
		c.Put(fmt.Sprintf("key-%d", i), i)
	}

	assert.Equal(t, maxEntries, c.Len())
	_, ok := c.Get("key-0")
	assert.False(t, ok, "first-inserted key must have been evicted")
	for i := 1; i <= maxEntries; i++ {
		_, ok := c.Get(fmt.Sprintf("key-%d", i))
		assert.True(t, ok, "key-%d must survive", i)
	}
}

// The store is LRU, a deliberate upgrade over the insertion-order eviction
// of the original adapter: a recently read key survives overflow where pure
// FIFO would have dropped it.
func TestCacheEviction_LRUNotFIFO(t *testing.T) {
	const maxEntries = 3
	c, _ := newTestCache(t, true, time.Minute, maxEntries)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	// Touch the oldest-inserted key, then overflow.
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Put("d", 4)

	_, ok = c.Get("a")
	assert.True(t, ok, "recently read key survives under LRU")
	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used key is evicted instead")
}

func TestCacheDisabled_NoOp(t *testing.T) {
	c, _ := newTestCache(t, false, time.Minute, 10)

	c.Put("k", "v")
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	// Clear on a disabled cache must not panic.
	c.Clear()
}

func TestCacheClear_DropsEverything(t *testing.T) {
	c, _ := newTestCache(t, true, time.Minute, 10)

	c.Put("a", 1)
	c.Put("b", 2)
	require.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCacheDefaults_AppliedForZeroConfig(t *testing.T) {
	c, err := NewResponseCache(true, 0, 0, log.NewStdLogger(os.Stdout))
	require.NoError(t, err)
	assert.Equal(t, DefaultCacheTTL, c.ttl)
	assert.Equal(t, DefaultCacheMaxEntries, c.maxEntries)
}

// Equal operation and parameters always derive equal keys; different
// parameters never collide on the operation prefix.
func TestCacheKey_Deterministic(t *testing.T) {
	q1 := StateQuery{Method: "getBalance", Params: []any{"alice"}}
	q2 := StateQuery{Method: "getBalance", Params: []any{"alice"}}
	q3 := StateQuery{Method: "getBalance", Params: []any{"bob"}}

	k1, err := cacheKey("query_state", q1)
	require.NoError(t, err)
	k2, err := cacheKey("query_state", q2)
	require.NoError(t, err)
	k3, err := cacheKey("query_state", q3)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestCacheKey_NilParams(t *testing.T) {
	k, err := cacheKey("query_state", nil)
	require.NoError(t, err)
	assert.Equal(t, "query_state", k)
}

func TestCacheKey_UnserializableParams(t *testing.T) {
	_, err := cacheKey("query_state", map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}
