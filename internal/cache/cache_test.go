package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingObserver struct{ hits, misses int }

func (o *countingObserver) CacheHit()  { o.hits++ }
func (o *countingObserver) CacheMiss() { o.misses++ }

func TestNew_Disabled(t *testing.T) {
	assert.IsType(t, noopCache{}, New(false, 1, time.Second))
	assert.IsType(t, noopCache{}, New(true, 0, time.Second))

	c := New(false, 1, time.Second)
	c.Set("k", []byte("v"))
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestFreecache_SetGet(t *testing.T) {
	c := New(true, 1, 5*time.Second)
	assert.IsType(t, &Freecache{}, c)

	_, ok := c.Get("leaderboard")
	assert.False(t, ok)

	c.Set("leaderboard", []byte(`[]`))
	v, ok := c.Get("leaderboard")
	assert.True(t, ok)
	assert.Equal(t, []byte(`[]`), v)
}

func TestFreecache_SubSecondTTLRoundsUp(t *testing.T) {
	c := New(true, 1, 100*time.Millisecond).(*Freecache)
	assert.Equal(t, 1, c.ttl)
}

func TestWithObserver(t *testing.T) {
	obs := &countingObserver{}
	c := WithObserver(New(true, 1, time.Minute), obs)
	c.Get("k")
	c.Set("k", []byte("v"))
	c.Get("k")
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)

	off := WithObserver(New(false, 0, 0), obs)
	off.Get("k")
	assert.Equal(t, 1, obs.misses, "disabled cache is not instrumented")
}
