package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesApply(t *testing.T) {
	rules := Rules{
		{Prefix: "event/", Priority: 20, TTL: 10 * time.Second},
		{Prefix: "/event/1/live/", Priority: 10, Mode: NetworkFirstStale, HasMode: true},
		{Prefix: "entry/", Priority: 30, NoCache: true},
	}.Sorted()

	def := CacheSpec{TTL: time.Minute, Mode: CacheFirst}

	spec := rules.Apply("event/1/live/", def)
	require.NotNil(t, spec)
	assert.Equal(t, time.Minute, spec.TTL, "higher priority rule without ttl keeps default")
	assert.Equal(t, NetworkFirstStale, spec.Mode)

	spec = rules.Apply("event/2/live/", def)
	require.NotNil(t, spec)
	assert.Equal(t, 10*time.Second, spec.TTL)
	assert.Equal(t, CacheFirst, spec.Mode)

	assert.Nil(t, rules.Apply("entry/42/", def))

	spec = rules.Apply("bootstrap-static/", def)
	require.NotNil(t, spec)
	assert.Equal(t, def, *spec)
}
