package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "unknown"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,broken=lots%")

	assert.True(t, m.Enabled("always", 1))
	assert.True(t, m.Enabled("always", 0))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("broken", 1))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout evaluation must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", 0), "percentage rollout excludes anonymous callers")
}

func TestDefaults(t *testing.T) {
	m := NewManager("")
	assert.True(t, m.Enabled(OpenSignup, 0))
	assert.True(t, m.Enabled(ImageUploads, 0))
	assert.True(t, m.Enabled(IndexCache, 0))

	m = NewManager("Open_Signup=off, index_cache = false")
	assert.False(t, m.Enabled(OpenSignup, 0))
	assert.False(t, m.Enabled(IndexCache, 0))
	assert.True(t, m.Enabled(ImageUploads, 0))
	assert.Equal(t, "on", Defaults[OpenSignup], "overrides must not leak into Defaults")
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	assert.Len(t, raw, 3+len(Defaults))
	assert.Equal(t, "on", raw["x"])
	assert.Equal(t, "20%", raw["y"])
	assert.Equal(t, "off", raw["z"])

	snap := m.Snapshot(123)
	assert.Len(t, snap, 3+len(Defaults))
	assert.True(t, snap["x"])
	assert.False(t, snap["z"])
	assert.True(t, snap[OpenSignup])

	var nilManager *Manager
	assert.False(t, nilManager.Enabled("x", 1))
}
