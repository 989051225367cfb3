package vkng

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GymliDanny/rune-engine/render/vulkan/driver"
)

type object struct {
	name string
}

func TestRegistryLifecycle(t *testing.T) {
	var r registry[object]

	a := r.add(object{"a"})
	b := r.add(object{"b"})
	assert.NotZero(t, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.len())

	got, ok := r.get(a)
	require.True(t, ok)
	assert.Equal(t, "a", got.name)

	removed, ok := r.remove(a)
	require.True(t, ok)
	assert.Equal(t, "a", removed.name)
	_, ok = r.get(a)
	assert.False(t, ok)
	assert.Equal(t, 1, r.len())

	_, ok = r.remove(a)
	assert.False(t, ok, "second remove")
}

func TestRegistryNullHandle(t *testing.T) {
	var r registry[object]
	r.add(object{"a"})

	_, ok := r.get(0)
	assert.False(t, ok)
	assert.Equal(t, object{}, r.must(0))
	assert.Equal(t, object{}, r.must(99))
}

func TestRegistryHandlesNotReused(t *testing.T) {
	var r registry[object]
	a := r.add(object{"a"})
	r.remove(a)
	assert.NotEqual(t, a, r.add(object{"b"}))
}

func TestRegistryAll(t *testing.T) {
	var r registry[object]
	a := driver.Fence(r.add(object{"a"}))
	b := driver.Fence(r.add(object{"b"}))

	got := all(&r, []driver.Fence{b, 0, a, 42})
	assert.Equal(t, []object{{"b"}, {"a"}}, got)
	assert.Empty(t, all(&r, []driver.Fence(nil)))
}

func TestRegistryConcurrentAdd(t *testing.T) {
	var r registry[int]
	var wg sync.WaitGroup
	handles := make([]uint64, 64)
	for i := range handles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i] = r.add(i)
		}()
	}
	wg.Wait()

	seen := map[uint64]bool{}
	for _, h := range handles {
		assert.False(t, seen[h], "handle %d issued twice", h)
		seen[h] = true
	}
	assert.Equal(t, len(handles), r.len())
}
