package render_target

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	label         string
	width, height int
	released      int
}

func (t *fakeTarget) Width() int  { return t.width }
func (t *fakeTarget) Height() int { return t.height }
func (t *fakeTarget) Release()    { t.released++ }

type fakeAllocator struct {
	created []*fakeTarget
	failOn  int
}

func (a *fakeAllocator) AllocateTarget(label string, w, h int) (Target, error) {
	if a.failOn > 0 && len(a.created)+1 == a.failOn {
		a.failOn = 0
		return nil, errors.New("no memory")
	}
	t := &fakeTarget{label: label, width: w, height: h}
	a.created = append(a.created, t)
	return t, nil
}

func TestEnsureTargetsCreatesPairOnce(t *testing.T) {
	alloc := &fakeAllocator{}
	m := NewManager(alloc)

	raw, acc, resized, err := m.EnsureTargets(640, 480)
	require.NoError(t, err)
	assert.True(t, resized)
	assert.Equal(t, 640, raw.Width())
	assert.Equal(t, 480, acc.Height())
	assert.NotSame(t, raw, acc)

	raw2, acc2, resized, err := m.EnsureTargets(640, 480)
	require.NoError(t, err)
	assert.False(t, resized)
	assert.Same(t, raw, raw2)
	assert.Same(t, acc, acc2)
	assert.Len(t, alloc.created, 2)
	assert.Equal(t, 1, m.Recreated())
}

func TestEnsureTargetsRecreatesOnResize(t *testing.T) {
	alloc := &fakeAllocator{}
	m := NewManager(alloc)
	_, _, _, err := m.EnsureTargets(640, 480)
	require.NoError(t, err)

	raw, acc, resized, err := m.EnsureTargets(800, 600)
	require.NoError(t, err)
	assert.True(t, resized)
	assert.Equal(t, 800, raw.Width())
	assert.Equal(t, 600, acc.Height())
	assert.Equal(t, 1, alloc.created[0].released)
	assert.Equal(t, 1, alloc.created[1].released)
	assert.Equal(t, 2, m.Recreated())
}

func TestEnsureTargetsZeroSize(t *testing.T) {
	alloc := &fakeAllocator{}
	m := NewManager(alloc)
	_, _, _, err := m.EnsureTargets(320, 200)
	require.NoError(t, err)

	for _, size := range [][2]int{{0, 200}, {320, 0}, {-1, -1}} {
		raw, acc, resized, err := m.EnsureTargets(size[0], size[1])
		assert.ErrorIs(t, err, ErrNoTarget)
		assert.Nil(t, raw)
		assert.Nil(t, acc)
		assert.False(t, resized)
	}
	assert.Zero(t, alloc.created[0].released, "a zero size releases nothing")

	// returning to the previous size keeps the existing pair
	_, _, resized, err := m.EnsureTargets(320, 200)
	require.NoError(t, err)
	assert.False(t, resized)
}

func TestEnsureTargetsAllocationFailure(t *testing.T) {
	alloc := &fakeAllocator{failOn: 2}
	m := NewManager(alloc)

	_, _, _, err := m.EnsureTargets(64, 64)
	require.Error(t, err)
	require.Len(t, alloc.created, 1)
	assert.Equal(t, 1, alloc.created[0].released, "half-created pair is released")

	_, _, resized, err := m.EnsureTargets(64, 64)
	require.NoError(t, err)
	assert.True(t, resized)

	m.Release()
	assert.Equal(t, 1, alloc.created[1].released)
	assert.Equal(t, 1, alloc.created[2].released)
}
