package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	snapshots := []Transform{
		Identity,
		NewViewport(2.5, 120, -40),
		NewViewport(0.1, -3000, 900),
		{1.3, 0.2, -0.4, 0.9, 15, 7},
	}

	for _, snap := range snapshots {
		for i := 0; i < 200; i++ {
			p := Pt(rng.Float64()*4000-2000, rng.Float64()*4000-2000)
			back, err := ToWorld(ToScreen(p, snap), snap)
			require.NoError(t, err)
			assert.True(t, back.ApproxEqual(p, 1e-6), "round trip drifted: %v -> %v (snapshot %v)", p, back, snap)
		}
	}
}

func TestTransform_InvertSingular(t *testing.T) {
	_, err := Transform{0, 0, 0, 0, 10, 10}.Invert()
	assert.ErrorIs(t, err, ErrSingularTransform)

	_, err = ToWorld(Pt(1, 1), Transform{})
	assert.ErrorIs(t, err, ErrSingularTransform)
}

func TestTransform_InverseOfInverse(t *testing.T) {
	tr := Transform{2, 0.5, -1, 3, 40, -12}
	inv, err := tr.Invert()
	require.NoError(t, err)

	back, err := inv.Invert()
	require.NoError(t, err)
	for i := range back {
		assert.InDelta(t, tr[i], back[i], 1e-9)
	}
}

func TestToWorld_PanZoom(t *testing.T) {
	// Zoomed to 2x and panned 100px right: screen (300, 200) is world (100, 100).
	snap := NewViewport(2, 100, 0)
	w, err := ToWorld(Pt(300, 200), snap)
	require.NoError(t, err)
	assert.InDelta(t, 100, w.X, 1e-9)
	assert.InDelta(t, 100, w.Y, 1e-9)
}

func TestVisibleRegion(t *testing.T) {
	snap := NewViewport(2, -200, -100)
	r, err := VisibleRegion(snap, 800, 600)
	require.NoError(t, err)

	assert.InDelta(t, 100, r.X, 1e-9)
	assert.InDelta(t, 50, r.Y, 1e-9)
	assert.InDelta(t, 400, r.Width, 1e-9)
	assert.InDelta(t, 300, r.Height, 1e-9)
	assert.True(t, r.Contains(r.Center()))
}

func TestFromSlice(t *testing.T) {
	tr, err := FromSlice([]float64{1, 0, 0, 1, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, Transform{1, 0, 0, 1, 5, 6}, tr)

	_, err = FromSlice([]float64{1, 2})
	assert.Error(t, err)
}

func TestPoint_Helpers(t *testing.T) {
	a, b := Pt(0, 0), Pt(3, 4)
	assert.Equal(t, 5.0, a.Dist(b))
	assert.Equal(t, Pt(1.5, 2), a.Lerp(b, 0.5))
	assert.Equal(t, Point{}, Point{}.Normalize())
	assert.InDelta(t, 1.0, b.Normalize().Mag(), 1e-12)
	assert.InDelta(t, 0, b.Dot(b.Perp()), 1e-12)
	assert.False(t, math.IsNaN(a.Normalize().X))
}
