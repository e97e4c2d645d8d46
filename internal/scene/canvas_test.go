package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/ghost/internal/geometry"
)

func TestCanvas_AddFindRemove(t *testing.T) {
	c := NewCanvas(800, 600)

	obj := Object{ID: NewID("text"), Kind: KindText, Center: geometry.Pt(10, 20), Width: 50, Height: 20, Text: "Hi"}
	require.NoError(t, c.Add(obj))
	assert.ErrorIs(t, c.Add(obj), ErrDuplicateID)
	assert.Error(t, c.Add(Object{}), "objects need an id")

	got, err := c.Find(obj.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hi", got.Text)

	require.NoError(t, c.Remove(obj.ID))
	_, err = c.Find(obj.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, c.Remove(obj.ID), ErrNotFound)
}

func TestCanvas_FindReturnsCopy(t *testing.T) {
	c := NewCanvas(800, 600)
	require.NoError(t, c.Add(Object{ID: "g", Kind: KindGroup, Shapes: []Shape{{Kind: ShapeRect, Fill: "red"}}}))

	got, err := c.Find("g")
	require.NoError(t, err)
	got.Shapes[0].Fill = "blue"
	got.Center = geometry.Pt(99, 99)

	again, _ := c.Find("g")
	assert.Equal(t, "red", again.Shapes[0].Fill)
	assert.Equal(t, geometry.Point{}, again.Center)
}

func TestCanvas_UpdateAndReplaceKeepOrder(t *testing.T) {
	c := NewCanvas(800, 600)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, c.Add(Object{ID: id, Kind: KindRect}))
	}

	require.NoError(t, c.Update("b", func(o *Object) {
		o.Center = geometry.Pt(5, 5)
		o.ID = "hijack"
	}))
	require.NoError(t, c.Replace("a", Object{ID: "other", Kind: KindGroup}))
	assert.ErrorIs(t, c.Update("zzz", func(*Object) {}), ErrNotFound)
	assert.ErrorIs(t, c.Replace("zzz", Object{}), ErrNotFound)

	objs := c.Objects()
	require.Len(t, objs, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{objs[0].ID, objs[1].ID, objs[2].ID})
	assert.Equal(t, KindGroup, objs[0].Kind)
	assert.Equal(t, geometry.Pt(5, 5), objs[1].Center)
}

func TestCanvas_ViewportSizeAndRender(t *testing.T) {
	c := NewCanvas(800, 600)
	var seen geometry.Transform
	c.OnViewportChange(func(t geometry.Transform) { seen = t })
	renders := 0
	c.OnRender(func() { renders++ })

	vp := geometry.NewViewport(2, -100, -50)
	c.SetViewport(vp)
	assert.Equal(t, vp, c.Viewport())
	assert.Equal(t, vp, seen)

	c.Resize(1024, 768)
	w, h := c.Size()
	assert.Equal(t, 1024.0, w)
	assert.Equal(t, 768.0, h)

	c.RequestRender()
	c.RequestRender()
	assert.Equal(t, 2, renders)
	assert.Equal(t, uint64(2), c.Renders())
}

func TestObject_Bounds(t *testing.T) {
	o := Object{Center: geometry.Pt(100, 100), Width: 40, Height: 20, ScaleX: 2, ScaleY: 0.5}
	assert.Equal(t, geometry.Rect{X: 60, Y: 95, Width: 80, Height: 10}, o.Bounds())

	unscaled := Object{Center: geometry.Pt(0, 0), Width: 10, Height: 10}
	w, h := unscaled.ScaledSize()
	assert.Equal(t, 10.0, w)
	assert.Equal(t, 10.0, h)
}

func TestNewID(t *testing.T) {
	a, b := NewID("svg"), NewID("svg")
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^svg_[0-9a-f]{20}$`, a)
}
