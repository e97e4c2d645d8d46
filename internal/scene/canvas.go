// internal/scene/canvas.go
package scene

import (
	"fmt"
	"sync"

	"github.com/xkilldash9x/ghost/internal/geometry"
)

// Scene is the scene-graph boundary the processor and bridge work against.
type Scene interface {
	Add(obj Object) error
	Remove(id string) error
	Replace(id string, obj Object) error
	Find(id string) (Object, error)
	Update(id string, fn func(*Object)) error
	Objects() []Object
	RequestRender()
	Viewport() geometry.Transform
	SetViewport(t geometry.Transform)
	Size() (width, height float64)
	Resize(width, height float64)
}

// Canvas is an in-memory Scene. Objects are kept in insertion (z) order.
type Canvas struct {
	mu       sync.RWMutex
	order    []string
	objects  map[string]*Object
	viewport geometry.Transform
	width    float64
	height   float64
	renders  uint64

	onViewport func(geometry.Transform)
	onRender   func()
}

// NewCanvas creates an empty canvas of the given logical pixel size.
func NewCanvas(width, height float64) *Canvas {
	return &Canvas{
		objects:  make(map[string]*Object),
		viewport: geometry.Identity,
		width:    width,
		height:   height,
	}
}

// OnViewportChange registers a callback invoked after every SetViewport.
func (c *Canvas) OnViewportChange(fn func(geometry.Transform)) {
	c.mu.Lock()
	c.onViewport = fn
	c.mu.Unlock()
}

// OnRender registers a callback invoked after every RequestRender.
func (c *Canvas) OnRender(fn func()) {
	c.mu.Lock()
	c.onRender = fn
	c.mu.Unlock()
}

func (c *Canvas) Add(obj Object) error {
	if obj.ID == "" {
		return fmt.Errorf("scene: object has no id")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.objects[obj.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, obj.ID)
	}
	o := obj.Clone()
	c.objects[o.ID] = &o
	c.order = append(c.order, o.ID)
	return nil
}

func (c *Canvas) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.objects[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(c.objects, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Replace swaps the object stored under id, keeping its z position. The
// replacement always carries id.
func (c *Canvas) Replace(id string, obj Object) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.objects[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	o := obj.Clone()
	o.ID = id
	c.objects[id] = &o
	return nil
}

func (c *Canvas) Find(id string) (Object, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.objects[id]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return o.Clone(), nil
}

// Update mutates an object in place under the canvas lock. fn must not call
// back into the canvas.
func (c *Canvas) Update(id string, fn func(*Object)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.objects[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(o)
	o.ID = id
	return nil
}

func (c *Canvas) Objects() []Object {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Object, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.objects[id].Clone())
	}
	return out
}

func (c *Canvas) RequestRender() {
	c.mu.Lock()
	c.renders++
	fn := c.onRender
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Renders returns how many redraws have been requested.
func (c *Canvas) Renders() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.renders
}

func (c *Canvas) Viewport() geometry.Transform {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewport
}

func (c *Canvas) SetViewport(t geometry.Transform) {
	c.mu.Lock()
	c.viewport = t
	fn := c.onViewport
	c.mu.Unlock()
	if fn != nil {
		fn(t)
	}
}

func (c *Canvas) Size() (float64, float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width, c.height
}

func (c *Canvas) Resize(width, height float64) {
	c.mu.Lock()
	c.width, c.height = width, height
	c.mu.Unlock()
}
