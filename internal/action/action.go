// internal/action/action.go
package action

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xkilldash9x/ghost/internal/geometry"
)

// Tag is the discriminant of an Action.
type Tag string

const (
	TagMoveCursor   Tag = "MOVE_CURSOR"
	TagWriteText    Tag = "WRITE_TEXT"
	TagDrawPath     Tag = "DRAW_PATH"
	TagCreateSVG    Tag = "CREATE_SVG"
	TagEditSVG      Tag = "EDIT_SVG"
	TagCreateImage  Tag = "CREATE_IMAGE"
	TagRenderHTML   Tag = "RENDER_HTML"
	TagEditHTML     Tag = "EDIT_HTML"
	TagDeleteObject Tag = "DELETE_OBJECT"
	TagDragObject   Tag = "DRAG_OBJECT"
)

// Status is the lifecycle state of an Action.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusExecuting Status = "EXECUTING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Payload is the tag-specific body of an Action. The set of implementations
// is closed; see the types in payload.go.
type Payload interface {
	Tag() Tag
	isPayload()
}

// Targeted is implemented by payloads that address a world point directly
// rather than an existing object.
type Targeted interface {
	Payload
	Target() geometry.Point
}

// ObjectRef is implemented by payloads that address an existing scene object.
type ObjectRef interface {
	Payload
	Ref() string
}

// Action is one unit of agent intent.
type Action struct {
	ID        string
	Payload   Payload
	Status    Status
	CreatedAt time.Time
}

// New wraps a payload in a pending Action with a time-ordered id.
func New(p Payload) *Action {
	return &Action{
		ID:        newID(),
		Payload:   p,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// V7 only fails if the random source fails; fall back to V4.
		return "action_" + uuid.NewString()
	}
	return "action_" + id.String()
}

// Tag returns the payload's discriminant.
func (a *Action) Tag() Tag {
	if a == nil || a.Payload == nil {
		return ""
	}
	return a.Payload.Tag()
}

// IsComplex reports whether the action synthesizes or edits rich content.
// Complex actions receive a longer cognitive pause before the click.
func (a *Action) IsComplex() bool {
	switch a.Tag() {
	case TagRenderHTML, TagEditHTML:
		return true
	default:
		return false
	}
}

// MarkExecuting transitions PENDING -> EXECUTING.
func (a *Action) MarkExecuting() error {
	if a.Status != StatusPending {
		return fmt.Errorf("action %s: cannot start from status %s", a.ID, a.Status)
	}
	a.Status = StatusExecuting
	return nil
}

// Finish transitions EXECUTING -> COMPLETED or FAILED.
func (a *Action) Finish(err error) {
	if err != nil {
		a.Status = StatusFailed
		return
	}
	a.Status = StatusCompleted
}

func (a *Action) String() string {
	return fmt.Sprintf("%s[%s %s]", a.Tag(), a.ID, a.Status)
}
