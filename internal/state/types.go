// internal/state/types.go
package state

import (
	"time"

	"github.com/xkilldash9x/ghost/internal/geometry"
)

const (
	// Greeting seeds the chat history of a fresh store.
	Greeting = "Ghost System V3.5 [ADVANCED_EDIT] active."
	// AbortMessage is published when the user aborts the running task.
	AbortMessage = "Task aborted by user."

	// MaxLogEntries bounds the activity log; the oldest entries fall off.
	MaxLogEntries = 50

	messageBaseTTL    = 5 * time.Second
	messagePerCharTTL = 50 * time.Millisecond
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Cursor is the simulated operator as presentation layers see it.
type Cursor struct {
	Position geometry.Point `json:"position"`
	Thinking bool           `json:"thinking"`
	Acting   bool           `json:"acting"`
	Pressing bool           `json:"pressing"`
	Label    string         `json:"label,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// OverlayElement is rich markup anchored to the world-space rectangle of a
// scene placeholder with the same id. X and Y locate the element's center.
type OverlayElement struct {
	ID       string  `json:"id"`
	HTML     string  `json:"html"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	Rotation float64 `json:"rotation"`
	ZIndex   int     `json:"zIndex"`
}

// Center returns the element's anchor point.
func (o OverlayElement) Center() geometry.Point {
	return geometry.Pt(o.X, o.Y)
}

// ChatMessage is one entry of the conversation history.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// LogEntry is one line of the activity log.
type LogEntry struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ReferenceImage is the most recently uploaded image, attached to the next
// planning request.
type ReferenceImage struct {
	Data     []byte
	MIMEType string
}

// View is a consistent copy of the store for presentation.
type View struct {
	Cursor   Cursor                    `json:"cursor"`
	Queue    int                       `json:"queue"`
	Overlays map[string]OverlayElement `json:"overlays"`
	Viewport geometry.Transform        `json:"viewport"`
	Messages []ChatMessage             `json:"messages"`
	Logs     []LogEntry                `json:"logs"`
}
