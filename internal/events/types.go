// internal/events/types.go
package events

import (
	"time"

	"github.com/xkilldash9x/ghost/internal/geometry"
)

// Type categorizes events on the bus.
type Type string

const (
	TypeCursor   Type = "CURSOR"   // Cursor position moved.
	TypeFlags    Type = "FLAGS"    // Thinking/acting/pressing changed.
	TypeLabel    Type = "LABEL"    // Activity label set or cleared.
	TypeMessage  Type = "MESSAGE"  // Displayed/spoken message set or expired.
	TypeChat     Type = "CHAT"     // Chat history entry appended.
	TypeLog      Type = "LOG"      // Activity log entry appended.
	TypeOverlay  Type = "OVERLAY"  // Overlay element created, changed, or removed.
	TypeAction   Type = "ACTION"   // Action lifecycle transition.
	TypeQueue    Type = "QUEUE"    // Queue length changed.
	TypeViewport Type = "VIEWPORT" // Viewport mirror updated.
)

// All lists every event type, for subscribers that want the full stream.
func All() []Type {
	return []Type{
		TypeCursor, TypeFlags, TypeLabel, TypeMessage, TypeChat,
		TypeLog, TypeOverlay, TypeAction, TypeQueue, TypeViewport,
	}
}

// Event is the envelope delivered to subscribers.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      Type      `json:"type"`
	Payload   any       `json:"payload"`
}

// Flags mirrors the cursor's boolean facets.
type Flags struct {
	Thinking bool `json:"thinking"`
	Acting   bool `json:"acting"`
	Pressing bool `json:"pressing"`
}

// CursorMoved carries a new cursor position in world coordinates.
type CursorMoved struct {
	Position geometry.Point `json:"position"`
}

// OverlayChange describes an overlay element mutation. Element is nil on removal.
type OverlayChange struct {
	ID      string `json:"id"`
	Removed bool   `json:"removed"`
	Element any    `json:"element,omitempty"`
}

// ActionUpdate reports an action lifecycle transition.
type ActionUpdate struct {
	ID     string `json:"id"`
	Tag    string `json:"tag"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
