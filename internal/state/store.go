// internal/state/store.go
package state

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/ghost/internal/action"
	"github.com/xkilldash9x/ghost/internal/events"
	"github.com/xkilldash9x/ghost/internal/geometry"
	"github.com/xkilldash9x/ghost/internal/motion"
)

// Publisher receives every state change. It must not block.
type Publisher interface {
	Offer(t events.Type, payload any)
}

// Canceler is anything with pending work that an abort should stop, such as
// a speech synthesizer.
type Canceler interface {
	Cancel()
}

type nopPublisher struct{}

func (nopPublisher) Offer(events.Type, any) {}

// Store is the single owned container for the queue, cursor, overlays and
// conversation. All mutation goes through its methods, which also publish
// the change.
type Store struct {
	logger *zap.Logger
	pub    Publisher
	clock  motion.Clock

	mu        sync.RWMutex
	queue     action.Queue
	cursor    Cursor
	overlays  map[string]OverlayElement
	viewport  geometry.Transform
	messages  []ChatMessage
	logs      []LogEntry
	reference *ReferenceImage

	executing  *action.Action
	cancelExec context.CancelFunc

	// thinkGen identifies the outstanding planning round-trip. Abort bumps
	// it so a late round-trip can neither enqueue nor lower the flag.
	thinkGen    uint64
	cancelThink context.CancelFunc

	messageTimer motion.Timer
	messageSeq   uint64

	speaker Canceler
}

// NewStore creates an idle store. A nil publisher discards events; a nil
// clock uses wall time.
func NewStore(logger *zap.Logger, pub Publisher, clock motion.Clock) *Store {
	if pub == nil {
		pub = nopPublisher{}
	}
	if clock == nil {
		clock = motion.RealClock{}
	}
	return &Store{
		logger:   logger.Named("state"),
		pub:      pub,
		clock:    clock,
		overlays: make(map[string]OverlayElement),
		viewport: geometry.Identity,
		messages: []ChatMessage{{Role: RoleModel, Text: Greeting, Timestamp: clock.Now()}},
	}
}

// SetSpeaker registers the speech capability an abort must cancel.
func (s *Store) SetSpeaker(c Canceler) {
	s.mu.Lock()
	s.speaker = c
	s.mu.Unlock()
}

// -- Queue --

// Enqueue appends actions to the tail of the queue as one burst. It is safe
// to call at any time, including while an action executes.
func (s *Store) Enqueue(actions ...*action.Action) {
	s.enqueue(nil, actions)
}

// EnqueuePlan appends the actions produced by the planning round-trip that
// token identifies. It reports false, and enqueues nothing, when that
// round-trip has been aborted or has already ended.
func (s *Store) EnqueuePlan(token uint64, actions ...*action.Action) bool {
	return s.enqueue(func() bool { return s.ownsThinkingLocked(token) }, actions)
}

func (s *Store) enqueue(allowed func() bool, actions []*action.Action) bool {
	s.mu.Lock()
	if allowed != nil && !allowed() {
		s.mu.Unlock()
		return false
	}
	if len(actions) == 0 {
		s.mu.Unlock()
		return true
	}
	s.queue.EnqueueAll(actions...)
	n := s.queue.Len()
	s.cursor.Acting = true
	flags := s.flagsLocked()
	s.mu.Unlock()

	for _, a := range actions {
		s.pub.Offer(events.TypeAction, actionUpdate(a, nil))
	}
	s.pub.Offer(events.TypeQueue, n)
	s.pub.Offer(events.TypeFlags, flags)
	return true
}

// QueueLen returns the number of pending actions.
func (s *Store) QueueLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queue.Len()
}

// Pending returns a copy of the pending actions in order.
func (s *Store) Pending() []*action.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queue.Snapshot()
}

// Claim pops the head of the queue if nothing is executing, marking it
// EXECUTING. The returned context is cancelled by Abort or Finish.
func (s *Store) Claim(parent context.Context) (*action.Action, context.Context, bool) {
	s.mu.Lock()
	if s.executing != nil {
		s.mu.Unlock()
		return nil, nil, false
	}
	a, err := s.queue.Dequeue()
	if err != nil {
		s.mu.Unlock()
		return nil, nil, false
	}
	if err := a.MarkExecuting(); err != nil {
		s.mu.Unlock()
		s.logger.Error("Dequeued action in unexpected state.", zap.String("action", a.String()), zap.Error(err))
		return nil, nil, false
	}
	ctx, cancel := context.WithCancel(parent)
	s.executing = a
	s.cancelExec = cancel
	s.cursor.Acting = true
	n := s.queue.Len()
	flags := s.flagsLocked()
	s.mu.Unlock()

	s.pub.Offer(events.TypeAction, actionUpdate(a, nil))
	s.pub.Offer(events.TypeQueue, n)
	s.pub.Offer(events.TypeFlags, flags)
	return a, ctx, true
}

// Finish terminates the executing action. A nil err completes it; anything
// else fails it. Finish for an action that is not the executing one is ignored.
func (s *Store) Finish(a *action.Action, err error) {
	s.mu.Lock()
	if s.executing != a {
		s.mu.Unlock()
		return
	}
	a.Finish(err)
	s.cancelExec()
	s.executing = nil
	s.cancelExec = nil
	s.cursor.Acting = s.queue.Len() > 0
	s.cursor.Pressing = false
	flags := s.flagsLocked()
	s.mu.Unlock()

	s.pub.Offer(events.TypeAction, actionUpdate(a, err))
	s.pub.Offer(events.TypeFlags, flags)
}

// Executing returns the in-flight action, if any.
func (s *Store) Executing() *action.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.executing
}

// Halted reports whether the queue is empty and nothing is acting. Running
// animations poll it once per frame and stop early when it turns true.
func (s *Store) Halted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queue.Len() == 0 && !s.cursor.Acting
}

// Abort drops every pending action, cancels the in-flight one and any
// pending speech, resets the busy indicators and publishes AbortMessage.
// Calling it repeatedly leaves the same state.
func (s *Store) Abort() {
	s.mu.Lock()
	dropped := s.queue.Clear()
	if s.cancelExec != nil {
		s.cancelExec()
	}
	if s.cancelThink != nil {
		s.cancelThink()
		s.cancelThink = nil
	}
	s.thinkGen++
	s.cursor.Thinking = false
	s.cursor.Acting = false
	s.cursor.Pressing = false
	s.cursor.Label = ""
	flags := s.flagsLocked()
	speaker := s.speaker
	s.mu.Unlock()

	if speaker != nil {
		speaker.Cancel()
	}
	s.logger.Info("Task aborted.", zap.Int("dropped", dropped))
	s.pub.Offer(events.TypeQueue, 0)
	s.pub.Offer(events.TypeFlags, flags)
	s.pub.Offer(events.TypeLabel, "")
	s.SetMessage(AbortMessage)
}

// -- Cursor --

// Cursor returns a copy of the cursor state.
func (s *Store) Cursor() Cursor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// SetCursor moves the cursor.
func (s *Store) SetCursor(p geometry.Point) {
	s.mu.Lock()
	s.cursor.Position = p
	s.mu.Unlock()
	s.pub.Offer(events.TypeCursor, events.CursorMoved{Position: p})
}

// SetPressing sets the transient click indicator.
func (s *Store) SetPressing(pressing bool) {
	s.mu.Lock()
	s.cursor.Pressing = pressing
	flags := s.flagsLocked()
	s.mu.Unlock()
	s.pub.Offer(events.TypeFlags, flags)
}

// SetLabel sets the activity label. An empty label clears it.
func (s *Store) SetLabel(label string) {
	s.mu.Lock()
	s.cursor.Label = label
	s.mu.Unlock()
	s.pub.Offer(events.TypeLabel, label)
}

// BeginThinking raises the thinking flag unless it is already raised. When
// the caller now owns the planning round-trip it gets a context that Abort
// cancels and a token for EndThinking and EnqueuePlan.
func (s *Store) BeginThinking(parent context.Context) (context.Context, uint64, bool) {
	s.mu.Lock()
	if s.cursor.Thinking {
		s.mu.Unlock()
		return nil, 0, false
	}
	ctx, cancel := context.WithCancel(parent)
	s.thinkGen++
	token := s.thinkGen
	s.cancelThink = cancel
	s.cursor.Thinking = true
	flags := s.flagsLocked()
	s.mu.Unlock()
	s.pub.Offer(events.TypeFlags, flags)
	return ctx, token, true
}

// OwnsThinking reports whether token still identifies the outstanding
// round-trip.
func (s *Store) OwnsThinking(token uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownsThinkingLocked(token)
}

func (s *Store) ownsThinkingLocked(token uint64) bool {
	return s.cursor.Thinking && s.thinkGen == token
}

// EndThinking lowers the thinking flag raised for token. A stale token is
// ignored so an aborted round-trip cannot release a newer one.
func (s *Store) EndThinking(token uint64) {
	s.mu.Lock()
	if !s.ownsThinkingLocked(token) {
		s.mu.Unlock()
		return
	}
	s.cancelThink()
	s.cancelThink = nil
	s.cursor.Thinking = false
	flags := s.flagsLocked()
	s.mu.Unlock()
	s.pub.Offer(events.TypeFlags, flags)
}

// SetMessage displays a short message. It clears itself after a read time
// proportional to its length unless replaced first.
func (s *Store) SetMessage(msg string) {
	s.mu.Lock()
	s.cursor.Message = msg
	s.messageSeq++
	seq := s.messageSeq
	if s.messageTimer != nil {
		s.messageTimer.Stop()
		s.messageTimer = nil
	}
	if msg != "" {
		ttl := messageBaseTTL + messagePerCharTTL*time.Duration(len(msg))
		s.messageTimer = s.clock.AfterFunc(ttl, func() { s.expireMessage(seq) })
	}
	s.mu.Unlock()
	s.pub.Offer(events.TypeMessage, msg)
}

func (s *Store) expireMessage(seq uint64) {
	s.mu.Lock()
	if s.messageSeq != seq {
		s.mu.Unlock()
		return
	}
	s.cursor.Message = ""
	s.messageTimer = nil
	s.mu.Unlock()
	s.pub.Offer(events.TypeMessage, "")
}

func (s *Store) flagsLocked() events.Flags {
	return events.Flags{Thinking: s.cursor.Thinking, Acting: s.cursor.Acting, Pressing: s.cursor.Pressing}
}

// -- Overlays --

// PutOverlay creates or replaces an overlay element.
func (s *Store) PutOverlay(el OverlayElement) {
	s.mu.Lock()
	s.overlays[el.ID] = el
	s.mu.Unlock()
	s.pub.Offer(events.TypeOverlay, events.OverlayChange{ID: el.ID, Element: el})
}

// UpdateOverlay applies fn to an existing element and reports whether it existed.
func (s *Store) UpdateOverlay(id string, fn func(*OverlayElement)) bool {
	s.mu.Lock()
	el, ok := s.overlays[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	fn(&el)
	el.ID = id
	s.overlays[id] = el
	s.mu.Unlock()
	s.pub.Offer(events.TypeOverlay, events.OverlayChange{ID: id, Element: el})
	return true
}

// RemoveOverlay deletes an element and reports whether it existed.
func (s *Store) RemoveOverlay(id string) bool {
	s.mu.Lock()
	_, ok := s.overlays[id]
	delete(s.overlays, id)
	s.mu.Unlock()
	if ok {
		s.pub.Offer(events.TypeOverlay, events.OverlayChange{ID: id, Removed: true})
	}
	return ok
}

// Overlay looks up one element.
func (s *Store) Overlay(id string) (OverlayElement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.overlays[id]
	return el, ok
}

// Overlays returns a copy of the overlay map.
func (s *Store) Overlays() map[string]OverlayElement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyOverlaysLocked()
}

func (s *Store) copyOverlaysLocked() map[string]OverlayElement {
	out := make(map[string]OverlayElement, len(s.overlays))
	for k, v := range s.overlays {
		out[k] = v
	}
	return out
}

// -- Viewport, conversation, reference image --

// SetViewport mirrors the scene's current pan/zoom for presentation.
func (s *Store) SetViewport(t geometry.Transform) {
	s.mu.Lock()
	s.viewport = t
	s.mu.Unlock()
	s.pub.Offer(events.TypeViewport, t)
}

// Viewport returns the mirrored pan/zoom.
func (s *Store) Viewport() geometry.Transform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

// AddMessage appends to the chat history.
func (s *Store) AddMessage(role Role, text string) {
	msg := ChatMessage{Role: role, Text: text, Timestamp: s.clock.Now()}
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.pub.Offer(events.TypeChat, msg)
}

// Messages returns a copy of the chat history.
func (s *Store) Messages() []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// AddLog prepends to the activity log, keeping the newest MaxLogEntries.
func (s *Store) AddLog(text string) {
	entry := LogEntry{Text: text, Timestamp: s.clock.Now()}
	s.mu.Lock()
	logs := make([]LogEntry, 0, min(len(s.logs)+1, MaxLogEntries))
	logs = append(logs, entry)
	logs = append(logs, s.logs...)
	if len(logs) > MaxLogEntries {
		logs = logs[:MaxLogEntries]
	}
	s.logs = logs
	s.mu.Unlock()
	s.pub.Offer(events.TypeLog, entry)
}

// Logs returns the activity log, newest first.
func (s *Store) Logs() []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// SetLastUploadedImage stores a reference image for the next planning
// request. A nil image clears it.
func (s *Store) SetLastUploadedImage(img *ReferenceImage) {
	s.mu.Lock()
	s.reference = img
	s.mu.Unlock()
}

// LastUploadedImage returns the stored reference image, or nil.
func (s *Store) LastUploadedImage() *ReferenceImage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reference
}

// View returns a consistent copy of the presentation-relevant state.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := View{
		Cursor:   s.cursor,
		Queue:    s.queue.Len(),
		Overlays: s.copyOverlaysLocked(),
		Viewport: s.viewport,
		Messages: make([]ChatMessage, len(s.messages)),
		Logs:     make([]LogEntry, len(s.logs)),
	}
	copy(v.Messages, s.messages)
	copy(v.Logs, s.logs)
	return v
}

// Close stops the message expiry timer.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.messageTimer != nil {
		s.messageTimer.Stop()
		s.messageTimer = nil
	}
}

func actionUpdate(a *action.Action, err error) events.ActionUpdate {
	u := events.ActionUpdate{ID: a.ID, Tag: string(a.Tag()), Status: string(a.Status)}
	if err != nil {
		u.Error = err.Error()
	}
	return u
}
