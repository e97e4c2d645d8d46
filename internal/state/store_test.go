package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/ghost/internal/action"
	"github.com/xkilldash9x/ghost/internal/events"
	"github.com/xkilldash9x/ghost/internal/geometry"
	"github.com/xkilldash9x/ghost/internal/motion"
)

// recorder captures published events in order.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Offer(t events.Type, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events.Event{Type: t, Payload: payload})
}

func (r *recorder) ofType(t events.Type) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev.Payload)
		}
	}
	return out
}

type countingCanceler struct{ n int }

func (c *countingCanceler) Cancel() { c.n++ }

func newTestStore(t *testing.T) (*Store, *recorder, *motion.ManualClock) {
	t.Helper()
	rec := &recorder{}
	clock := motion.NewManualClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewStore(zaptest.NewLogger(t), rec, clock)
	t.Cleanup(s.Close)
	return s, rec, clock
}

func TestStore_StartsIdleWithGreeting(t *testing.T) {
	s, _, _ := newTestStore(t)

	c := s.Cursor()
	assert.False(t, c.Thinking)
	assert.False(t, c.Acting)
	assert.False(t, c.Pressing)
	assert.True(t, s.Halted())
	assert.Equal(t, geometry.Identity, s.Viewport())

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleModel, msgs[0].Role)
	assert.Equal(t, Greeting, msgs[0].Text)
}

func TestStore_ClaimEnforcesSingleExecuting(t *testing.T) {
	s, rec, _ := newTestStore(t)
	a1 := action.New(action.MoveCursor{X: 1})
	a2 := action.New(action.MoveCursor{X: 2})
	s.Enqueue(a1, a2)
	assert.True(t, s.Cursor().Acting)

	got, ctx, ok := s.Claim(context.Background())
	require.True(t, ok)
	assert.Same(t, a1, got)
	assert.Equal(t, action.StatusExecuting, got.Status)
	require.NotNil(t, ctx)

	_, _, ok = s.Claim(context.Background())
	assert.False(t, ok, "a second claim must wait for Finish")
	assert.False(t, s.Halted(), "queue empty but action in flight is not halted")

	s.Finish(a1, nil)
	assert.Equal(t, action.StatusCompleted, a1.Status)
	assert.Error(t, ctx.Err(), "per-action context is released on Finish")
	assert.True(t, s.Cursor().Acting, "one action still pending")

	got, _, ok = s.Claim(context.Background())
	require.True(t, ok)
	assert.Same(t, a2, got)
	s.Finish(a2, nil)

	assert.False(t, s.Cursor().Acting)
	assert.True(t, s.Halted())

	_, _, ok = s.Claim(context.Background())
	assert.False(t, ok)

	updates := rec.ofType(events.TypeAction)
	require.Len(t, updates, 6)
	assert.Equal(t, "COMPLETED", updates[5].(events.ActionUpdate).Status)
}

func TestStore_FinishIgnoresStrangers(t *testing.T) {
	s, _, _ := newTestStore(t)
	a := action.New(action.MoveCursor{})
	s.Enqueue(a)
	claimed, _, ok := s.Claim(context.Background())
	require.True(t, ok)

	s.Finish(action.New(action.MoveCursor{}), nil)
	assert.Same(t, claimed, s.Executing())
}

func TestStore_AbortIsIdempotent(t *testing.T) {
	s, rec, _ := newTestStore(t)
	speaker := &countingCanceler{}
	s.SetSpeaker(speaker)

	for i := 0; i < 5; i++ {
		s.Enqueue(action.New(action.MoveCursor{X: float64(i)}))
	}
	claimed, ctx, ok := s.Claim(context.Background())
	require.True(t, ok)
	thinkCtx, _, ok := s.BeginThinking(context.Background())
	require.True(t, ok)
	s.SetLabel("Typing...")
	s.SetPressing(true)

	s.Abort()
	s.Abort()

	assert.Equal(t, 0, s.QueueLen())
	c := s.Cursor()
	assert.False(t, c.Thinking)
	assert.False(t, c.Acting)
	assert.False(t, c.Pressing)
	assert.Empty(t, c.Label)
	assert.Equal(t, AbortMessage, c.Message)
	assert.Equal(t, 2, speaker.n)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.ErrorIs(t, thinkCtx.Err(), context.Canceled)
	assert.True(t, s.Halted())

	// The processor still reports the aborted action when it unwinds.
	s.Finish(claimed, ctx.Err())
	assert.Equal(t, action.StatusFailed, claimed.Status)
	assert.Nil(t, s.Executing())

	assert.Contains(t, rec.ofType(events.TypeMessage), AbortMessage)
}

func TestStore_BeginThinkingIsExclusive(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx, token, ok := s.BeginThinking(context.Background())
	require.True(t, ok)
	_, _, ok = s.BeginThinking(context.Background())
	assert.False(t, ok)

	s.EndThinking(token)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, s.Cursor().Thinking)
	_, _, ok = s.BeginThinking(context.Background())
	assert.True(t, ok)
}

func TestStore_AbortInvalidatesThinkingToken(t *testing.T) {
	s, _, _ := newTestStore(t)
	_, stale, ok := s.BeginThinking(context.Background())
	require.True(t, ok)

	s.Abort()
	assert.False(t, s.OwnsThinking(stale))
	assert.False(t, s.EnqueuePlan(stale, action.New(action.MoveCursor{})))
	assert.Equal(t, 0, s.QueueLen())

	_, current, ok := s.BeginThinking(context.Background())
	require.True(t, ok)
	assert.NotEqual(t, stale, current)

	// The aborted round-trip unwinding must not release the new one.
	s.EndThinking(stale)
	assert.True(t, s.Cursor().Thinking)
	assert.True(t, s.OwnsThinking(current))

	assert.True(t, s.EnqueuePlan(current, action.New(action.MoveCursor{})))
	assert.Equal(t, 1, s.QueueLen())
	s.EndThinking(current)
	assert.False(t, s.Cursor().Thinking)
	assert.False(t, s.EnqueuePlan(current, action.New(action.MoveCursor{})))
}

func TestStore_MessageExpiry(t *testing.T) {
	s, _, clock := newTestStore(t)

	s.SetMessage("hello") // 5s + 5*50ms
	clock.Advance(5*time.Second + 249*time.Millisecond)
	assert.Equal(t, "hello", s.Cursor().Message)
	clock.Advance(time.Millisecond)
	assert.Empty(t, s.Cursor().Message)

	s.SetMessage("first")
	clock.Advance(4 * time.Second)
	s.SetMessage("second")
	clock.Advance(2 * time.Second)
	assert.Equal(t, "second", s.Cursor().Message, "a replaced message's timer must not clear its successor")
	clock.Advance(4 * time.Second)
	assert.Empty(t, s.Cursor().Message)
}

func TestStore_Overlays(t *testing.T) {
	s, rec, _ := newTestStore(t)

	s.PutOverlay(OverlayElement{ID: "a", HTML: "<b>x</b>", X: 10, Y: 20, Width: 400, Height: 300, ScaleX: 1, ScaleY: 1})
	el, ok := s.Overlay("a")
	require.True(t, ok)
	assert.Equal(t, geometry.Pt(10, 20), el.Center())

	assert.True(t, s.UpdateOverlay("a", func(o *OverlayElement) { o.HTML = "<i>y</i>"; o.ID = "ignored" }))
	el, _ = s.Overlay("a")
	assert.Equal(t, "<i>y</i>", el.HTML)
	assert.Equal(t, "a", el.ID)

	assert.False(t, s.UpdateOverlay("missing", func(*OverlayElement) {}))

	all := s.Overlays()
	delete(all, "a")
	_, ok = s.Overlay("a")
	assert.True(t, ok, "Overlays returns a copy")

	assert.True(t, s.RemoveOverlay("a"))
	assert.False(t, s.RemoveOverlay("a"))
	assert.Len(t, rec.ofType(events.TypeOverlay), 3)
}

func TestStore_LogIsBoundedNewestFirst(t *testing.T) {
	s, _, _ := newTestStore(t)
	for i := 0; i < MaxLogEntries+10; i++ {
		s.AddLog(string(rune('a' + i%26)))
	}
	logs := s.Logs()
	require.Len(t, logs, MaxLogEntries)
	last := MaxLogEntries + 9
	assert.Equal(t, string(rune('a'+last%26)), logs[0].Text)
}

func TestStore_ReferenceImageAndView(t *testing.T) {
	s, _, _ := newTestStore(t)
	assert.Nil(t, s.LastUploadedImage())

	img := &ReferenceImage{Data: []byte{1, 2, 3}, MIMEType: "image/png"}
	s.SetLastUploadedImage(img)
	assert.Equal(t, img, s.LastUploadedImage())

	s.SetViewport(geometry.NewViewport(2, 10, 20))
	s.SetCursor(geometry.Pt(5, 6))
	s.AddMessage(RoleUser, "draw a cat")

	v := s.View()
	assert.Equal(t, geometry.Pt(5, 6), v.Cursor.Position)
	assert.Equal(t, geometry.NewViewport(2, 10, 20), v.Viewport)
	assert.Len(t, v.Messages, 2)
	assert.Equal(t, 0, v.Queue)
}

func TestStore_ConcurrentEnqueueAndClaim(t *testing.T) {
	s, _, _ := newTestStore(t)
	const producers, perProducer = 8, 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				s.Enqueue(action.New(action.MoveCursor{}))
			}
		}()
	}

	consumed := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		if a, _, ok := s.Claim(context.Background()); ok {
			assert.Equal(t, action.StatusExecuting, a.Status)
			s.Finish(a, nil)
			consumed++
			continue
		}
		select {
		case <-done:
			if s.QueueLen() == 0 {
				assert.Equal(t, producers*perProducer, consumed)
				return
			}
		default:
		}
	}
}
