// internal/processor/config.go
package processor

import (
	"math/rand"
	"time"
)

// Config holds the humanlike timing profile of the processor.
type Config struct {
	// Rng, when set, makes hesitation delays reproducible.
	Rng *rand.Rand

	// PollInterval is how often an idle processor checks the queue.
	PollInterval time.Duration

	// Cognitive pause before the click, uniform in [MinHesitation, MaxHesitation),
	// plus ComplexBonus for content synthesis and code edits.
	MinHesitation time.Duration
	MaxHesitation time.Duration
	ComplexBonus  time.Duration

	PressHold   time.Duration
	VerifyPause time.Duration
	LookPause   time.Duration

	DragHold     time.Duration
	DragDuration time.Duration
	DragSettle   time.Duration

	// EditFlash is how long an edited overlay placeholder stays highlighted.
	EditFlash time.Duration
}

// DefaultConfig returns the standard timing profile.
func DefaultConfig() Config {
	return Config{
		PollInterval:  100 * time.Millisecond,
		MinHesitation: 400 * time.Millisecond,
		MaxHesitation: 1200 * time.Millisecond,
		ComplexBonus:  500 * time.Millisecond,
		PressHold:     150 * time.Millisecond,
		VerifyPause:   300 * time.Millisecond,
		LookPause:     500 * time.Millisecond,
		DragHold:      200 * time.Millisecond,
		DragDuration:  800 * time.Millisecond,
		DragSettle:    200 * time.Millisecond,
		EditFlash:     400 * time.Millisecond,
	}
}

func (c *Config) normalize() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultConfig().PollInterval
	}
	if c.MaxHesitation < c.MinHesitation {
		c.MaxHesitation = c.MinHesitation
	}
}
