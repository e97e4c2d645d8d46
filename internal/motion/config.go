// internal/motion/config.go
package motion

import (
	"math/rand"
	"time"
)

// Config holds the parameters of the cursor motion model.
type Config struct {
	// Rng, when set, makes trajectories reproducible.
	Rng *rand.Rand

	// Duration model: Base + PerPixel*distance, clamped to [MinDuration, MaxDuration].
	BaseDuration time.Duration
	PerPixel     time.Duration
	MinDuration  time.Duration
	MaxDuration  time.Duration

	// ArcFactor scales the lateral control point offset with travel distance,
	// capped at ArcCap pixels.
	ArcFactor float64
	ArcCap    float64

	// FrameInterval is the period between successive position updates.
	FrameInterval time.Duration

	// TremorAmplitude is the peak Perlin drift in pixels. It tapers to zero
	// at both ends of a movement. Zero disables tremor.
	TremorAmplitude float64
}

// DefaultConfig returns the standard motion profile.
func DefaultConfig() Config {
	return Config{
		BaseDuration:    600 * time.Millisecond,
		PerPixel:        500 * time.Microsecond,
		MinDuration:     400 * time.Millisecond,
		MaxDuration:     1800 * time.Millisecond,
		ArcFactor:       0.2,
		ArcCap:          150,
		FrameInterval:   16 * time.Millisecond,
		TremorAmplitude: 0,
	}
}

func (c *Config) normalize() {
	def := DefaultConfig()
	if c.FrameInterval <= 0 {
		c.FrameInterval = def.FrameInterval
	}
	if c.MinDuration < 0 {
		c.MinDuration = 0
	}
	if c.MaxDuration < c.MinDuration {
		c.MaxDuration = c.MinDuration
	}
	if c.ArcCap < 0 {
		c.ArcCap = 0
	}
}
