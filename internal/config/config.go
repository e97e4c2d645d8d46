// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Planner providers.
const (
	ProviderGemini = "gemini"
	ProviderScript = "script"
)

// Render engines.
const (
	EngineRaster = "raster"
	EngineChrome = "chrome"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Canvas() CanvasConfig
	Processor() ProcessorConfig
	Motion() MotionConfig
	Planner() PlannerConfig
	Render() RenderConfig
	Speech() SpeechConfig
	Stream() StreamConfig

	SetPlannerProvider(string)
	SetPlannerScriptPath(string)
	SetStreamAddress(string)
	SetSpeechEnabled(bool)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	CanvasCfg    CanvasConfig    `mapstructure:"canvas" yaml:"canvas"`
	ProcessorCfg ProcessorConfig `mapstructure:"processor" yaml:"processor"`
	MotionCfg    MotionConfig    `mapstructure:"motion" yaml:"motion"`
	PlannerCfg   PlannerConfig   `mapstructure:"planner" yaml:"planner"`
	RenderCfg    RenderConfig    `mapstructure:"render" yaml:"render"`
	SpeechCfg    SpeechConfig    `mapstructure:"speech" yaml:"speech"`
	StreamCfg    StreamConfig    `mapstructure:"stream" yaml:"stream"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Canvas() CanvasConfig       { return c.CanvasCfg }
func (c *Config) Processor() ProcessorConfig { return c.ProcessorCfg }
func (c *Config) Motion() MotionConfig       { return c.MotionCfg }
func (c *Config) Planner() PlannerConfig     { return c.PlannerCfg }
func (c *Config) Render() RenderConfig       { return c.RenderCfg }
func (c *Config) Speech() SpeechConfig       { return c.SpeechCfg }
func (c *Config) Stream() StreamConfig       { return c.StreamCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetPlannerProvider(p string)   { c.PlannerCfg.Provider = p }
func (c *Config) SetPlannerScriptPath(p string) { c.PlannerCfg.ScriptPath = p }
func (c *Config) SetStreamAddress(a string)     { c.StreamCfg.Address = a }
func (c *Config) SetSpeechEnabled(b bool)       { c.SpeechCfg.Enabled = b }

// LoggerConfig defines all the settings for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// CanvasConfig is the logical pixel size of the workspace viewport.
type CanvasConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// ProcessorConfig tunes the humanlike pacing of action execution.
type ProcessorConfig struct {
	PollInterval  time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	MinHesitation time.Duration `mapstructure:"min_hesitation" yaml:"min_hesitation"`
	MaxHesitation time.Duration `mapstructure:"max_hesitation" yaml:"max_hesitation"`
	ComplexBonus  time.Duration `mapstructure:"complex_bonus" yaml:"complex_bonus"`
	PressHold     time.Duration `mapstructure:"press_hold" yaml:"press_hold"`
	VerifyPause   time.Duration `mapstructure:"verify_pause" yaml:"verify_pause"`
	LookPause     time.Duration `mapstructure:"look_pause" yaml:"look_pause"`
	DragHold      time.Duration `mapstructure:"drag_hold" yaml:"drag_hold"`
	DragDuration  time.Duration `mapstructure:"drag_duration" yaml:"drag_duration"`
	DragSettle    time.Duration `mapstructure:"drag_settle" yaml:"drag_settle"`
	EditFlash     time.Duration `mapstructure:"edit_flash" yaml:"edit_flash"`
}

// MotionConfig shapes the cursor trajectories.
type MotionConfig struct {
	BaseDuration    time.Duration `mapstructure:"base_duration" yaml:"base_duration"`
	PerPixel        time.Duration `mapstructure:"per_pixel" yaml:"per_pixel"`
	MinDuration     time.Duration `mapstructure:"min_duration" yaml:"min_duration"`
	MaxDuration     time.Duration `mapstructure:"max_duration" yaml:"max_duration"`
	ArcFactor       float64       `mapstructure:"arc_factor" yaml:"arc_factor"`
	ArcCap          float64       `mapstructure:"arc_cap" yaml:"arc_cap"`
	FrameInterval   time.Duration `mapstructure:"frame_interval" yaml:"frame_interval"`
	TremorAmplitude float64       `mapstructure:"tremor_amplitude" yaml:"tremor_amplitude"`
}

// PlannerConfig selects and configures the planning service.
type PlannerConfig struct {
	Provider          string        `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"-"`
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint"`
	ThinkingBudget    int32         `mapstructure:"thinking_budget" yaml:"thinking_budget"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerMinute float64       `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	ScriptPath        string        `mapstructure:"script_path" yaml:"script_path"`
}

// RenderConfig selects how viewport captures are produced.
type RenderConfig struct {
	Engine      string        `mapstructure:"engine" yaml:"engine"`
	Headless    bool          `mapstructure:"headless" yaml:"headless"`
	ChromeFlags []string      `mapstructure:"chrome_flags" yaml:"chrome_flags"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// SpeechConfig configures the optional text-to-speech command.
type SpeechConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Command string   `mapstructure:"command" yaml:"command"`
	Args    []string `mapstructure:"args" yaml:"args"`
}

// StreamConfig configures the presentation WebSocket server.
type StreamConfig struct {
	Address    string `mapstructure:"address" yaml:"address"`
	Path       string `mapstructure:"path" yaml:"path"`
	BufferSize int    `mapstructure:"buffer_size" yaml:"buffer_size"`
}

// NewDefaultConfig creates a configuration populated with defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Unmarshalling defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "ghost")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Canvas --
	v.SetDefault("canvas.width", 1280)
	v.SetDefault("canvas.height", 800)

	// -- Processor --
	v.SetDefault("processor.poll_interval", "100ms")
	v.SetDefault("processor.min_hesitation", "400ms")
	v.SetDefault("processor.max_hesitation", "1200ms")
	v.SetDefault("processor.complex_bonus", "500ms")
	v.SetDefault("processor.press_hold", "150ms")
	v.SetDefault("processor.verify_pause", "300ms")
	v.SetDefault("processor.look_pause", "500ms")
	v.SetDefault("processor.drag_hold", "200ms")
	v.SetDefault("processor.drag_duration", "800ms")
	v.SetDefault("processor.drag_settle", "200ms")
	v.SetDefault("processor.edit_flash", "400ms")

	// -- Motion --
	v.SetDefault("motion.base_duration", "600ms")
	v.SetDefault("motion.per_pixel", "500us")
	v.SetDefault("motion.min_duration", "400ms")
	v.SetDefault("motion.max_duration", "1800ms")
	v.SetDefault("motion.arc_factor", 0.2)
	v.SetDefault("motion.arc_cap", 150.0)
	v.SetDefault("motion.frame_interval", "16ms")
	v.SetDefault("motion.tremor_amplitude", 0.0)

	// -- Planner --
	v.SetDefault("planner.provider", ProviderGemini)
	v.SetDefault("planner.model", "gemini-2.5-flash")
	v.SetDefault("planner.endpoint", "")
	v.SetDefault("planner.thinking_budget", 1024)
	v.SetDefault("planner.timeout", "90s")
	v.SetDefault("planner.requests_per_minute", 10.0)
	v.SetDefault("planner.script_path", "")

	// -- Render --
	v.SetDefault("render.engine", EngineRaster)
	v.SetDefault("render.headless", true)
	v.SetDefault("render.chrome_flags", []string{})
	v.SetDefault("render.timeout", "15s")

	// -- Speech --
	v.SetDefault("speech.enabled", false)
	v.SetDefault("speech.command", "espeak")
	v.SetDefault("speech.args", []string{"-p", "40"})

	// -- Stream --
	v.SetDefault("stream.address", "127.0.0.1:8765")
	v.SetDefault("stream.path", "/ws")
	v.SetDefault("stream.buffer_size", 256)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	_ = v.BindEnv("planner.api_key", "GHOST_PLANNER_API_KEY", "GEMINI_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Manually load the key if Unmarshal didn't pick it up
	if cfg.PlannerCfg.APIKey == "" {
		cfg.PlannerCfg.APIKey = os.Getenv("GHOST_PLANNER_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.CanvasCfg.Width <= 0 || c.CanvasCfg.Height <= 0 {
		return fmt.Errorf("canvas.width and canvas.height must be positive integers")
	}
	if err := c.ProcessorCfg.Validate(); err != nil {
		return fmt.Errorf("processor configuration invalid: %w", err)
	}
	if err := c.MotionCfg.Validate(); err != nil {
		return fmt.Errorf("motion configuration invalid: %w", err)
	}
	if err := c.PlannerCfg.Validate(); err != nil {
		return fmt.Errorf("planner configuration invalid: %w", err)
	}
	switch c.RenderCfg.Engine {
	case EngineRaster, EngineChrome:
	default:
		return fmt.Errorf("render.engine must be one of [%s, %s], got '%s'", EngineRaster, EngineChrome, c.RenderCfg.Engine)
	}
	if c.SpeechCfg.Enabled && c.SpeechCfg.Command == "" {
		return fmt.Errorf("speech.command is required when speech is enabled")
	}
	return nil
}

// Validate checks the processor timings.
func (p *ProcessorConfig) Validate() error {
	if p.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be a positive duration")
	}
	if p.MinHesitation < 0 || p.MaxHesitation < p.MinHesitation {
		return fmt.Errorf("hesitation range must satisfy 0 <= min_hesitation <= max_hesitation")
	}
	for name, d := range map[string]time.Duration{
		"complex_bonus": p.ComplexBonus,
		"press_hold":    p.PressHold,
		"verify_pause":  p.VerifyPause,
		"look_pause":    p.LookPause,
		"drag_hold":     p.DragHold,
		"drag_duration": p.DragDuration,
		"drag_settle":   p.DragSettle,
		"edit_flash":    p.EditFlash,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// Validate checks the motion model bounds.
func (m *MotionConfig) Validate() error {
	if m.FrameInterval <= 0 {
		return fmt.Errorf("frame_interval must be a positive duration")
	}
	if m.MinDuration < 0 || m.MaxDuration < m.MinDuration {
		return fmt.Errorf("duration bounds must satisfy 0 <= min_duration <= max_duration")
	}
	if m.ArcFactor < 0 || m.ArcCap < 0 || m.TremorAmplitude < 0 {
		return fmt.Errorf("arc_factor, arc_cap and tremor_amplitude must not be negative")
	}
	return nil
}

// Validate checks the planner selection. The API key is checked when the
// Gemini planner is built, so that offline commands still load.
func (p *PlannerConfig) Validate() error {
	switch p.Provider {
	case ProviderGemini:
		if p.Model == "" {
			return fmt.Errorf("model is required for the gemini provider")
		}
	case ProviderScript:
	default:
		return fmt.Errorf("unknown planner provider '%s'. Supported: [%s, %s]", p.Provider, ProviderGemini, ProviderScript)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	if p.RequestsPerMinute <= 0 {
		return fmt.Errorf("requests_per_minute must be positive")
	}
	return nil
}
