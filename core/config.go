package core

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Format represents the requested output format of a capture
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatWebP Format = "webp"
	FormatMP4  Format = "mp4"
)

// Video reports whether the format is a moving-picture format
func (f Format) Video() bool {
	switch f {
	case FormatGIF, FormatWebP, FormatMP4:
		return true
	}
	return false
}

// Ext returns the file extension for the format
func (f Format) Ext() string {
	return "." + string(f)
}

// RetryStrategy controls how the orchestrator waits between attempts
type RetryStrategy string

const (
	RetryFixed       RetryStrategy = "fixed"
	RetryExponential RetryStrategy = "exponential"
	RetryReactivate  RetryStrategy = "reactivate"
)

// Region is a window-relative sub-region to capture
type Region struct {
	X      int `yaml:"x" json:"x"`
	Y      int `yaml:"y" json:"y"`
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// TargetSpec selects the window to capture. All non-zero fields must match.
type TargetSpec struct {
	App          string  `yaml:"app" json:"app"`                     // application name substring
	TitlePattern string  `yaml:"title_pattern" json:"title_pattern"` // window title regexp
	PID          int     `yaml:"pid" json:"pid"`
	ExePath      string  `yaml:"exe_path" json:"exe_path"`       // executable path substring
	ExeExclude   string  `yaml:"exe_exclude" json:"exe_exclude"` // executable path exclusion
	CommandLine  string  `yaml:"command_line" json:"command_line"`
	Region       *Region `yaml:"region,omitempty" json:"region,omitempty"`
}

// Empty reports whether no selection criteria were given
func (t *TargetSpec) Empty() bool {
	return t.App == "" && t.TitlePattern == "" && t.PID == 0 &&
		t.ExePath == "" && t.CommandLine == ""
}

// String summarizes the predicate for error messages and history records
func (t *TargetSpec) String() string {
	parts := ""
	add := func(k, v string) {
		if v == "" {
			return
		}
		if parts != "" {
			parts += " "
		}
		parts += k + "=" + v
	}
	add("app", t.App)
	add("title", t.TitlePattern)
	if t.PID != 0 {
		add("pid", fmt.Sprintf("%d", t.PID))
	}
	add("exe", t.ExePath)
	add("exe!", t.ExeExclude)
	add("cmdline", t.CommandLine)
	if parts == "" {
		parts = "(empty)"
	}
	return parts
}

// CaptureConfig holds everything one capture invocation needs. It is supplied
// once per invocation and treated as immutable afterwards.
type CaptureConfig struct {
	Target     TargetSpec `yaml:"target" json:"target"`
	OutputPath string     `yaml:"output" json:"output"`
	Format     Format     `yaml:"format" json:"format"`

	// Activation
	ActivateFirst bool          `yaml:"activate_first" json:"activate_first"`
	SettleDelay   time.Duration `yaml:"settle_delay" json:"settle_delay"`

	// Verification
	Verify       []string `yaml:"verify" json:"verify"` // strategy names, "all", or empty to disable
	ExpectedText []string `yaml:"expected_text" json:"expected_text"`

	// Retry
	MaxRetries    int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay    time.Duration `yaml:"retry_delay" json:"retry_delay"`
	RetryStrategy RetryStrategy `yaml:"retry_strategy" json:"retry_strategy"`

	// Format-specific parameters
	FPS         int           `yaml:"fps" json:"fps"`
	Width       int           `yaml:"width" json:"width"`
	Height      int           `yaml:"height" json:"height"`
	Quality     int           `yaml:"quality" json:"quality"`
	Duration    time.Duration `yaml:"duration" json:"duration"`
	MaxDuration time.Duration `yaml:"max_duration" json:"max_duration"`
	KeepRaw     bool          `yaml:"keep_raw" json:"keep_raw"`

	// Verification tunables
	DimensionTolerance float64       `yaml:"dimension_tolerance" json:"dimension_tolerance"`
	DurationTolerance  time.Duration `yaml:"duration_tolerance" json:"duration_tolerance"`
	HashThreshold      int           `yaml:"hash_threshold" json:"hash_threshold"`
	MinMotionDuration  time.Duration `yaml:"min_motion_duration" json:"min_motion_duration"`
	FrameFloor         int           `yaml:"frame_floor" json:"frame_floor"`
}

// DefaultConfig returns a configuration with sane defaults
func DefaultConfig() *CaptureConfig {
	return &CaptureConfig{
		Format:             FormatPNG,
		SettleDelay:        500 * time.Millisecond,
		Verify:             []string{"all"},
		MaxRetries:         3,
		RetryDelay:         time.Second,
		RetryStrategy:      RetryFixed,
		FPS:                10,
		Duration:           5 * time.Second,
		MaxDuration:        60 * time.Second,
		DimensionTolerance: 0.1,
		DurationTolerance:  500 * time.Millisecond,
		HashThreshold:      5,
		MinMotionDuration:  500 * time.Millisecond,
	}
}

// Validate checks the configuration before any OS state is touched
func (c *CaptureConfig) Validate() error {
	if c.Target.Empty() {
		return NewConfigurationError("no target selection criteria given")
	}
	if c.MaxRetries < 1 {
		return NewConfigurationError("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.Format.Video() && c.MaxDuration > 0 && c.Duration > c.MaxDuration {
		return NewConfigurationError("requested duration %s exceeds ceiling %s", c.Duration, c.MaxDuration)
	}
	switch c.RetryStrategy {
	case RetryFixed, RetryExponential, RetryReactivate, "":
	default:
		return NewConfigurationError("unknown retry strategy %q", c.RetryStrategy)
	}
	return nil
}

// profileSpec mirrors CaptureConfig for YAML decoding; duration fields are
// human-readable strings like "500ms" or "10s".
type profileSpec struct {
	Target        TargetSpec    `yaml:"target"`
	OutputPath    string        `yaml:"output"`
	Format        Format        `yaml:"format"`
	ActivateFirst bool          `yaml:"activate_first"`
	SettleDelay   string        `yaml:"settle_delay"`
	Verify        []string      `yaml:"verify"`
	ExpectedText  []string      `yaml:"expected_text"`
	MaxRetries    int           `yaml:"max_retries"`
	RetryDelay    string        `yaml:"retry_delay"`
	RetryStrategy RetryStrategy `yaml:"retry_strategy"`
	FPS           int           `yaml:"fps"`
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	Quality       int           `yaml:"quality"`
	Duration      string        `yaml:"duration"`
	MaxDuration   string        `yaml:"max_duration"`
	KeepRaw       bool          `yaml:"keep_raw"`

	DimensionTolerance float64 `yaml:"dimension_tolerance"`
	DurationTolerance  string  `yaml:"duration_tolerance"`
	HashThreshold      int     `yaml:"hash_threshold"`
	MinMotionDuration  string  `yaml:"min_motion_duration"`
	FrameFloor         int     `yaml:"frame_floor"`
}

func (p *profileSpec) toConfig() (*CaptureConfig, error) {
	cfg := &CaptureConfig{
		Target:             p.Target,
		OutputPath:         p.OutputPath,
		Format:             p.Format,
		ActivateFirst:      p.ActivateFirst,
		Verify:             p.Verify,
		ExpectedText:       p.ExpectedText,
		MaxRetries:         p.MaxRetries,
		RetryStrategy:      p.RetryStrategy,
		FPS:                p.FPS,
		Width:              p.Width,
		Height:             p.Height,
		Quality:            p.Quality,
		KeepRaw:            p.KeepRaw,
		DimensionTolerance: p.DimensionTolerance,
		HashThreshold:      p.HashThreshold,
		FrameFloor:         p.FrameFloor,
	}

	for _, d := range []struct {
		raw  string
		dst  *time.Duration
		name string
	}{
		{p.SettleDelay, &cfg.SettleDelay, "settle_delay"},
		{p.RetryDelay, &cfg.RetryDelay, "retry_delay"},
		{p.Duration, &cfg.Duration, "duration"},
		{p.MaxDuration, &cfg.MaxDuration, "max_duration"},
		{p.DurationTolerance, &cfg.DurationTolerance, "duration_tolerance"},
		{p.MinMotionDuration, &cfg.MinMotionDuration, "min_motion_duration"},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, d.raw, err)
		}
		*d.dst = parsed
	}
	return cfg, nil
}

// LoadProfiles reads named capture presets from a YAML file
func LoadProfiles(path string) (map[string]*CaptureConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}

	specs := make(map[string]*profileSpec)
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}

	profiles := make(map[string]*CaptureConfig, len(specs))
	for name, spec := range specs {
		cfg, err := spec.toConfig()
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
		profiles[name] = cfg
	}
	return profiles, nil
}

// Profile loads one named preset, layered over defaults for zero-valued fields
func Profile(path, name string) (*CaptureConfig, error) {
	profiles, err := LoadProfiles(path)
	if err != nil {
		return nil, err
	}
	cfg, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile not found: %s", name)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *CaptureConfig) {
	def := DefaultConfig()
	if cfg.Format == "" {
		cfg.Format = def.Format
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = def.SettleDelay
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.RetryStrategy == "" {
		cfg.RetryStrategy = def.RetryStrategy
	}
	if cfg.FPS == 0 {
		cfg.FPS = def.FPS
	}
	if cfg.Duration == 0 {
		cfg.Duration = def.Duration
	}
	if cfg.MaxDuration == 0 {
		cfg.MaxDuration = def.MaxDuration
	}
	if cfg.DimensionTolerance == 0 {
		cfg.DimensionTolerance = def.DimensionTolerance
	}
	if cfg.DurationTolerance == 0 {
		cfg.DurationTolerance = def.DurationTolerance
	}
	if cfg.HashThreshold == 0 {
		cfg.HashThreshold = def.HashThreshold
	}
	if cfg.MinMotionDuration == 0 {
		cfg.MinMotionDuration = def.MinMotionDuration
	}
}
