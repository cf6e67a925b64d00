package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sankeertg21/traffic-wait-timer/internal/geom"
	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for a wait-time run.
// Every field is optional; the Get* methods fall back to the values the
// tracker was tuned with.
type TuningConfig struct {
	// State machine params
	SpeedThresholdPxPerSec *float64 `json:"speed_threshold_px_per_sec,omitempty"`
	MinStillTime           *float64 `json:"min_still_time,omitempty"`    // seconds
	SpeedWindowSec         *float64 `json:"speed_window_sec,omitempty"`  // seconds
	MaxHistoryLen          *int     `json:"max_history_len,omitempty"`   // samples per track
	IDExpirySeconds        *float64 `json:"id_expiry_seconds,omitempty"` // seconds

	// Classes of interest; labels are compared case-insensitively.
	Classes []string `json:"classes,omitempty"`

	// Stream params
	FPS *float64 `json:"fps,omitempty"` // used when batches carry no timestamp

	// ROI as [x1, y1, x2, y2] in frame pixels (optional; the CLI flag wins)
	ROI *[4]float64 `json:"roi,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields unset.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated from
// the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	d := waittime.DefaultConfig()
	return &TuningConfig{
		SpeedThresholdPxPerSec: ptrFloat64(d.SpeedThreshold),
		MinStillTime:           ptrFloat64(d.MinStillTime),
		SpeedWindowSec:         ptrFloat64(d.SpeedWindow),
		MaxHistoryLen:          ptrInt(d.MaxHistoryLen),
		IDExpirySeconds:        ptrFloat64(d.ExpirySeconds),
		Classes:                append([]string(nil), d.Classes...),
		FPS:                    ptrFloat64(30.0),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file keep their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable. Only set
// fields are checked; the combined parameters are validated again by
// waittime.NewMachine.
func (c *TuningConfig) Validate() error {
	if c.MaxHistoryLen != nil && *c.MaxHistoryLen <= 0 {
		return fmt.Errorf("max_history_len must be positive, got %d", *c.MaxHistoryLen)
	}
	if c.SpeedThresholdPxPerSec != nil && !nonNegative(*c.SpeedThresholdPxPerSec) {
		return fmt.Errorf("speed_threshold_px_per_sec must be non-negative, got %v", *c.SpeedThresholdPxPerSec)
	}
	if c.MinStillTime != nil && !nonNegative(*c.MinStillTime) {
		return fmt.Errorf("min_still_time must be non-negative, got %v", *c.MinStillTime)
	}
	if c.SpeedWindowSec != nil && !(nonNegative(*c.SpeedWindowSec) && *c.SpeedWindowSec > 0) {
		return fmt.Errorf("speed_window_sec must be positive, got %v", *c.SpeedWindowSec)
	}
	if c.IDExpirySeconds != nil && !(nonNegative(*c.IDExpirySeconds) && *c.IDExpirySeconds > 0) {
		return fmt.Errorf("id_expiry_seconds must be positive, got %v", *c.IDExpirySeconds)
	}
	if c.FPS != nil && !(nonNegative(*c.FPS) && *c.FPS > 0) {
		return fmt.Errorf("fps must be positive, got %v", *c.FPS)
	}
	for i, cls := range c.Classes {
		if strings.TrimSpace(cls) == "" {
			return fmt.Errorf("classes[%d] must not be blank", i)
		}
	}
	if c.ROI != nil {
		if roi := c.GetROI(); !roi.Valid() {
			return fmt.Errorf("roi must satisfy x1 < x2 and y1 < y2, got %v", roi)
		}
	}
	return nil
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// GetSpeedThresholdPxPerSec returns the speed_threshold_px_per_sec value or the default.
func (c *TuningConfig) GetSpeedThresholdPxPerSec() float64 {
	if c.SpeedThresholdPxPerSec == nil {
		return 15.0
	}
	return *c.SpeedThresholdPxPerSec
}

// GetMinStillTime returns the min_still_time value or the default.
func (c *TuningConfig) GetMinStillTime() float64 {
	if c.MinStillTime == nil {
		return 0.5
	}
	return *c.MinStillTime
}

// GetSpeedWindowSec returns the speed_window_sec value or the default.
func (c *TuningConfig) GetSpeedWindowSec() float64 {
	if c.SpeedWindowSec == nil {
		return 0.8
	}
	return *c.SpeedWindowSec
}

// GetMaxHistoryLen returns the max_history_len value or the default.
func (c *TuningConfig) GetMaxHistoryLen() int {
	if c.MaxHistoryLen == nil {
		return 60
	}
	return *c.MaxHistoryLen
}

// GetIDExpirySeconds returns the id_expiry_seconds value or the default.
func (c *TuningConfig) GetIDExpirySeconds() float64 {
	if c.IDExpirySeconds == nil {
		return 5.0
	}
	return *c.IDExpirySeconds
}

// GetClasses returns the classes of interest or the default ["car"].
func (c *TuningConfig) GetClasses() []string {
	if len(c.Classes) == 0 {
		return []string{"car"}
	}
	return append([]string(nil), c.Classes...)
}

// GetFPS returns the fps value or the default.
func (c *TuningConfig) GetFPS() float64 {
	if c.FPS == nil {
		return 30.0
	}
	return *c.FPS
}

// GetROI returns the configured ROI, or the zero rect when unset.
func (c *TuningConfig) GetROI() geom.Rect {
	if c.ROI == nil {
		return geom.Rect{}
	}
	r := *c.ROI
	return geom.Rect{X1: r[0], Y1: r[1], X2: r[2], Y2: r[3]}
}

// Params builds the state machine configuration.
func (c *TuningConfig) Params() waittime.Config {
	return waittime.Config{
		SpeedThreshold: c.GetSpeedThresholdPxPerSec(),
		MinStillTime:   c.GetMinStillTime(),
		SpeedWindow:    c.GetSpeedWindowSec(),
		MaxHistoryLen:  c.GetMaxHistoryLen(),
		ExpirySeconds:  c.GetIDExpirySeconds(),
		Classes:        c.GetClasses(),
	}
}

// ParseROI parses "x1,y1,x2,y2" into a rectangle.
func ParseROI(s string) (geom.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.Rect{}, fmt.Errorf("roi %q: want 4 comma-separated numbers", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Rect{}, fmt.Errorf("roi %q: %w", s, err)
		}
		v[i] = f
	}
	r := geom.Rect{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}
	if !r.Valid() {
		return geom.Rect{}, fmt.Errorf("roi %q: need x1 < x2 and y1 < y2", s)
	}
	return r, nil
}

// MarshalIndent renders the effective configuration, defaults applied, for
// logging and for storing alongside a run.
func (c *TuningConfig) MarshalIndent() ([]byte, error) {
	eff := DefaultTuningConfig()
	eff.SpeedThresholdPxPerSec = ptrFloat64(c.GetSpeedThresholdPxPerSec())
	eff.MinStillTime = ptrFloat64(c.GetMinStillTime())
	eff.SpeedWindowSec = ptrFloat64(c.GetSpeedWindowSec())
	eff.MaxHistoryLen = ptrInt(c.GetMaxHistoryLen())
	eff.IDExpirySeconds = ptrFloat64(c.GetIDExpirySeconds())
	eff.Classes = c.GetClasses()
	eff.FPS = ptrFloat64(c.GetFPS())
	eff.ROI = c.ROI
	return json.MarshalIndent(eff, "", "  ")
}
