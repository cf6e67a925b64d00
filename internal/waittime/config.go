package waittime

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Config holds the immutable per-run parameters of the state machine.
type Config struct {
	SpeedThreshold float64  // px/s at or below which a track is resting
	MinStillTime   float64  // seconds a streak must last before time counts
	SpeedWindow    float64  // trailing window (seconds) for speed estimation
	MaxHistoryLen  int      // position samples kept per track
	ExpirySeconds  float64  // silence after which a track is dropped
	Classes        []string // class labels of interest; empty accepts all
}

// DefaultConfig returns the parameters the tracker was tuned with for cars
// at roughly 30 fps.
func DefaultConfig() Config {
	return Config{
		SpeedThreshold: 15.0,
		MinStillTime:   0.5,
		SpeedWindow:    0.8,
		MaxHistoryLen:  60,
		ExpirySeconds:  5.0,
		Classes:        []string{"car"},
	}
}

// Validate rejects configurations that cannot drive the machine.
func (c Config) Validate() error {
	var errs []error
	if c.MaxHistoryLen <= 0 {
		errs = append(errs, fmt.Errorf("max history length must be positive, got %d", c.MaxHistoryLen))
	}
	if !finiteNonNegative(c.SpeedThreshold) {
		errs = append(errs, fmt.Errorf("speed threshold must be a finite non-negative number, got %v", c.SpeedThreshold))
	}
	if !finiteNonNegative(c.MinStillTime) {
		errs = append(errs, fmt.Errorf("min still time must be a finite non-negative number, got %v", c.MinStillTime))
	}
	if !finiteNonNegative(c.SpeedWindow) || c.SpeedWindow == 0 {
		errs = append(errs, fmt.Errorf("speed window must be positive, got %v", c.SpeedWindow))
	}
	if !finiteNonNegative(c.ExpirySeconds) || c.ExpirySeconds == 0 {
		errs = append(errs, fmt.Errorf("expiry must be positive, got %v", c.ExpirySeconds))
	}
	for _, cls := range c.Classes {
		if strings.TrimSpace(cls) == "" {
			errs = append(errs, errors.New("class labels must not be blank"))
			break
		}
	}
	return errors.Join(errs...)
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// classFilter is a lower-cased set of accepted labels. A nil filter accepts
// every class.
type classFilter map[string]struct{}

func newClassFilter(classes []string) classFilter {
	if len(classes) == 0 {
		return nil
	}
	f := make(classFilter, len(classes))
	for _, c := range classes {
		f[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	return f
}

func (f classFilter) accepts(label string) bool {
	if f == nil {
		return true
	}
	_, ok := f[strings.ToLower(label)]
	return ok
}
