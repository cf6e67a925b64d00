package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sankeertg21/traffic-wait-timer/internal/geom"
	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	if cfg.SpeedThresholdPxPerSec == nil || *cfg.SpeedThresholdPxPerSec != 15.0 {
		t.Errorf("Expected SpeedThresholdPxPerSec 15.0, got %v", cfg.SpeedThresholdPxPerSec)
	}
	if cfg.MaxHistoryLen == nil || *cfg.MaxHistoryLen != 60 {
		t.Errorf("Expected MaxHistoryLen 60, got %v", cfg.MaxHistoryLen)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEmptyTuningConfig_Getters(t *testing.T) {
	cfg := EmptyTuningConfig()

	if got := cfg.GetSpeedThresholdPxPerSec(); got != 15.0 {
		t.Errorf("GetSpeedThresholdPxPerSec() = %v, want 15.0", got)
	}
	if got := cfg.GetMinStillTime(); got != 0.5 {
		t.Errorf("GetMinStillTime() = %v, want 0.5", got)
	}
	if got := cfg.GetSpeedWindowSec(); got != 0.8 {
		t.Errorf("GetSpeedWindowSec() = %v, want 0.8", got)
	}
	if got := cfg.GetMaxHistoryLen(); got != 60 {
		t.Errorf("GetMaxHistoryLen() = %v, want 60", got)
	}
	if got := cfg.GetIDExpirySeconds(); got != 5.0 {
		t.Errorf("GetIDExpirySeconds() = %v, want 5.0", got)
	}
	if got := cfg.GetFPS(); got != 30.0 {
		t.Errorf("GetFPS() = %v, want 30.0", got)
	}
	if got := cfg.GetClasses(); len(got) != 1 || got[0] != "car" {
		t.Errorf("GetClasses() = %v, want [car]", got)
	}
	if got := cfg.GetROI(); got != (geom.Rect{}) {
		t.Errorf("GetROI() = %v, want zero rect", got)
	}

	params := cfg.Params()
	want := waittime.DefaultConfig()
	if params.SpeedThreshold != want.SpeedThreshold || params.MaxHistoryLen != want.MaxHistoryLen ||
		params.MinStillTime != want.MinStillTime || params.SpeedWindow != want.SpeedWindow ||
		params.ExpirySeconds != want.ExpirySeconds {
		t.Errorf("Params() = %+v, want %+v", params, want)
	}
}

func TestLoadTuningConfig(t *testing.T) {
	path := writeConfig(t, "test_config.json", `{
  "speed_threshold_px_per_sec": 20,
  "min_still_time": 1.5,
  "max_history_len": 30,
  "classes": ["car", "truck"],
  "roi": [10, 20, 300, 400]
}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if got := cfg.GetSpeedThresholdPxPerSec(); got != 20 {
		t.Errorf("GetSpeedThresholdPxPerSec() = %v, want 20", got)
	}
	if got := cfg.GetMinStillTime(); got != 1.5 {
		t.Errorf("GetMinStillTime() = %v, want 1.5", got)
	}
	// Omitted fields keep defaults.
	if got := cfg.GetSpeedWindowSec(); got != 0.8 {
		t.Errorf("GetSpeedWindowSec() = %v, want default 0.8", got)
	}
	if got := cfg.Params().Classes; len(got) != 2 || got[1] != "truck" {
		t.Errorf("Params().Classes = %v", got)
	}
	if got := cfg.GetROI(); got != (geom.Rect{X1: 10, Y1: 20, X2: 300, Y2: 400}) {
		t.Errorf("GetROI() = %v", got)
	}
}

func TestLoadTuningConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "config.yaml", `{}`, ".json extension"},
		{"bad json", "bad.json", `{"min_still_time": }`, "failed to parse"},
		{"non-positive history", "hist.json", `{"max_history_len": 0}`, "max_history_len"},
		{"negative threshold", "thr.json", `{"speed_threshold_px_per_sec": -1}`, "speed_threshold_px_per_sec"},
		{"zero window", "win.json", `{"speed_window_sec": 0}`, "speed_window_sec"},
		{"zero expiry", "exp.json", `{"id_expiry_seconds": 0}`, "id_expiry_seconds"},
		{"zero fps", "fps.json", `{"fps": 0}`, "fps"},
		{"blank class", "cls.json", `{"classes": ["car", " "]}`, "classes[1]"},
		{"inverted roi", "roi.json", `{"roi": [100, 0, 10, 50]}`, "roi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := LoadTuningConfig(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}

	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadTuningConfig_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.json")
	big := make([]byte, 1024*1024+1)
	for i := range big {
		big[i] = ' '
	}
	if err := os.WriteFile(path, big, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTuningConfig(path); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected too large error, got %v", err)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if got := cfg.GetMaxHistoryLen(); got != 60 {
		t.Errorf("defaults file max_history_len = %d, want 60", got)
	}
	if got := cfg.GetClasses(); len(got) != 1 || got[0] != "car" {
		t.Errorf("defaults file classes = %v", got)
	}
}

func TestParseROI(t *testing.T) {
	r, err := ParseROI("10, 20,300,400.5")
	if err != nil {
		t.Fatalf("ParseROI: %v", err)
	}
	if r != (geom.Rect{X1: 10, Y1: 20, X2: 300, Y2: 400.5}) {
		t.Errorf("ParseROI = %v", r)
	}

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "10,10,5,20", "0,0,10,0"} {
		if _, err := ParseROI(bad); err == nil {
			t.Errorf("ParseROI(%q) should fail", bad)
		}
	}
}

func TestMarshalIndent_AppliesDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()
	cfg.MinStillTime = ptrFloat64(2)

	data, err := cfg.MarshalIndent()
	if err != nil {
		t.Fatalf("MarshalIndent: %v", err)
	}
	var back TuningConfig
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.GetMinStillTime() != 2 {
		t.Errorf("min_still_time = %v, want 2", back.GetMinStillTime())
	}
	if back.MaxHistoryLen == nil || *back.MaxHistoryLen != 60 {
		t.Errorf("max_history_len should be filled with default, got %v", back.MaxHistoryLen)
	}
	if back.ROI != nil {
		t.Errorf("unset roi should stay unset, got %v", back.ROI)
	}
}
