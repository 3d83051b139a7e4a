// Package config loads the tracer's TOML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/Carmen-Shannon/oxy-trace/engine/frame"
	"github.com/Carmen-Shannon/oxy-trace/log"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the full configuration. Every section is optional in the file; missing keys keep
// their Default values.
type Config struct {
	Window WindowConfig `toml:"window"`
	Render RenderConfig `toml:"render"`
	Camera CameraConfig `toml:"camera"`
	Log    LogConfig    `toml:"log"`
}

// WindowConfig configures the output window.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// RenderConfig configures the progressive renderer.
type RenderConfig struct {
	Bounces int `toml:"bounces"`

	// MaxSamples stops accumulating once reached. 0 accumulates forever.
	MaxSamples uint32 `toml:"max_samples"`

	// PresentMode is "vsync" or "uncapped".
	PresentMode string `toml:"present_mode"`

	// Seed seeds the pixel jitter and random materials. 0 seeds from the clock.
	Seed int64 `toml:"seed"`

	ForceSoftware bool `toml:"force_software"`

	// BuildWorkers is the worker count used to copy large scenes into the GPU arrays.
	BuildWorkers int `toml:"build_workers"`

	// Kernel optionally points at a replacement WGSL kernel.
	Kernel string `toml:"kernel,omitempty"`
}

// CameraConfig configures the camera projection.
type CameraConfig struct {
	FOVDegrees float32 `toml:"fov_degrees"`
	Near       float32 `toml:"near"`
	Far        float32 `toml:"far"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

var presentModes = map[string]bool{
	"vsync":     true,
	"fifo":      true,
	"uncapped":  true,
	"immediate": true,
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "oxy-trace",
			Width:  1280,
			Height: 720,
		},
		Render: RenderConfig{
			Bounces:      frame.DefaultBounces,
			PresentMode:  "vsync",
			BuildWorkers: 4,
		},
		Camera: CameraConfig{
			FOVDegrees: 60,
			Near:       0.1,
			Far:        1000,
		},
		Log: LogConfig{
			Level: "notice",
		},
	}
}

// Load reads a TOML file over Default. Unknown keys are rejected so typos surface.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the loaded configuration, validated
//   - error: an error if the file cannot be read, decoded, or fails Validate
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Decode reads TOML from r over Default and validates the result.
//
// Parameters:
//   - r: the TOML source
//
// Returns:
//   - Config: the decoded configuration
//   - error: a decode or validation error
func Decode(r io.Reader) (Config, error) {
	c := Default()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Encode writes c as TOML.
//
// Parameters:
//   - w: the destination
//
// Returns:
//   - error: an error if encoding or writing fails
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// String returns c as TOML.
func (c Config) String() string {
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}

// Validate checks every field, reporting all problems at once.
//
// Returns:
//   - error: the joined problems, each wrapping ErrInvalid, or nil
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, v ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalid}, v...)...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		bad("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Render.Bounces < frame.MinBounces || c.Render.Bounces > frame.MaxBounces {
		bad("render.bounces %d outside [%d, %d]", c.Render.Bounces, frame.MinBounces, frame.MaxBounces)
	}
	if c.Render.BuildWorkers < 1 || c.Render.BuildWorkers > 64 {
		bad("render.build_workers %d outside [1, 64]", c.Render.BuildWorkers)
	}
	if !presentModes[strings.ToLower(c.Render.PresentMode)] {
		bad("render.present_mode %q", c.Render.PresentMode)
	}
	if c.Camera.FOVDegrees <= 0 || c.Camera.FOVDegrees >= 180 {
		bad("camera.fov_degrees %v outside (0, 180)", c.Camera.FOVDegrees)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		bad("camera clip planes near=%v far=%v", c.Camera.Near, c.Camera.Far)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		bad("log.level %q", c.Log.Level)
	}
	return errors.Join(errs...)
}

// LogLevel returns the parsed log level, or log.Notice if it does not parse.
func (c Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.Notice
	}
	return level
}
