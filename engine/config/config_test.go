package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-trace/log"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 4, c.Render.Bounces)
	assert.Equal(t, 1280, c.Window.Width)
	assert.Equal(t, log.Notice, c.LogLevel())
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	c, err := Decode(strings.NewReader(`
[render]
bounces = 8
max_samples = 512
present_mode = "uncapped"
build_workers = 8

[log]
level = "debug"
`))
	require.NoError(t, err)
	assert.Equal(t, 8, c.Render.Bounces)
	assert.Equal(t, uint32(512), c.Render.MaxSamples)
	assert.Equal(t, "uncapped", c.Render.PresentMode)
	assert.Equal(t, 8, c.Render.BuildWorkers)
	assert.Equal(t, log.Debug, c.LogLevel())

	// untouched sections keep their defaults
	assert.Equal(t, "oxy-trace", c.Window.Title)
	assert.Equal(t, float32(60), c.Camera.FOVDegrees)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("[render]\nbounce = 3\n"))
	assert.Error(t, err)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	c := Default()
	c.Render.Bounces = 1
	c.Window.Width = 0
	c.Render.PresentMode = "mailbox"
	c.Camera.Far = c.Camera.Near
	c.Log.Level = "loud"
	c.Render.BuildWorkers = 0

	err := c.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	for _, field := range []string{"bounces", "window size", "present_mode", "clip planes", "log.level", "build_workers"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestValidateBounceRange(t *testing.T) {
	for _, n := range []int{2, 4, 32} {
		c := Default()
		c.Render.Bounces = n
		assert.NoError(t, c.Validate(), "bounces %d", n)
	}
	for _, n := range []int{0, 1, 33} {
		c := Default()
		c.Render.Bounces = n
		assert.ErrorIs(t, c.Validate(), ErrInvalid, "bounces %d", n)
	}
}

func TestEncodeDecodesBack(t *testing.T) {
	c := Default()
	c.Render.Seed = 42
	c.Window.Title = "test"

	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf))
	assert.Contains(t, buf.String(), "[render]")
	assert.Contains(t, buf.String(), "seed = 42")

	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxytrace.toml")
	require.NoError(t, os.WriteFile(path, []byte("[window]\nwidth = 640\nheight = 480\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 640, c.Window.Width)
	assert.Equal(t, 480, c.Window.Height)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("[render]\nbounces = 64\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
}
