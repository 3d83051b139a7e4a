package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   Debug,
		"INFO":    Info,
		"":        Notice,
		"notice":  Notice,
		"warn":    Warning,
		"Warning": Warning,
		"error":   Error,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestSinkAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)
	defer SetLevel(Notice)

	logger := New("test")

	SetLevel(Warning)
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warningf("shown %d", 1)
	assert.Contains(t, buf.String(), "shown 1")
	assert.Contains(t, buf.String(), "[test]")

	buf.Reset()
	SetLevel(Debug)
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}
