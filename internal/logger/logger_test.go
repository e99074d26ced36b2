package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Component loggers are bound in package var declarations across the
// codebase, before Initialize ever runs. A zero-value zerolog.Logger has
// no writer and silently drops every event, so the global must be usable
// from init.
func TestComponentLoggerEmitsBeforeInitialize(t *testing.T) {
	global := Get()
	assert.NotNil(t, global.Info())
	component := GetForComponent("scanner")
	assert.NotNil(t, component.Info())
}

func TestGetForComponentCarriesComponentField(t *testing.T) {
	var buf bytes.Buffer
	l := GetForComponent("scanner").Output(&buf)

	l.Info().Msg("cycle started")

	require.NotZero(t, buf.Len())
	assert.Contains(t, buf.String(), `"component":"scanner"`)
	assert.Contains(t, buf.String(), "cycle started")
}
