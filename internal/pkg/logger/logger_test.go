package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Level(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	assert.Equal(t, zerolog.WarnLevel, Setup("warn", "test"))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	assert.Equal(t, zerolog.InfoLevel, Setup("loud", "test"))
	assert.Equal(t, zerolog.InfoLevel, Setup("", "test"))
}

func TestNew_JSONOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "production")
	l.Info().Str("project_id", "7").Msg("Project registered")

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "Project registered", out["message"])
	assert.Equal(t, "7", out["project_id"])
	assert.Contains(t, out, "time")
}

func TestNew_ConsoleInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "development")
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(buf.Bytes()))
}
