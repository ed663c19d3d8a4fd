package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userapi/iternal/config"
)

func TestNew_ProdIsJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.EnvProd, &buf)

	log.Debug("hidden")
	log.Info("visible", "id", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "visible", rec["msg"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_LocalIsTextAtDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.EnvLocal, &buf)

	log.Debug("trace me")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "msg=\"trace me\"")
}
