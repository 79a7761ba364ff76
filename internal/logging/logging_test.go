package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Domenick1991/airreservation/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithOutput(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Info("dropped")
	log.WithField("reference", "AB12CD").Warn("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "AB12CD", entry["reference"])
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
}

func TestNewWithOutput_Text(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithOutput(config.LogConfig{Level: "debug", Format: "text"}, &buf)
	require.NoError(t, err)

	log.Debug("hello")

	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})

	assert.ErrorContains(t, err, "log level")
}
