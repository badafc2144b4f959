package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsUnknownRecognizer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Recognizer = "quantum"
	require.Error(t, cfg.Validate())
}

func TestValidateRemoteNeedsURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Recognizer = RecognizerRemote
	require.Error(t, cfg.Validate())

	cfg.RemoteURL = "https://api.example.com/v1"
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BINSIGHT_CAMERA", "2")
	t.Setenv("BINSIGHT_PORT", "9000")
	t.Setenv("BINSIGHT_RECOGNIZER", "remote")
	t.Setenv("BINSIGHT_API_URL", "https://api.example.com/v1")

	cfg := DefaultConfig()
	cfg.LoadEnv()
	require.Equal(t, 2, cfg.Camera.DeviceID)
	require.Equal(t, "9000", cfg.WebPort)
	require.Equal(t, RecognizerRemote, cfg.Recognizer)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvKeepsDefaultsWhenUnset(t *testing.T) {
	cfg := DefaultConfig()
	before := cfg
	cfg.LoadEnv()
	require.Equal(t, before.WebPort, cfg.WebPort)
	require.Equal(t, before.Recognizer, cfg.Recognizer)
}
