package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "COAP_ADDR", "DB_PATH", "LOG_LEVEL", "ACTUATOR_NAME", "ACTUATOR_PORT", "ACTUATOR_TIMEOUT",
	"SAVE_PARTITION", "SEED_CATALOG", "API_TOKEN", "CORS_ORIGINS", "MQTT_BROKER", "MQTT_CLIENT_ID",
	"MQTT_TOPIC_PREFIX", "KAFKA_BROKERS", "KAFKA_TOPIC",
}

func clean(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clean(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "[::]:5683", cfg.CoAPAddr)
	assert.Equal(t, "sowing_actuator", cfg.ActuatorName)
	assert.Equal(t, 5683, cfg.ActuatorPort)
	assert.Equal(t, 5*time.Second, cfg.ActuatorTimeout)
	assert.Equal(t, "shared", cfg.SavePartition)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadEnvFile(t *testing.T) {
	clean(t)
	path := filepath.Join(t.TempDir(), "seedbot.env")
	require.NoError(t, os.WriteFile(path, []byte("ACTUATOR_PORT=6000\nKAFKA_BROKERS=k1:9092, k2:9092\n"), 0o600))
	t.Setenv("ACTUATOR_TIMEOUT", "750ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.ActuatorPort)
	assert.Equal(t, 750*time.Millisecond, cfg.ActuatorTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clean(t)
	t.Setenv("ACTUATOR_PORT", "http")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)

	t.Setenv("ACTUATOR_PORT", "")
	t.Setenv("ACTUATOR_TIMEOUT", "-1s")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
