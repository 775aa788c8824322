package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1883, cfg.MQTT.Port)
	assert.Equal(t, "EnergyFc", cfg.MQTT.Topic)
	assert.Equal(t, "fhem", cfg.Database.DBName)
	assert.Equal(t, "brightness.json", cfg.Model.BrightnessFile)
	assert.Equal(t, 48*time.Hour, cfg.Redis.TTL)
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MQTT_HOST", "nas.local")
	t.Setenv("MQTT_TOPIC", "SolarFc")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_ADDR", "nas.local:6379")
	t.Setenv("DEBUG", "true")
	t.Setenv("MODEL_PATH", "/opt/models")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tcp://nas.local:1883", cfg.MQTT.Broker())
	assert.Equal(t, "SolarFc", cfg.MQTT.Topic)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.Pipeline.Debug)
	assert.Equal(t, "/opt/models", cfg.Model.Dir)
	assert.Equal(t, "energy.json", cfg.Model.EnergyFile)
}

func TestLoad_RejectsInvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "fhem", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=fhem sslmode=disable", d.ConnectionString())
}
