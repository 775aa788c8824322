package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Database DatabaseConfig
	MQTT     MQTTConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Model    ModelConfig
	Pipeline PipelineConfig
}

type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost" validate:"required"`
	Port     int    `envconfig:"DB_PORT" default:"5432" validate:"gt=0,lt=65536"`
	User     string `envconfig:"DB_USER" default:"solar_user" validate:"required"`
	Password string `envconfig:"DB_PASSWORD" default:"solar_pass"`
	DBName   string `envconfig:"DB_NAME" default:"fhem" validate:"required"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable" validate:"oneof=disable require verify-ca verify-full"`
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type MQTTConfig struct {
	Host  string `envconfig:"MQTT_HOST" default:"localhost" validate:"required"`
	Port  int    `envconfig:"MQTT_PORT" default:"1883" validate:"gt=0,lt=65536"`
	Topic string `envconfig:"MQTT_TOPIC" default:"EnergyFc" validate:"required"`
}

// Broker returns the paho broker URL.
func (m MQTTConfig) Broker() string {
	return fmt.Sprintf("tcp://%s:%d", m.Host, m.Port)
}

// KafkaConfig is optional: an empty broker list disables the Kafka mirror.
type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_TOPIC_FORECASTS" default:"solar.forecasts.energy"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && strings.TrimSpace(k.Brokers[0]) != ""
}

// RedisConfig is optional: an empty address disables the latest-forecast cache.
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
	TTL      time.Duration `envconfig:"REDIS_FORECAST_TTL" default:"48h"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type ModelConfig struct {
	Dir            string `envconfig:"MODEL_PATH" default:"./models/" validate:"required"`
	BrightnessFile string `envconfig:"MODEL_BRIGHTNESS_FILE" default:"brightness.json" validate:"required"`
	EnergyFile     string `envconfig:"MODEL_ENERGY_FILE" default:"energy.json" validate:"required"`
}

type PipelineConfig struct {
	Debug     bool          `envconfig:"DEBUG" default:"false"`
	LogFormat string        `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	Delay     time.Duration `envconfig:"PIPELINE_DELAY" default:"5m" validate:"gte=0"`
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
