package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type AppConfig struct {
	Port     string
	CoAPAddr string
	DBPath   string
	LogLevel string

	ActuatorName    string
	ActuatorPort    int
	ActuatorTimeout time.Duration

	SavePartition string
	SeedCatalog   string

	APIToken    string
	CORSOrigins []string

	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string
	KafkaBrokers    []string
	KafkaTopic      string
}

// Load reads envFile (default .env) when present and overlays the process environment.
func Load(envFile string) (AppConfig, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	get := func(k, def string) string {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
		return def
	}
	cfg := AppConfig{
		Port:            get("PORT", "8080"),
		CoAPAddr:        get("COAP_ADDR", "[::]:5683"),
		DBPath:          get("DB_PATH", "seedbot.db"),
		LogLevel:        get("LOG_LEVEL", "info"),
		ActuatorName:    get("ACTUATOR_NAME", "sowing_actuator"),
		SavePartition:   get("SAVE_PARTITION", "shared"),
		SeedCatalog:     get("SEED_CATALOG", ""),
		APIToken:        get("API_TOKEN", ""),
		CORSOrigins:     list(get("CORS_ORIGINS", "*")),
		MQTTBroker:      get("MQTT_BROKER", ""),
		MQTTClientID:    get("MQTT_CLIENT_ID", "seedbot"),
		MQTTTopicPrefix: get("MQTT_TOPIC_PREFIX", "seedbot"),
		KafkaBrokers:    list(get("KAFKA_BROKERS", "")),
		KafkaTopic:      get("KAFKA_TOPIC", "seedbot.events"),
	}

	port, err := strconv.Atoi(get("ACTUATOR_PORT", "5683"))
	if err != nil || port <= 0 || port > 65535 {
		return AppConfig{}, fmt.Errorf("ACTUATOR_PORT: invalid port %q", os.Getenv("ACTUATOR_PORT"))
	}
	cfg.ActuatorPort = port

	timeout, err := time.ParseDuration(get("ACTUATOR_TIMEOUT", "5s"))
	if err != nil || timeout <= 0 {
		return AppConfig{}, fmt.Errorf("ACTUATOR_TIMEOUT: invalid duration %q", os.Getenv("ACTUATOR_TIMEOUT"))
	}
	cfg.ActuatorTimeout = timeout

	log.Debug().Str("port", cfg.Port).Str("coap", cfg.CoAPAddr).Str("db", cfg.DBPath).
		Str("actuator", cfg.ActuatorName).Bool("auth", cfg.APIToken != "").Msg("config loaded")
	return cfg, nil
}

func list(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
