package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// PositionWorkers is the number of sharded workers draining the agent
	// position queue.
	PositionWorkers int `env:"POSITION_WORKERS, default=8"`

	Mongo    MongoConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	Routing  RoutingConfig
	Notifier NotifierConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=courier_system"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type MQTTConfig struct {
	// BrokerURL empty disables the MQTT position ingress; HTTP ingestion
	// keeps working either way.
	BrokerURL string `env:"MQTT_BROKER_URL"`
	ClientID  string `env:"MQTT_CLIENT_ID, default=courier-system"`
	Username  string `env:"MQTT_USERNAME"`
	Password  string `env:"MQTT_PASSWORD"`
}

type RoutingConfig struct {
	OSRMBaseURL string `env:"OSRM_BASE_URL, default=http://router.project-osrm.org"`
}

type NotifierConfig struct {
	// WebhookURL empty disables outbound notifications.
	WebhookURL string `env:"NOTIFY_WEBHOOK_URL"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
