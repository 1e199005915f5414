package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the application settings.
type Config struct {
	ServerAddress  string
	Environment    string
	UpstreamConfig UpstreamConfig
	RedisConfig    RedisConfig
	MQTTConfig     MQTTConfig
	SessionConfig  SessionConfig
}

// UpstreamConfig points at the backend that owns labs, machines, work orders
// and downtime telemetry.
type UpstreamConfig struct {
	BaseURL string
	// Zero leaves the transport default in place.
	Timeout           time.Duration
	DowntimeTimeRange string
	// Zero means one in-flight downtime request per machine.
	DowntimeConcurrency int
}

// RedisConfig holds the Redis settings for the lab list cache.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Username string
	Password string
	DB       int
	PoolSize int
	LabTTL   time.Duration
}

type MQTTConfig struct {
	BrokerURL          string
	ClientID           string
	Username           string
	Password           string
	NotifyTopic        string
	LabInvalidateTopic string
}

type SessionConfig struct {
	HashKey   string
	BlockKey  string
	Secure    bool
	LoginPath string
}

var defaults = map[string]any{
	"SERVER_ADDRESS": ":8080",
	"ENVIRONMENT":    "development",

	"UPSTREAM_API_URL":         "http://localhost:3000",
	"UPSTREAM_TIMEOUT_SECONDS": 0,
	"DOWNTIME_TIME_RANGE":      "-7d",
	"DOWNTIME_CONCURRENCY":     0,

	"REDIS_ENABLED":         false,
	"REDIS_HOST":            "localhost",
	"REDIS_PORT":            "6379",
	"REDIS_DB":              0,
	"REDIS_POOL_SIZE":       10,
	"LAB_CACHE_TTL_SECONDS": 300,

	"MQTT_CLIENT_ID":            "sage-insights",
	"MQTT_NOTIFY_TOPIC":         "sage/notifications",
	"MQTT_LAB_INVALIDATE_TOPIC": "sage/labs/+/invalidate",

	"SESSION_HASH_KEY": "dev-only-session-hash-key-change-me",
	"SESSION_SECURE":   false,
	"LOGIN_PATH":       "/login",
}

// LoadConfig reads the settings from environment variables. Empty variables
// count as unset; numbers and booleans that do not parse read as zero values.
func LoadConfig() *Config {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	upstreamConfig := UpstreamConfig{
		BaseURL:             v.GetString("UPSTREAM_API_URL"),
		Timeout:             time.Duration(v.GetInt("UPSTREAM_TIMEOUT_SECONDS")) * time.Second,
		DowntimeTimeRange:   v.GetString("DOWNTIME_TIME_RANGE"),
		DowntimeConcurrency: v.GetInt("DOWNTIME_CONCURRENCY"),
	}

	redisConfig := RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetString("REDIS_PORT"),
		Username: v.GetString("REDIS_USERNAME"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),
		LabTTL:   time.Duration(v.GetInt("LAB_CACHE_TTL_SECONDS")) * time.Second,
	}

	mqttConfig := MQTTConfig{
		BrokerURL:          v.GetString("MQTT_BROKER"),
		ClientID:           v.GetString("MQTT_CLIENT_ID"),
		Username:           v.GetString("MQTT_USERNAME"),
		Password:           v.GetString("MQTT_PASSWORD"),
		NotifyTopic:        v.GetString("MQTT_NOTIFY_TOPIC"),
		LabInvalidateTopic: v.GetString("MQTT_LAB_INVALIDATE_TOPIC"),
	}

	sessionConfig := SessionConfig{
		HashKey:   v.GetString("SESSION_HASH_KEY"),
		BlockKey:  v.GetString("SESSION_BLOCK_KEY"),
		Secure:    v.GetBool("SESSION_SECURE"),
		LoginPath: v.GetString("LOGIN_PATH"),
	}

	return &Config{
		ServerAddress:  v.GetString("SERVER_ADDRESS"),
		Environment:    v.GetString("ENVIRONMENT"),
		UpstreamConfig: upstreamConfig,
		RedisConfig:    redisConfig,
		MQTTConfig:     mqttConfig,
		SessionConfig:  sessionConfig,
	}
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}
