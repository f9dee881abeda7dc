package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	AppName    string          `mapstructure:"APP_NAME"`
	AppVersion string          `mapstructure:"APP_VERSION"`
	LogLevel   string          `mapstructure:"LOG_LEVEL"`
	APIServer  APIServerConfig `mapstructure:"API_SERVER"`
	ChatServer ServerConfig    `mapstructure:"CHAT_SERVER"`
	Kafka      KafkaConfig     `mapstructure:"KAFKA"`
	Database   DatabaseConfig  `mapstructure:"DATABASE"`
	Storage    StorageConfig   `mapstructure:"STORAGE"`
	Auth       AuthConfig      `mapstructure:"AUTH"`
	WebSocket  WebSocketConfig `mapstructure:"WEBSOCKET"`
	Redis      RedisConfig     `mapstructure:"REDIS"`
	AI         AIConfig        `mapstructure:"AI"`
	Credits    CreditsConfig   `mapstructure:"CREDITS"`
}

// APIServerConfig holds configuration specific to the API server.
type APIServerConfig struct {
	Host string     `mapstructure:"HOST"`
	Port string     `mapstructure:"PORT"`
	CORS CORSConfig `mapstructure:"CORS"`
}

// CORSConfig holds configuration for CORS.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `mapstructure:"ALLOWED_METHODS"`
	AllowedHeaders   []string `mapstructure:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `mapstructure:"EXPOSED_HEADERS"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`
	MaxAge           int      `mapstructure:"MAX_AGE"`
}

// ServerConfig holds configuration for the chat (push) server.
type ServerConfig struct {
	Host           string        `mapstructure:"HOST"`
	Port           string        `mapstructure:"PORT"`
	WebSocketPath  string        `mapstructure:"WEBSOCKET_PATH"`
	ReadTimeout    time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `mapstructure:"WRITE_TIMEOUT"`
	MaxHeaderBytes int           `mapstructure:"MAX_HEADER_BYTES"`
}

// KafkaConfig holds configuration for Kafka.
type KafkaConfig struct {
	Brokers            []string `mapstructure:"BROKERS"`
	ClientID           string   `mapstructure:"CLIENT_ID"`
	NotificationsTopic string   `mapstructure:"NOTIFICATIONS_TOPIC"`
	StreamTopic        string   `mapstructure:"STREAM_TOPIC"`
	ConsumerGroup      string   `mapstructure:"CONSUMER_GROUP"`
	StreamGroup        string   `mapstructure:"STREAM_GROUP"`
	Protocol           string   `mapstructure:"PROTOCOL"`
}

// DatabaseConfig holds configuration for the database.
type DatabaseConfig struct {
	Type     string `mapstructure:"TYPE"`
	Host     string `mapstructure:"HOST"`
	Port     int    `mapstructure:"PORT"`
	User     string `mapstructure:"USER"`
	Password string `mapstructure:"PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"SSL_MODE"`
}

// StorageConfig holds configuration for file storage.
type StorageConfig struct {
	Type          string `mapstructure:"TYPE"`
	LocalPath     string `mapstructure:"LOCAL_PATH"`
	BaseURL       string `mapstructure:"BASE_URL"`
	MaxFileSizeMB int64  `mapstructure:"MAX_FILE_SIZE_MB"`
}

// AuthConfig holds configuration for authentication.
type AuthConfig struct {
	JWTSecretKey string        `mapstructure:"JWT_SECRET_KEY"`
	JWTExpiry    time.Duration `mapstructure:"JWT_EXPIRY"`
}

// WebSocketConfig holds configuration for WebSocket connections.
type WebSocketConfig struct {
	WriteWaitSeconds    int `mapstructure:"WRITE_WAIT_SECONDS"`
	PongWaitSeconds     int `mapstructure:"PONG_WAIT_SECONDS"`
	PingPeriodSeconds   int `mapstructure:"PING_PERIOD_SECONDS"`
	MaxMessageSizeBytes int `mapstructure:"MAX_MESSAGE_SIZE_BYTES"`
}

// RedisConfig holds configuration for Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"ADDR"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

// AIConfig holds configuration for the question generation backend.
type AIConfig struct {
	Provider       string        `mapstructure:"PROVIDER"`
	APIKey         string        `mapstructure:"API_KEY"`
	Model          string        `mapstructure:"MODEL"`
	Endpoint       string        `mapstructure:"ENDPOINT"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

// CreditsConfig holds the tunable amounts for the credits economy.
type CreditsConfig struct {
	SignupBonus      int64 `mapstructure:"SIGNUP_BONUS"`
	GenerationAward  int64 `mapstructure:"GENERATION_AWARD"`
	QuestionsPerUnit int   `mapstructure:"QUESTIONS_PER_UNIT"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()

	v.SetDefault("APP_NAME", "Lyceum")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("LOG_LEVEL", "info")

	// API server defaults
	v.SetDefault("API_SERVER.HOST", "0.0.0.0")
	v.SetDefault("API_SERVER.PORT", "8081")
	v.SetDefault("API_SERVER.CORS.ALLOWED_ORIGINS", []string{"http://localhost:5173"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"})
	v.SetDefault("API_SERVER.CORS.EXPOSED_HEADERS", []string{"Content-Length"})
	v.SetDefault("API_SERVER.CORS.ALLOW_CREDENTIALS", true)
	v.SetDefault("API_SERVER.CORS.MAX_AGE", 300)

	// Chat (push) server defaults
	v.SetDefault("CHAT_SERVER.HOST", "0.0.0.0")
	v.SetDefault("CHAT_SERVER.PORT", "8080")
	v.SetDefault("CHAT_SERVER.WEBSOCKET_PATH", "/ws")
	v.SetDefault("CHAT_SERVER.READ_TIMEOUT", 30*time.Second)
	v.SetDefault("CHAT_SERVER.WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("CHAT_SERVER.MAX_HEADER_BYTES", 1<<20)

	// Kafka defaults
	v.SetDefault("KAFKA.BROKERS", []string{"localhost:9092"})
	v.SetDefault("KAFKA.CLIENT_ID", "lyceum-client")
	v.SetDefault("KAFKA.NOTIFICATIONS_TOPIC", "lyceum-notifications")
	v.SetDefault("KAFKA.STREAM_TOPIC", "lyceum-stream-outgoing")
	v.SetDefault("KAFKA.CONSUMER_GROUP", "lyceum-api-server-group")
	v.SetDefault("KAFKA.STREAM_GROUP", "lyceum-chat-server-group")

	// Database defaults
	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "password")
	v.SetDefault("DATABASE.DB_NAME", "lyceum_db")
	v.SetDefault("DATABASE.SSL_MODE", "disable")

	// Storage defaults
	v.SetDefault("STORAGE.TYPE", "local")
	v.SetDefault("STORAGE.LOCAL_PATH", "./uploads")
	v.SetDefault("STORAGE.BASE_URL", "/static/uploads")
	v.SetDefault("STORAGE.MAX_FILE_SIZE_MB", 20)

	// Auth defaults
	v.SetDefault("AUTH.JWT_SECRET_KEY", "a_very_secret_key_that_should_be_changed")
	v.SetDefault("AUTH.JWT_EXPIRY", 24*time.Hour)

	// WebSocket defaults
	v.SetDefault("WEBSOCKET.WRITE_WAIT_SECONDS", 10)
	v.SetDefault("WEBSOCKET.PONG_WAIT_SECONDS", 60)
	v.SetDefault("WEBSOCKET.PING_PERIOD_SECONDS", 54)
	v.SetDefault("WEBSOCKET.MAX_MESSAGE_SIZE_BYTES", 4096)

	// Redis defaults
	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	// AI defaults
	v.SetDefault("AI.PROVIDER", "gemini")
	v.SetDefault("AI.MODEL", "gemini-2.0-flash")
	v.SetDefault("AI.ENDPOINT", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("AI.REQUEST_TIMEOUT", 60*time.Second)

	// Credits defaults
	v.SetDefault("CREDITS.SIGNUP_BONUS", 100)
	v.SetDefault("CREDITS.GENERATION_AWARD", 20)
	v.SetDefault("CREDITS.QUESTIONS_PER_UNIT", 5)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		// Config file not found; defaults and env vars still apply.
	}

	err = v.Unmarshal(&config)
	return
}
