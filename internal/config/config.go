package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Rabbit  RabbitConfig
	Consul  ConsulConfig
	Session SessionConfig
}

type ServerConfig struct {
	Port string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RabbitConfig struct {
	URI      string
	Exchange string
}

type ConsulConfig struct {
	Address        string
	ServiceName    string
	ServiceAddress string
}

type SessionConfig struct {
	// TTL for live sessions in the redis store.
	TTL time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "6660"),
		},
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGO_URI"),
			Database: getEnv("MONGO_DATABASE", "mykafa_quiz"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Rabbit: RabbitConfig{
			URI:      os.Getenv("RABBITMQ_URI"),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "mykafa.events"),
		},
		Consul: ConsulConfig{
			Address:        os.Getenv("CONSUL_ADDR"),
			ServiceName:    getEnv("SERVICE_NAME", "mykafa-quiz-service"),
			ServiceAddress: getEnv("SERVICE_ADDRESS", "localhost"),
		},
		Session: SessionConfig{
			TTL: time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
