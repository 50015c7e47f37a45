package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config - конфигурация шлюза. Всё берётся из окружения,
// .env подхватывается для локальной разработки.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// REST-бэкенд и STOMP-брокер
	BackendURL string `env:"BACKEND_URL" envDefault:"http://localhost:9090"`
	BrokerURL  string `env:"BROKER_URL" envDefault:"ws://localhost:9090/ws"`

	JWTSecret string `env:"JWT_SECRET_KEY,required"`

	// асессор, чью смену обслуживает этот шлюз
	AsesorID string `env:"ASESOR_ID" envDefault:"agente"`

	// Redis для сессионного состояния; пусто - хранилище в памяти
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// размер страницы списков кейсов и сообщений
	PageSize int `env:"PAGE_SIZE" envDefault:"10"`
}

// Load читает конфигурацию из окружения
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env не найден, используются переменные окружения")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
