package main

import "github.com/kelseyhightower/envconfig"

type Config struct {
	ServerURL string `envconfig:"CHAT_SERVER_URL" default:"http://localhost:8000"`
	GRPCAddr  string `envconfig:"CHAT_GRPC_ADDR" default:"localhost:8001"`
	Username  string `envconfig:"CHAT_USERNAME" required:"true"`
	Password  string `envconfig:"CHAT_PASSWORD" required:"true"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"WARN"`
	// CHAT_COLOURS enables colorized output
	Colours bool `envconfig:"CHAT_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
