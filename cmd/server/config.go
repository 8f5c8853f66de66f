package main

import "time"

type Config struct {
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	Host              string        `env:"HOST,default=0.0.0.0"`
	Port              int           `env:"PORT,default=8000"`
	GRPCPort          int           `env:"GRPC_PORT,default=8001"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath     string        `env:"BLUGE_FILEPATH,required=true"`
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT,default=5s"`
	ReadLimit         int64         `env:"READ_LIMIT,default=65536"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,default=30s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	DebugPort         int           `env:"DEBUG_PORT,default=8081"`
}
