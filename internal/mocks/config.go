package mocks

import (
	"time"

	"github.com/cradoe/payvista/internal/config"
)

var MockConfig = newMockConfig()

func newMockConfig() *config.Config {
	cfg := &config.Config{
		BaseURL:      "http://localhost",
		HttpPort:     8080,
		RedisServer:  "localhost:6379",
		KafkaServers: "localhost:9092",
	}

	cfg.Db.Dsn = "mock_dsn"
	cfg.Jwt.SecretKey = "test_secret"
	cfg.Notifications.Email = "no-reply@example.com"

	cfg.Smtp.Host = "smtp.example.com"
	cfg.Smtp.Port = 587
	cfg.Smtp.Username = "user@example.com"
	cfg.Smtp.Password = "password"
	cfg.Smtp.From = "no-reply@example.com"

	cfg.VTU.BaseURL = "http://vtu.local"
	cfg.VTU.ApiKey = "vtu_key"
	cfg.VTU.Timeout = 5 * time.Second

	cfg.GatewayTimeout = 5 * time.Second
	cfg.Webhook.MaxAttempts = 3

	cfg.Reconcile.Interval = time.Minute
	cfg.Reconcile.PendingTimeout = 10 * time.Minute
	cfg.Reconcile.MaxPendingAge = 24 * time.Hour

	cfg.Scheduler.Token = "scheduler_token"
	cfg.Scheduler.MaxFailures = 3

	return cfg
}
