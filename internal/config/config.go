package config

import "time"

type Config struct {
	BaseURL  string
	HttpPort int
	Db       struct {
		Dsn         string
		Automigrate bool
	}
	RedisServer string
	RedisDB     int
	Jwt         struct {
		SecretKey string
	}
	Notifications struct {
		Email string
	}
	Smtp struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	KafkaServers string

	// VTU is the airtime/data/electricity/cable aggregator
	VTU struct {
		BaseURL string
		ApiKey  string
		Timeout time.Duration
	}

	Paystack struct {
		BaseURL     string
		SecretKey   string
		CallbackURL string
	}
	Flutterwave struct {
		BaseURL     string
		SecretKey   string
		WebhookHash string
		RedirectURL string
	}
	Stripe struct {
		SecretKey     string
		WebhookSecret string
		SuccessURL    string
		CancelURL     string
	}
	GatewayTimeout time.Duration

	Webhook struct {
		MaxAttempts int
	}

	Reconcile struct {
		Interval       time.Duration
		PendingTimeout time.Duration
		MaxPendingAge  time.Duration
	}

	Scheduler struct {
		Token       string
		MaxFailures int
	}
}
