package app

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cradoe/payvista/internal/cache"
	"github.com/cradoe/payvista/internal/config"
	"github.com/cradoe/payvista/internal/env"
	"github.com/cradoe/payvista/internal/errHandler"
	"github.com/cradoe/payvista/internal/gateway"
	"github.com/cradoe/payvista/internal/handler"
	"github.com/cradoe/payvista/internal/helper"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/cradoe/payvista/internal/service"
	"github.com/cradoe/payvista/internal/smtp"
	"github.com/cradoe/payvista/internal/stream"
	"github.com/cradoe/payvista/internal/vtu"
	"github.com/cradoe/payvista/internal/worker"
	"github.com/joho/godotenv"
)

// Essential services and resources are exposed to the application
// this makes it possible for methods to have access to these items and when they need them
type Application struct {
	Config       config.Config
	DB           repository.Database
	Logger       *slog.Logger
	Mailer       *smtp.Mailer
	WG           sync.WaitGroup
	errorHandler *errHandler.ErrorRepository
	helper       *helper.HelperRepository
	Kafka        *stream.KafkaStream
	Cache        *cache.Cache

	handler            *handler.RouteHandler
	notifier           *service.StreamNotifier
	Sweeper            *service.Sweeper
	Worker             *worker.Worker
	WebhookWorker      *worker.WebhookWorker
	NotificationWorker *worker.NotificationWorker
}

// LoadConfig reads the environment, after .env when there is one.
// Default values are provided for these items and these should strictly be values for development mode only
// make sure no production-level value is exposed as default value here
func LoadConfig(logger *slog.Logger) config.Config {
	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file loaded", "error", err.Error())
	}

	var cfg config.Config

	cfg.BaseURL = env.GetString("BASE_URL", "http://localhost:4444")
	cfg.HttpPort = env.GetInt("HTTP_PORT", 4444)

	cfg.Db.Dsn = env.GetString("DB_DSN", "user:pass@localhost:5432/payvista?sslmode=disable")
	cfg.Db.Automigrate = env.GetBool("DB_AUTOMIGRATE", true)

	cfg.RedisServer = env.GetString("REDIS_ADDR", "localhost:6379")
	cfg.RedisDB = env.GetInt("REDIS_DB", 0)

	cfg.Jwt.SecretKey = env.GetString("JWT_SECRET_KEY", "ajf5nx3qmp6zquevllxocxqvyz42ypuo")

	// server errors won't be sent via email if the NOTIFICATIONS_EMAIL wasn't set in the .env file
	cfg.Notifications.Email = env.GetString("NOTIFICATIONS_EMAIL", "")

	cfg.Smtp.Host = env.GetString("SMTP_HOST", "example.smtp.host")
	cfg.Smtp.Port = env.GetInt("SMTP_PORT", 25)
	cfg.Smtp.Username = env.GetString("SMTP_USERNAME", "example_username")
	cfg.Smtp.Password = env.GetString("SMTP_PASSWORD", "pa55word")
	cfg.Smtp.From = env.GetString("SMTP_FROM", "PayVista <no_reply@example.org>")

	cfg.KafkaServers = env.GetString("KAFKA_SERVERS", "localhost:9092")

	cfg.VTU.BaseURL = env.GetString("VTU_BASE_URL", "https://sandbox.vtu.example.com/api/v1")
	cfg.VTU.ApiKey = env.GetString("VTU_API_KEY", "")
	cfg.VTU.Timeout = env.GetDuration("VTU_TIMEOUT", 30*time.Second)

	cfg.Paystack.BaseURL = env.GetString("PAYSTACK_BASE_URL", "https://api.paystack.co")
	cfg.Paystack.SecretKey = env.GetString("PAYSTACK_SECRET_KEY", "")
	cfg.Paystack.CallbackURL = env.GetString("PAYSTACK_CALLBACK_URL", cfg.BaseURL+"/wallet/callback")

	cfg.Flutterwave.BaseURL = env.GetString("FLUTTERWAVE_BASE_URL", "https://api.flutterwave.com/v3")
	cfg.Flutterwave.SecretKey = env.GetString("FLUTTERWAVE_SECRET_KEY", "")
	cfg.Flutterwave.WebhookHash = env.GetString("FLUTTERWAVE_WEBHOOK_HASH", "")
	cfg.Flutterwave.RedirectURL = env.GetString("FLUTTERWAVE_REDIRECT_URL", cfg.BaseURL+"/wallet/callback")

	cfg.Stripe.SecretKey = env.GetString("STRIPE_SECRET_KEY", "")
	cfg.Stripe.WebhookSecret = env.GetString("STRIPE_WEBHOOK_SECRET", "")
	cfg.Stripe.SuccessURL = env.GetString("STRIPE_SUCCESS_URL", cfg.BaseURL+"/wallet/callback?status=success")
	cfg.Stripe.CancelURL = env.GetString("STRIPE_CANCEL_URL", cfg.BaseURL+"/wallet/callback?status=cancelled")

	cfg.GatewayTimeout = env.GetDuration("GATEWAY_TIMEOUT", 30*time.Second)

	cfg.Webhook.MaxAttempts = env.GetInt("WEBHOOK_MAX_ATTEMPTS", 3)

	cfg.Reconcile.Interval = env.GetDuration("RECONCILE_INTERVAL", time.Minute)
	cfg.Reconcile.PendingTimeout = env.GetDuration("RECONCILE_PENDING_TIMEOUT", 10*time.Minute)
	cfg.Reconcile.MaxPendingAge = env.GetDuration("RECONCILE_MAX_PENDING_AGE", 24*time.Hour)

	cfg.Scheduler.Token = env.GetString("SCHEDULER_TOKEN", "")
	cfg.Scheduler.MaxFailures = env.GetInt("SCHEDULE_MAX_FAILURES", 3)

	return cfg
}

func NewApplication(logger *slog.Logger) (*Application, error) {
	cfg := LoadConfig(logger)

	db, err := repository.New(cfg.Db.Dsn, cfg.Db.Automigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	app := &Application{
		Config: cfg,
		DB:     db,
		Logger: logger,
		Mailer: mailer,
		Kafka:  stream.New(cfg.KafkaServers, logger),
		Cache:  cache.New(cfg.RedisServer, cfg.RedisDB),
	}

	app.errorHandler = errHandler.New(cfg.Notifications.Email, cfg.BaseURL, mailer, logger)
	app.helper = helper.New(cfg.BaseURL, &app.WG, app.errorHandler)

	app.wire()

	return app, nil
}

// wire builds the services, workers and route handler on top of the
// application's infrastructure.
func (app *Application) wire() {
	cfg := &app.Config
	logger := app.Logger

	gateways := gateway.NewRegistry(
		gateway.NewPaystack(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.Paystack.CallbackURL, cfg.GatewayTimeout),
		gateway.NewFlutterwave(cfg.Flutterwave.BaseURL, cfg.Flutterwave.SecretKey, cfg.Flutterwave.WebhookHash, cfg.Flutterwave.RedirectURL, cfg.GatewayTimeout),
		gateway.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL, nil),
	)

	provider := vtu.NewClient(cfg.VTU.BaseURL, cfg.VTU.ApiKey, cfg.VTU.Timeout, logger)

	app.notifier = service.NewStreamNotifier(app.Kafka, logger)

	beneficiaries := service.NewBeneficiaryService(app.DB, logger)
	purchases := service.NewPurchaseService(app.DB, provider, app.notifier, beneficiaries, logger, cfg.VTU.Timeout)
	funding := service.NewFundingService(app.DB, gateways, app.notifier, logger, cfg.GatewayTimeout)
	webhooks := service.NewWebhookService(app.DB, gateways, app.Cache, app.Kafka, funding, logger)

	app.Sweeper = service.NewSweeper(app.DB, provider, purchases, funding, logger, cfg.Reconcile.PendingTimeout, cfg.Reconcile.MaxPendingAge)

	app.Worker = worker.New(app.Kafka, logger)
	app.WebhookWorker = worker.NewWebhookWorker(webhooks, app.Kafka, cfg.Webhook.MaxAttempts, logger)
	app.NotificationWorker = worker.NewNotificationWorker(app.DB, app.Mailer, app.helper, logger)

	app.handler = handler.NewRouteHandler(&handler.RouteHandler{
		DB:            app.DB,
		Accounts:      service.NewAccountService(app.DB),
		Purchases:     purchases,
		Funding:       funding,
		Webhooks:      webhooks,
		Gateways:      gateways,
		Catalog:       service.NewCatalogService(app.DB, app.Cache, logger),
		Beneficiaries: beneficiaries,
		Schedules:     service.NewScheduleService(app.DB, purchases, logger, cfg.Scheduler.MaxFailures),
		ErrHandler:    app.errorHandler,
		Helper:        app.helper,
		Config:        cfg,
		Logger:        logger,
	})
}

// Close releases the application's connections. Call it after every
// goroutine using them has returned.
func (app *Application) Close() {
	app.notifier.Wait()
	app.Kafka.Close()

	if err := app.Cache.Close(); err != nil {
		app.Logger.Error("close redis", "error", err.Error())
	}
	if err := app.DB.Close(); err != nil {
		app.Logger.Error("close database", "error", err.Error())
	}
}
