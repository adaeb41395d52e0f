// Settled transactions are published once their unit of work has committed.
// This worker turns each one into an email to the owner of the wallet.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/cradoe/payvista/internal/helper"
	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/cradoe/payvista/internal/service"
	"github.com/cradoe/payvista/internal/smtp"
	"github.com/cradoe/payvista/internal/stream"
)

type NotificationWorker struct {
	db     repository.Database
	mailer smtp.MailerInterface
	helper *helper.HelperRepository
	logger *slog.Logger
}

func NewNotificationWorker(db repository.Database, mailer smtp.MailerInterface, helper *helper.HelperRepository, logger *slog.Logger) *NotificationWorker {
	return &NotificationWorker{
		db:     db,
		mailer: mailer,
		helper: helper,
		logger: logger,
	}
}

func (wk *Worker) NotificationWorker(ctx context.Context, notifications *NotificationWorker) error {
	return wk.Consume(ctx, settlementNotificationGroupID, stream.TransactionSettledTopic, notifications.Handle)
}

// Handle only returns an error when the database could not be read; a
// failed email is logged and dropped.
func (w *NotificationWorker) Handle(ctx context.Context, value []byte) error {
	var event service.SettlementEvent
	if err := json.Unmarshal(value, &event); err != nil {
		w.logger.Error("undecodable settlement event", "error", err.Error())
		return nil
	}

	user, found, err := w.db.User().GetOne(ctx, event.UserID)
	if err != nil {
		return err
	}
	if !found {
		w.logger.Warn("settlement event for unknown user", "user_id", event.UserID, "reference", event.Reference)
		return nil
	}

	currency := models.DefaultCurrency
	wallet, found, err := w.db.Wallet().GetByUserID(ctx, user.ID)
	if err != nil {
		return err
	}
	if found {
		currency = wallet.Currency
	}

	emailData := w.helper.NewEmailData()
	emailData["Name"] = user.FullName()
	emailData["Type"] = string(event.Type)
	emailData["Status"] = string(event.Status)
	emailData["Amount"] = event.Amount
	emailData["Currency"] = currency
	emailData["Reference"] = event.Reference
	emailData["Recipient"] = event.Recipient
	emailData["SettledAt"] = event.SettledAt

	if err := w.mailer.Send(user.Email, emailData, "transaction-settled.tmpl"); err != nil {
		w.logger.Error("send settlement email", "reference", event.Reference, "error", err.Error())
		return nil
	}

	w.logger.Info("settlement email sent", "reference", event.Reference, "status", string(event.Status))
	return nil
}
