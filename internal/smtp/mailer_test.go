package smtp

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type recordingClient struct {
	sent []*mail.Msg
}

func (c *recordingClient) DialAndSend(msgs ...*mail.Msg) error {
	c.sent = append(c.sent, msgs...)
	return nil
}

func TestSendRendersSettledTemplate(t *testing.T) {
	client := &recordingClient{}
	mailer := NewWithClient(client, "PayVista <no_reply@payvista.ng>")

	data := map[string]any{
		"Name":      "Ada Obi",
		"Type":      "airtime_purchase",
		"Status":    "completed",
		"Amount":    decimal.NewFromInt(500),
		"Currency":  "NGN",
		"Reference": "PV-AIR-0001",
		"Recipient": "08031234567",
		"SettledAt": time.Date(2025, 4, 13, 10, 0, 0, 0, time.UTC),
	}

	err := mailer.Send("ada@example.com", data, "transaction-settled.tmpl")
	require.NoError(t, err)
	require.Len(t, client.sent, 1)

	subject := client.sent[0].GetGenHeader(mail.HeaderSubject)
	require.Equal(t, []string{"Your Airtime purchase was successful"}, subject)
}
