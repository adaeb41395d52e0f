package vtu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type apiResponse struct {
	Success *bool           `json:"success"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) makeRequest(ctx context.Context, endpoint string, payload map[string]any) (Outcome, int) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Outcome{Success: false, Message: "invalid provider request: " + err.Error()}, 0
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Outcome{Success: false, Message: "invalid provider request: " + err.Error()}, 0
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("vtu provider unreachable", "endpoint", endpoint, "reference", payload["reference"], "error", err.Error())
		return Outcome{Success: false, Message: "Service provider unavailable: " + err.Error()}, 0
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Outcome{Success: false, Message: "Service provider unavailable: " + err.Error()}, resp.StatusCode
	}

	var parsed apiResponse
	parseErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := "VTU provider API error"
		if parseErr == nil && parsed.Message != "" {
			message = parsed.Message
		}

		c.logger.Error("vtu provider error",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"reference", payload["reference"],
			"response", string(raw),
		)
		return Outcome{Success: false, Message: message, Data: rawOrNil(parsed.Data, parseErr)}, resp.StatusCode
	}

	// a 2xx without a readable body is not proof of fulfilment
	if parseErr != nil {
		c.logger.Warn("vtu provider returned unparsable body", "endpoint", endpoint, "reference", payload["reference"])
		return Outcome{Success: false, Message: "Unreadable response from service provider"}, resp.StatusCode
	}

	// nor is an empty one: it must carry a verdict or a payload
	if parsed.Success == nil && parsed.Status == "" && rawOrNil(parsed.Data, nil) == nil {
		c.logger.Warn("vtu provider returned empty body", "endpoint", endpoint, "reference", payload["reference"], "response", string(raw))
		return Outcome{Success: false, Message: "Unreadable response from service provider"}, resp.StatusCode
	}

	if (parsed.Success != nil && !*parsed.Success) || declinedStatus(parsed.Status) {
		message := parsed.Message
		if message == "" {
			message = "Request declined by service provider"
		}
		return Outcome{Success: false, Message: message, Data: parsed.Data}, resp.StatusCode
	}

	message := parsed.Message
	if message == "" {
		message = "Success"
	}

	return Outcome{Success: true, Message: message, Data: parsed.Data}, resp.StatusCode
}

func declinedStatus(status string) bool {
	switch strings.ToLower(status) {
	case "failed", "error", "declined":
		return true
	}
	return false
}

func rawOrNil(data json.RawMessage, parseErr error) json.RawMessage {
	if parseErr != nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	return data
}

func (c *Client) PurchaseAirtime(ctx context.Context, providerCode, phone string, amount decimal.Decimal, reference string) Outcome {
	outcome, _ := c.makeRequest(ctx, "airtime/purchase", map[string]any{
		"provider":  providerCode,
		"phone":     phone,
		"amount":    amount,
		"reference": reference,
	})
	return outcome
}

func (c *Client) PurchaseData(ctx context.Context, providerCode, phone, packageCode, reference string) Outcome {
	outcome, _ := c.makeRequest(ctx, "data/purchase", map[string]any{
		"provider":     providerCode,
		"phone":        phone,
		"package_code": packageCode,
		"reference":    reference,
	})
	return outcome
}

func (c *Client) VerifyMeter(ctx context.Context, providerCode, meterNumber, meterType string) Outcome {
	outcome, _ := c.makeRequest(ctx, "electricity/verify", map[string]any{
		"provider":     providerCode,
		"meter_number": meterNumber,
		"meter_type":   meterType,
	})
	return outcome
}

func (c *Client) PayElectricity(ctx context.Context, providerCode, meterNumber, meterType string, amount decimal.Decimal, phone, reference string) Outcome {
	outcome, _ := c.makeRequest(ctx, "electricity/pay", map[string]any{
		"provider":     providerCode,
		"meter_number": meterNumber,
		"meter_type":   meterType,
		"amount":       amount,
		"phone":        phone,
		"reference":    reference,
	})
	return outcome
}

func (c *Client) VerifySmartCard(ctx context.Context, providerCode, smartCardNumber string) Outcome {
	outcome, _ := c.makeRequest(ctx, "cable/verify", map[string]any{
		"provider":          providerCode,
		"smart_card_number": smartCardNumber,
	})
	return outcome
}

func (c *Client) SubscribeCable(ctx context.Context, providerCode, smartCardNumber, packageCode, phone, reference string) Outcome {
	outcome, _ := c.makeRequest(ctx, "cable/subscribe", map[string]any{
		"provider":          providerCode,
		"smart_card_number": smartCardNumber,
		"package_code":      packageCode,
		"phone":             phone,
		"reference":         reference,
	})
	return outcome
}

func (c *Client) QueryTransaction(ctx context.Context, reference string) (DeliveryStatus, Outcome) {
	outcome, status := c.makeRequest(ctx, "transaction/query", map[string]any{
		"reference": reference,
	})

	if status == http.StatusNotFound {
		return NotDelivered, outcome
	}
	if !outcome.Success {
		return Unknown, outcome
	}

	var data struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(outcome.Data, &data); err != nil {
		return Unknown, outcome
	}

	switch strings.ToLower(data.Status) {
	case "delivered", "successful", "success", "completed":
		return Delivered, outcome
	case "failed", "reversed", "refunded", "cancelled":
		return NotDelivered, outcome
	}

	return Unknown, outcome
}
