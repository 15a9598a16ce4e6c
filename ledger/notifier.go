package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

type Notifier interface {
	SendBudgetAlert(ctx context.Context, monthlyTotal, threshold decimal.Decimal) error
}

type SlackNotifier struct {
	SlackWebhookURL string
}

type SlackWebhookBody struct {
	Text string `json:"text"`
}

// Sends a simple slack message to a channel via "incoming webhook".
//
// The slack incoming webhook must be already configured in the slack workplace.
func (n *SlackNotifier) SendBudgetAlert(ctx context.Context, monthlyTotal, threshold decimal.Decimal) error {
	msg := "⚠️ Vision API Budget Alert ⚠️\n"
	msg += fmt.Sprintf("Monthly cost total `$%s` exceeded the alert threshold `$%s`.\n", monthlyTotal.StringFixed(2), threshold.StringFixed(2))
	msg += "Alerting only; submissions are not being blocked.\n"

	body, err := json.Marshal(SlackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.SlackWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	client := http.DefaultClient
	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}
