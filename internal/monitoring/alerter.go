// Package monitoring sends operational alerts to a webhook: immediately when
// an extraction tier rejects its credentials, and periodically when the
// fallback rate or API spend over a lookback window crosses a threshold.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/credit-extract/internal/config"
	"github.com/sells-group/credit-extract/internal/model"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertAuthFailure  AlertType = "auth_failure"
	AlertFallbackRate AlertType = "fallback_rate"
	AlertCostOverrun  AlertType = "cost_overrun"
)

// minSamples is the fewest outcomes a window needs before its fallback rate
// is judged.
const minSamples = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook. It also implements waterfall.Alerter.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
	now    func() time.Time
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

// NotifyAuthFailure posts an auth_failure alert for tier. Without a webhook
// it only logs.
func (a *Alerter) NotifyAuthFailure(ctx context.Context, tier model.Method, err error) error {
	alert := Alert{
		Type:     AlertAuthFailure,
		Severity: "critical",
		Message:  fmt.Sprintf("Extraction tier %s rejected its credentials", tier.Label()),
		Details: map[string]any{
			"tier":  tier.Label(),
			"error": errString(err),
		},
		Timestamp: a.now().UTC(),
	}
	if a.cfg.WebhookURL == "" {
		zap.L().Error("monitoring: auth failure (no webhook configured)",
			zap.String("tier", tier.Label()),
			zap.Error(err),
		)
		return nil
	}
	return a.sendWebhook(ctx, alert)
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := a.now().UTC()

	if a.cfg.FallbackRateThreshold > 0 && snap.Total >= minSamples && snap.FallbackRate > a.cfg.FallbackRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertFallbackRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Fallback rate %.1f%% exceeds threshold %.1f%% (%d fallback / %d documents in last %dh)",
				snap.FallbackRate*100, a.cfg.FallbackRateThreshold*100,
				snap.Fallback, snap.Total, snap.LookbackHours,
			),
			Details: map[string]any{
				"fallback_rate": snap.FallbackRate,
				"threshold":     a.cfg.FallbackRateThreshold,
				"fallback":      snap.Fallback,
				"total":         snap.Total,
			},
			Timestamp: now,
		})
	}

	if a.cfg.CostThresholdUSD > 0 && snap.CostUSD > a.cfg.CostThresholdUSD {
		alerts = append(alerts, Alert{
			Type:     AlertCostOverrun,
			Severity: "high",
			Message: fmt.Sprintf(
				"API cost $%.2f exceeds threshold $%.2f in last %dh",
				snap.CostUSD, a.cfg.CostThresholdUSD, snap.LookbackHours,
			),
			Details: map[string]any{
				"cost_usd":      snap.CostUSD,
				"threshold_usd": a.cfg.CostThresholdUSD,
				"total":         snap.Total,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
