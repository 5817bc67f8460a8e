package hub

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	mailgun "github.com/mailgun/mailgun-go/v3"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

// Notifier delivers an alert message.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

type MailgunConfig struct {
	APIKey     string
	Domain     string
	Sender     string
	Recipients []string
}

func (c MailgunConfig) Enabled() bool {
	return c.APIKey != "" && c.Domain != "" && c.Sender != "" && len(c.Recipients) > 0
}

// MailgunNotifier sends alerts by e-mail.
type MailgunNotifier struct {
	mg  mailgun.Mailgun
	cfg MailgunConfig
}

func NewMailgunNotifier(cfg MailgunConfig) *MailgunNotifier {
	return &MailgunNotifier{mg: mailgun.NewMailgun(cfg.Domain, cfg.APIKey), cfg: cfg}
}

func (n *MailgunNotifier) Notify(ctx context.Context, subject, body string) error {
	msg := n.mg.NewMessage(n.cfg.Sender, subject, body, n.cfg.Recipients...)
	resp, id, err := n.mg.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	if id == "" {
		return fmt.Errorf("mailgun send: empty message id (%s)", resp)
	}
	return nil
}

// Alerter raises one alert when the temperature crosses High and one more
// when it falls back under High-Hysteresis.
type Alerter struct {
	High       float64
	Hysteresis float64
	notifier   Notifier
	timeout    time.Duration

	mu      sync.Mutex
	alarmed bool
	wg      sync.WaitGroup
}

func NewAlerter(n Notifier, high, hysteresis float64) *Alerter {
	if hysteresis < 0 {
		hysteresis = 0
	}
	return &Alerter{High: high, Hysteresis: hysteresis, notifier: n, timeout: 10 * time.Second}
}

// Check evaluates a new temperature reading.
func (a *Alerter) Check(temp float64) {
	a.mu.Lock()
	var subject, body string
	switch {
	case !a.alarmed && temp >= a.High:
		a.alarmed = true
		subject = "ESP32 temperature alert"
		body = fmt.Sprintf("Temperature is %s °C (threshold %s °C).", model.FormatTemperature(temp), model.FormatTemperature(a.High))
	case a.alarmed && temp < a.High-a.Hysteresis:
		a.alarmed = false
		subject = "ESP32 temperature back to normal"
		body = fmt.Sprintf("Temperature is %s °C.", model.FormatTemperature(temp))
	}
	a.mu.Unlock()

	if subject == "" {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.notifier.Notify(ctx, subject, body); err != nil {
			log.Printf("[Error] hub: failed to send alert %q: %v", subject, err)
			return
		}
		log.Printf("hub: alert sent: %s", subject)
	}()
}

// Alarmed reports whether the temperature is currently over the threshold.
func (a *Alerter) Alarmed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alarmed
}

// Wait blocks until in-flight notifications are done.
func (a *Alerter) Wait() { a.wg.Wait() }
