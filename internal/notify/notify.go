// Package notify delivers coordinator alerts over Twilio SMS.
//
// High-priority clock-event scenarios page a human coordinator; everything
// else stays in the logs. Delivery failures are logged and returned, but
// callers treat notification as best effort.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier delivers an alert message to the on-call coordinator.
type Notifier interface {
	NotifyCoordinator(ctx context.Context, message string) error
}

// Opts holds configuration options for the Twilio notifier.
type Opts struct {
	AccountSID        string
	AuthToken         string
	FromNumber        string
	CoordinatorNumber string
}

// Option defines a configuration option for the Twilio notifier.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromNumber sets the sending phone number.
func WithFromNumber(from string) Option {
	return func(o *Opts) { o.FromNumber = from }
}

// WithCoordinatorNumber sets the coordinator's phone number.
func WithCoordinatorNumber(to string) Option {
	return func(o *Opts) { o.CoordinatorNumber = to }
}

// TwilioNotifier sends coordinator alerts as SMS via the Twilio REST API.
type TwilioNotifier struct {
	client      *twilio.RestClient
	from        string
	coordinator string
}

// NewTwilioNotifier creates a Twilio-backed notifier. Credentials and numbers
// fall back to the TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER
// and COORDINATOR_PHONE_NUMBER environment variables.
func NewTwilioNotifier(opts ...Option) (*TwilioNotifier, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromNumber == "" {
		cfg.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	}
	if cfg.CoordinatorNumber == "" {
		cfg.CoordinatorNumber = os.Getenv("COORDINATOR_PHONE_NUMBER")
	}

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("from number must be provided")
	}
	if cfg.CoordinatorNumber == "" {
		return nil, fmt.Errorf("coordinator number must be provided")
	}
	slog.Debug("notify.NewTwilioNotifier: notifier configured", "from", cfg.FromNumber, "coordinator", cfg.CoordinatorNumber)

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioNotifier{
		client:      client,
		from:        cfg.FromNumber,
		coordinator: cfg.CoordinatorNumber,
	}, nil
}

// NotifyCoordinator sends the alert text to the coordinator's phone.
func (n *TwilioNotifier) NotifyCoordinator(ctx context.Context, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.coordinator)
	params.SetFrom(n.from)
	params.SetBody(message)

	if _, err := n.client.Api.CreateMessage(params); err != nil {
		slog.Error("TwilioNotifier.NotifyCoordinator: send failed", "error", err)
		return fmt.Errorf("failed to notify coordinator: %w", err)
	}
	slog.Debug("TwilioNotifier.NotifyCoordinator: alert sent")
	return nil
}

// NoopNotifier drops alerts, logging them at debug level. Used when Twilio
// credentials are not configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyCoordinator(ctx context.Context, message string) error {
	slog.Debug("NoopNotifier.NotifyCoordinator: alert dropped", "message", message)
	return nil
}

// MockNotifier records alerts for tests. Safe for concurrent use since
// notifications may be delivered from background goroutines.
type MockNotifier struct {
	mu     sync.Mutex
	alerts []string
	Err    error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) NotifyCoordinator(ctx context.Context, message string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, message)
	return nil
}

// Alerts returns a copy of the recorded alert messages.
func (m *MockNotifier) Alerts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.alerts))
	copy(out, m.alerts)
	return out
}
