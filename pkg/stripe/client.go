package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/workoutbrothers/storefront-backend/pkg/config"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"

	defaultTimeout = 10 * time.Second
)

// Event types the storefront reacts to.
const (
	EventPaymentIntentSucceeded = string(stripe.EventTypePaymentIntentSucceeded)
	EventPaymentIntentFailed    = string(stripe.EventTypePaymentIntentPaymentFailed)

	IntentStatusSucceeded = string(stripe.PaymentIntentStatusSucceeded)
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	ErrSecretRequired   = errors.New("stripe webhook secret is required")
	ErrInvalidSignature = errors.New("stripe webhook signature invalid")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Intent is the subset of a Stripe PaymentIntent the storefront uses.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountCents  int64
	Currency     string
	Metadata     map[string]string
}

// Event is a verified webhook event. Intent is set for payment_intent.* events.
type Event struct {
	ID     string
	Type   string
	Intent *Intent
}

// Client talks to the Stripe PaymentIntents API with a per-client key.
type Client struct {
	intents       *paymentintent.Client
	environment   string
	signingSecret string
	timeout       time.Duration
}

// NewClient validates the key against the environment and builds the client.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "stripe_env", env), "stripe client initialized")
	}

	return &Client{
		intents:       &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: apiKey},
		environment:   env,
		signingSecret: strings.TrimSpace(cfg.Secret),
		timeout:       timeout,
	}, nil
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// CreatePaymentIntent opens an intent for amountCents in the given currency.
func (c *Client) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := c.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return intentFrom(pi), nil
}

// RetrievePaymentIntent fetches the current state of an intent.
func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.intents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent %s: %w", id, err)
	}
	return intentFrom(pi), nil
}

// VerifyWebhook checks the Stripe-Signature header and decodes the event.
func (c *Client) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	return VerifyWebhook(payload, signature, c.signingSecret)
}

// VerifyWebhook is the key-less form of Client.VerifyWebhook.
func VerifyWebhook(payload []byte, signature, secret string) (*Event, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	evt, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && evt.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.Intent = intentFrom(&pi)
	}
	return out, nil
}

func intentFrom(pi *stripe.PaymentIntent) *Intent {
	if pi == nil {
		return nil
	}
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	prefixes := map[string][]string{
		testEnv: {"sk_test", "rk_test"},
		liveEnv: {"sk_live", "rk_live"},
	}
	for _, prefix := range prefixes[env] {
		if strings.HasPrefix(key, prefix) {
			return nil
		}
	}
	return fmt.Errorf("stripe environment %q requires a %s secret key", env, env)
}

// WebhookSecret verifies deliveries with only the signing secret, so webhooks
// work even when no API key is configured.
type WebhookSecret string

func (s WebhookSecret) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	return VerifyWebhook(payload, signature, strings.TrimSpace(string(s)))
}
