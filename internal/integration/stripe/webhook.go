package stripe

import (
	"time"

	"github.com/flexprice/payment-notifier/internal/config"
	ierr "github.com/flexprice/payment-notifier/internal/errors"
	"github.com/flexprice/payment-notifier/internal/logger"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Verifier checks inbound Stripe webhook signatures
type Verifier interface {
	// Verify checks signature against the exact raw body and returns the
	// decoded event
	Verify(payload []byte, signature string) (*VerifiedEvent, error)
}

type verifier struct {
	secret    string
	tolerance time.Duration
	logger    *logger.Logger
}

func NewVerifier(cfg *config.Configuration, logger *logger.Logger) Verifier {
	tolerance := cfg.Stripe.SignatureTolerance
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &verifier{
		secret:    cfg.Stripe.WebhookSecret,
		tolerance: tolerance,
		logger:    logger,
	}
}

func (v *verifier) Verify(payload []byte, signature string) (*VerifiedEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		v.logger.Warnw("stripe webhook verification failed",
			"error", err,
			"payload_length", len(payload),
			"has_signature", signature != "",
		)
		return nil, ierr.WithError(err).
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrVerification)
	}

	verified := &VerifiedEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}
	if event.Data != nil {
		verified.Data = event.Data.Raw
	}
	return verified, nil
}
