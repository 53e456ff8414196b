package v1

import (
	"io"
	"net/http"

	ierr "github.com/flexprice/payment-notifier/internal/errors"
	"github.com/flexprice/payment-notifier/internal/integration/stripe"
	"github.com/flexprice/payment-notifier/internal/logger"
	"github.com/flexprice/payment-notifier/internal/service"
	"github.com/gin-gonic/gin"
)

const stripeSignatureHeader = "Stripe-Signature"

// WebhookHandler receives Stripe webhook deliveries
type WebhookHandler struct {
	verifier       stripe.Verifier
	webhookService service.WebhookService
	logger         *logger.Logger
}

func NewWebhookHandler(
	verifier stripe.Verifier,
	webhookService service.WebhookService,
	logger *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		verifier:       verifier,
		webhookService: webhookService,
		logger:         logger,
	}
}

// HandleStripeWebhook answers 200 once the signature checks out, whether
// or not the event produces a chat message
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	// the signature covers the exact bytes, so the body is never re-encoded
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read request body").
			Mark(ierr.ErrValidation))
		return
	}

	event, err := h.verifier.Verify(body, c.GetHeader(stripeSignatureHeader))
	if err != nil {
		c.Error(err)
		return
	}

	h.webhookService.HandleEvent(c.Request.Context(), event)

	c.String(http.StatusOK, "ok")
}
