package reconciler

import (
	"errors"
	"io"
	"net/http"

	"therapylink_backend/internal/common"
	"therapylink_backend/internal/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	signatureHeader = "Stripe-Signature"
	maxWebhookBytes = 65536
)

// WebhookHandler receives payment provider events. A bad signature is a 400
// and changes nothing; a handler error is a 500 so the provider redelivers.
type WebhookHandler struct {
	verifier   payment.WebhookVerifier
	reconciler *Reconciler
	logger     *zap.Logger
}

func NewWebhookHandler(verifier payment.WebhookVerifier, reconciler *Reconciler, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, reconciler: reconciler, logger: logger.Named("Webhook")}
}

func (h *WebhookHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/webhooks/stripe", h.handleStripe)
}

func (h *WebhookHandler) handleStripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Could not read webhook body."))
		return
	}

	evt, err := h.verifier.Verify(payload, c.GetHeader(signatureHeader))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			h.logger.Warn("Rejected webhook with invalid signature", zap.Error(err))
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid webhook signature."))
			return
		}
		common.RespondWithError(c, err)
		return
	}

	if err := h.reconciler.Dispatch(c.Request.Context(), evt); err != nil {
		h.logger.Error("Webhook handler failed",
			zap.String("eventID", evt.ID),
			zap.String("type", evt.Type),
			zap.Error(err),
		)
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Webhook processing failed."))
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
