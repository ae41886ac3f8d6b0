package therapist

import (
	"net/http"

	"therapylink_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StepValidator runs the onboarding field rules and returns field -> message.
type StepValidator interface {
	ValidateBasicInfo(in BasicInfoInput) map[string]string
	ValidateCredentials(in CredentialsInput) map[string]string
	ValidateAvailability(in AvailabilityInput) map[string]string
}

type Handler struct {
	gateway   *Gateway
	validator StepValidator
	logger    *zap.Logger
}

func NewHandler(gateway *Gateway, validator StepValidator, logger *zap.Logger) *Handler {
	return &Handler{gateway: gateway, validator: validator, logger: logger}
}

// RegisterRoutes mounts the direct step-persistence routes. Steps may be
// posted in any order; every body is validated again here.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, therapistMW gin.HandlerFunc) {
	group := router.Group("/therapist")
	group.Use(authMW, therapistMW)
	{
		group.GET("/profile", h.getProfile)

		onboarding := group.Group("/onboarding")
		onboarding.GET("/basic-info", h.getBasicInfo)
		onboarding.POST("/basic-info", h.saveBasicInfo)
		onboarding.POST("/credentials", h.saveCredentials)
		onboarding.POST("/availability", h.saveAvailability)
		onboarding.POST("/stripe-connect", h.stripeConnect)
		onboarding.POST("/complete", h.complete)
	}
}

func (h *Handler) userID(c *gin.Context) (uuid.UUID, bool) {
	id := common.GetUserIDFromContext(c)
	if id == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) bind(c *gin.Context, dst interface{}) bool {
	if err := common.BindJSON(c, dst, "Request body is not valid JSON for this step."); err != nil {
		common.RespondWithError(c, err)
		return false
	}
	return true
}

func (h *Handler) respondFieldErrors(c *gin.Context, fields map[string]string) bool {
	if len(fields) == 0 {
		return false
	}
	common.LoggerFromContext(c, h.logger).Debug("Onboarding step rejected",
		zap.String("path", c.FullPath()), zap.Int("fields", len(fields)))
	common.RespondWithError(c, common.NewValidationAPIError(fields))
	return true
}

func (h *Handler) saveBasicInfo(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var in BasicInfoInput
	if !h.bind(c, &in) || h.respondFieldErrors(c, h.validator.ValidateBasicInfo(in)) {
		return
	}
	if err := h.gateway.SaveBasicInfo(c.Request.Context(), userID, in); err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) getBasicInfo(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	info, err := h.gateway.GetBasicInfo(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Basic info retrieved successfully.", info)
}

func (h *Handler) saveCredentials(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var in CredentialsInput
	if !h.bind(c, &in) || h.respondFieldErrors(c, h.validator.ValidateCredentials(in)) {
		return
	}
	if err := h.gateway.SaveCredentials(c.Request.Context(), userID, in); err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) saveAvailability(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var in AvailabilityInput
	if !h.bind(c, &in) || h.respondFieldErrors(c, h.validator.ValidateAvailability(in)) {
		return
	}
	if err := h.gateway.SaveAvailability(c.Request.Context(), userID, in); err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) stripeConnect(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	result, err := h.gateway.CreateOrFetchPaymentAccount(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "url": result.URL})
}

func (h *Handler) complete(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	done, err := h.gateway.CheckAndFinalizeCompletion(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "onboardingComplete": done})
}

func (h *Handler) getProfile(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	profile, err := h.gateway.GetProfile(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Therapist profile retrieved successfully.", profile)
}
