package onboarding

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"therapylink_backend/internal/common"
	"therapylink_backend/internal/filestorage"
	"therapylink_backend/internal/schedule"
	"therapylink_backend/internal/therapist"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentLinker creates or reuses the payment account and returns a fresh
// onboarding link. *therapist.Gateway implements it.
type PaymentLinker interface {
	CreateOrFetchPaymentAccount(ctx context.Context, userID uuid.UUID) (*therapist.PaymentAccountResult, error)
}

type Handler struct {
	store     DraftStore
	sequencer *Sequencer
	payments  PaymentLinker
	uploader  filestorage.Uploader
	kinds     filestorage.Kinds
	logger    *zap.Logger
}

func NewHandler(store DraftStore, sequencer *Sequencer, payments PaymentLinker, uploader filestorage.Uploader, kinds filestorage.Kinds, logger *zap.Logger) *Handler {
	return &Handler{
		store:     store,
		sequencer: sequencer,
		payments:  payments,
		uploader:  uploader,
		kinds:     kinds,
		logger:    logger,
	}
}

// RegisterRoutes mounts the draft routes under /therapist/onboarding/draft.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, therapistMW gin.HandlerFunc) {
	draft := router.Group("/therapist/onboarding/draft")
	draft.Use(authMW, therapistMW)
	{
		draft.GET("", h.getDraft)
		draft.DELETE("", h.resetDraft)

		draft.PATCH("/basic-info", h.patchBasicInfo)
		draft.PATCH("/credentials", h.patchCredentials)
		draft.PATCH("/availability", h.patchAvailability)

		draft.POST("/schedule/days/:day/toggle", h.toggleDay)
		draft.POST("/schedule/days/:day/blocks", h.addTimeBlock)
		draft.PUT("/schedule/days/:day/blocks/:index", h.updateTimeBlock)
		draft.DELETE("/schedule/days/:day/blocks/:index", h.removeTimeBlock)
		draft.POST("/schedule/apply-weekdays", h.applyToWeekdays)
		draft.POST("/schedule/apply-all", h.applyToAllDays)

		draft.POST("/certifications", h.addCertification)
		draft.DELETE("/certifications/:index", h.removeCertification)

		draft.POST("/uploads/profile-photo", h.uploadProfilePhoto)
		draft.POST("/uploads/license-document", h.uploadLicenseDocument)

		draft.POST("/payment/connect", h.connectPayment)
		draft.POST("/advance", h.advance)
		draft.POST("/retreat", h.retreat)
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

// loadOrCreate returns the stored draft or a fresh one. A fresh draft is
// not saved here.
func (h *Handler) loadOrCreate(ctx context.Context, userID uuid.UUID) (*Draft, error) {
	d, err := h.store.Load(ctx, userID)
	if errors.Is(err, ErrDraftNotFound) {
		return NewDraft(userID), nil
	}
	return d, err
}

// mutate loads the draft, applies fn and saves the result. fn errors are
// responded as-is and nothing is saved.
func (h *Handler) mutate(c *gin.Context, fn func(d *Draft) error) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	d, err := h.loadOrCreate(ctx, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := fn(d); err != nil {
		common.RespondWithError(c, err)
		return
	}
	d.Normalize()
	d.UpdatedAt = h.sequencer.now()
	if err := h.store.Save(ctx, d); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Onboarding draft updated.", d)
}

func (h *Handler) getDraft(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	d, err := h.store.Load(ctx, userID)
	if errors.Is(err, ErrDraftNotFound) {
		d = NewDraft(userID)
		err = h.store.Save(ctx, d)
	}
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Onboarding draft retrieved.", d)
}

func (h *Handler) resetDraft(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), userID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

// bindInto decodes the body over dst, so fields missing from the body keep
// their draft values.
func bindInto(c *gin.Context, dst interface{}) error {
	return common.BindJSON(c, dst, "Request body is not valid JSON for this step.")
}

func (h *Handler) patchBasicInfo(c *gin.Context) {
	h.mutate(c, func(d *Draft) error {
		return bindInto(c, &d.BasicInfo)
	})
}

func (h *Handler) patchCredentials(c *gin.Context) {
	h.mutate(c, func(d *Draft) error {
		return bindInto(c, &d.Credentials)
	})
}

func (h *Handler) patchAvailability(c *gin.Context) {
	h.mutate(c, func(d *Draft) error {
		return bindInto(c, &d.Availability)
	})
}

func scheduleError(err error) error {
	switch {
	case errors.Is(err, schedule.ErrUnknownDay):
		return common.ErrBadRequest.WithDetails("Unknown day of week.")
	case errors.Is(err, schedule.ErrBlockIndexOutOfRange):
		return common.ErrBadRequest.WithDetails("Time block index is out of range.")
	default:
		return err
	}
}

func parseIndex(c *gin.Context) (int, error) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, common.ErrBadRequest.WithDetails("Index must be an integer.")
	}
	return idx, nil
}

func (h *Handler) toggleDay(c *gin.Context) {
	h.mutate(c, func(d *Draft) error {
		return scheduleError(d.Availability.Schedule.ToggleDay(c.Param("day")))
	})
}

// addTimeBlock appends the block in the body, or the default block when the
// body is empty.
func (h *Handler) addTimeBlock(c *gin.Context) {
	h.mutate(c, func(d *Draft) error {
		block := schedule.DefaultTimeBlock
		if err := common.BindOptionalJSON(c, &block, "Time block must have startTime and endTime."); err != nil {
			return err
		}
		return scheduleError(d.Availability.Schedule.AddTimeBlock(c.Param("day"), block))
	})
}

func (h *Handler) updateTimeBlock(c *gin.Context) {
	h.mutate(c, func(d *Draft) error {
		idx, err := parseIndex(c)
		if err != nil {
			return err
		}
		var block schedule.TimeBlock
		if err := common.BindJSON(c, &block, "Time block must have startTime and endTime."); err != nil {
			return err
		}
		return scheduleError(d.Availability.Schedule.UpdateTimeBlock(c.Param("day"), idx, block))
	})
}

func (h *Handler) removeTimeBlock(c *gin.Context) {
	h.mutate(c, func(d *Draft) error {
		idx, err := parseIndex(c)
		if err != nil {
			return err
		}
		return scheduleError(d.Availability.Schedule.RemoveTimeBlock(c.Param("day"), idx))
	})
}

func (h *Handler) applyToWeekdays(c *gin.Context) {
	h.mutate(c, func(d *Draft) error {
		d.Availability.Schedule.ApplyToWeekdays()
		return nil
	})
}

func (h *Handler) applyToAllDays(c *gin.Context) {
	h.mutate(c, func(d *Draft) error {
		d.Availability.Schedule.ApplyToAllDays()
		return nil
	})
}

func (h *Handler) addCertification(c *gin.Context) {
	h.mutate(c, func(d *Draft) error {
		var cert therapist.Certification
		if err := common.BindJSON(c, &cert, "Certification name is required."); err != nil {
			return err
		}
		if strings.TrimSpace(cert.Name) == "" {
			return common.NewValidationAPIError(map[string]string{"name": "Certification name is required."})
		}
		d.Credentials.AdditionalCertifications = append(d.Credentials.AdditionalCertifications, cert)
		return nil
	})
}

func (h *Handler) removeCertification(c *gin.Context) {
	h.mutate(c, func(d *Draft) error {
		idx, err := parseIndex(c)
		if err != nil {
			return err
		}
		certs := d.Credentials.AdditionalCertifications
		if idx < 0 || idx >= len(certs) {
			return common.ErrBadRequest.WithDetails("Certification index is out of range.")
		}
		out := make([]therapist.Certification, 0, len(certs)-1)
		out = append(out, certs[:idx]...)
		d.Credentials.AdditionalCertifications = append(out, certs[idx+1:]...)
		return nil
	})
}

func (h *Handler) uploadProfilePhoto(c *gin.Context) {
	h.upload(c, h.kinds.ProfilePhoto, func(d *Draft, url string) {
		d.BasicInfo.ProfilePhotoURL = &url
	})
}

func (h *Handler) uploadLicenseDocument(c *gin.Context) {
	h.upload(c, h.kinds.LicenseDocument, func(d *Draft, url string) {
		d.Credentials.LicenseDocumentURL = &url
	})
}

// upload stores the multipart "file" field and records its URL in the
// draft. A failed upload leaves the previous URL in place.
func (h *Handler) upload(c *gin.Context, kind filestorage.Kind, set func(d *Draft, url string)) {
	h.mutate(c, func(d *Draft) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return common.ErrBadRequest.WithDetails("A file is required in the 'file' field.")
		}
		url, err := h.uploader.Upload(c.Request.Context(), fileHeader, kind)
		if err != nil {
			switch {
			case errors.Is(err, filestorage.ErrFileTooLarge):
				return common.ErrBadRequest.WithDetails(err.Error())
			case errors.Is(err, filestorage.ErrUnsupportedType):
				return common.ErrBadRequest.WithDetails(err.Error())
			}
			common.LoggerFromContext(c, h.logger).Error("Upload failed", zap.String("kind", kind.Name), zap.Error(err))
			return common.ErrExternalService.WithDetails("Could not store the uploaded file.")
		}
		set(d, url)
		return nil
	})
}

// connectPayment links the payment account and remembers it in the draft.
// The link URL is returned next to the draft.
func (h *Handler) connectPayment(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	d, err := h.loadOrCreate(ctx, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	result, err := h.payments.CreateOrFetchPaymentAccount(ctx, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	d.Payment.StripeConnected = true
	d.Payment.StripeAccountID = result.AccountID
	d.UpdatedAt = h.sequencer.now()
	if err := h.store.Save(ctx, d); err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "url": result.URL, "draft": d})
}

type advanceRequest struct {
	Step *int `json:"step"`
}

// advance submits the requested step, the current one by default. The draft
// is saved only when the step succeeded and discarded once onboarding is
// complete.
func (h *Handler) advance(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	d, err := h.loadOrCreate(ctx, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	var req advanceRequest
	if err := common.BindOptionalJSON(c, &req, "Request body must be {\"step\": <number>}."); err != nil {
		common.RespondWithError(c, err)
		return
	}
	step := d.CurrentStep
	if req.Step != nil {
		step = Step(*req.Step)
	}

	next, err := h.sequencer.Advance(ctx, d, step)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	if IsComplete(next) {
		if err := h.store.Delete(ctx, userID); err != nil {
			common.LoggerFromContext(c, h.logger).Warn("Failed to discard completed onboarding draft", zap.Error(err), zap.String("userID", userID.String()))
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "onboardingComplete": true, "draft": next})
		return
	}
	if err := h.store.Save(ctx, next); err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "onboardingComplete": false, "draft": next})
}

func (h *Handler) retreat(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	d, err := h.loadOrCreate(ctx, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	next := h.sequencer.Retreat(d)
	if err := h.store.Save(ctx, next); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Onboarding draft updated.", next)
}
