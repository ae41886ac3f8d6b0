package therapist_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"therapylink_backend/internal/common"
	"therapylink_backend/internal/middleware"
	"therapylink_backend/internal/onboarding"
	"therapylink_backend/internal/payment"
	"therapylink_backend/internal/payment/paymenttest"
	"therapylink_backend/internal/platform/database/dbtest"
	"therapylink_backend/internal/therapist"
	"therapylink_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HandlerTestSuite drives the onboarding routes end to end against sqlite.
type HandlerTestSuite struct {
	suite.Suite
	DB       *gorm.DB
	Router   *gin.Engine
	Provider *paymenttest.MockProvider
	Repo     therapist.Repository

	user      *user.User
	therapist *therapist.Therapist
	role      string
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.DB = dbtest.Open(s.T(), &user.User{}, &therapist.Therapist{}, &therapist.Availability{})
	s.Repo = therapist.NewGORMRepository(s.DB)
	s.Provider = &paymenttest.MockProvider{}

	logger := zap.NewNop()
	verification := therapist.NewVerification(s.Repo, nil, logger)
	gateway := therapist.NewGateway(user.NewGORMRepository(s.DB), s.Repo, s.Provider, verification, nil, logger)
	handler := therapist.NewHandler(gateway, onboarding.NewValidator(), logger)

	s.user = &user.User{FirebaseUID: "fb_e2e", Email: "e2e@example.com", Role: common.RoleTherapist}
	s.Require().NoError(s.DB.Create(s.user).Error)
	s.therapist = &therapist.Therapist{UserID: s.user.ID}
	s.Require().NoError(s.Repo.Create(context.Background(), nil, s.therapist))
	s.role = common.RoleTherapist

	auth := func(c *gin.Context) {
		c.Set(common.UserIDKey, s.user.ID)
		c.Set(common.UserRoleKey, s.role)
		c.Next()
	}
	s.Router = gin.New()
	handler.RegisterRoutes(s.Router.Group("/api/v1"), auth, middleware.TherapistOnly())
}

func (s *HandlerTestSuite) post(path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/therapist/onboarding"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/therapist"+path, nil)
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) reload() *therapist.Therapist {
	var th therapist.Therapist
	s.Require().NoError(s.DB.Preload("Availabilities").First(&th, "id = ?", s.therapist.ID).Error)
	return &th
}

func (s *HandlerTestSuite) TestAvailability_SingleMondayBlock() {
	w := s.post("/availability", map[string]interface{}{
		"schedule": map[string]interface{}{
			"monday": map[string]interface{}{
				"enabled":    true,
				"timeBlocks": []map[string]string{{"startTime": "09:00", "endTime": "17:00"}},
			},
		},
		"hourlyRate": 85,
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.JSONEq(`{"success":true}`, w.Body.String())

	th := s.reload()
	s.Require().Len(th.Availabilities, 1)
	s.Equal(1, th.Availabilities[0].DayOfWeek)
	s.Equal(float64(85), th.HourlyRate)
}

func (s *HandlerTestSuite) TestAvailability_NoEnabledDay() {
	w := s.post("/availability", map[string]interface{}{
		"schedule": map[string]interface{}{
			"monday": map[string]interface{}{"enabled": false, "timeBlocks": []map[string]string{}},
		},
		"hourlyRate": 85,
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "Please set availability for at least one day")
	s.Empty(s.reload().Availabilities)
}

func (s *HandlerTestSuite) TestAvailability_DayKeysMustBeLowercaseDayNames() {
	w := s.post("/availability", map[string]interface{}{
		"schedule": map[string]interface{}{
			"monday": map[string]interface{}{
				"enabled":    true,
				"timeBlocks": []map[string]string{{"startTime": "09:00", "endTime": "17:00"}},
			},
		},
		"hourlyRate": 85,
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	for _, key := range []string{"Monday", "funday"} {
		w = s.post("/availability", map[string]interface{}{
			"schedule": map[string]interface{}{
				key: map[string]interface{}{
					"enabled":    true,
					"timeBlocks": []map[string]string{{"startTime": "10:00", "endTime": "12:00"}},
				},
			},
			"hourlyRate": 85,
		})
		s.Equal(http.StatusBadRequest, w.Code, key)
		s.Contains(w.Body.String(), "Unknown day in schedule: "+key)

		slots := s.reload().Availabilities
		s.Require().Len(slots, 1, key)
		s.Equal("09:00", slots[0].StartTime)
	}
}

func (s *HandlerTestSuite) TestCredentials_InvalidDate() {
	w := s.post("/credentials", map[string]interface{}{
		"licenseType":    "LCSW",
		"licenseNumber":  "AB12345",
		"licenseState":   "WA",
		"expirationDate": "not-a-date",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "expirationDate")
	s.Empty(s.reload().LicenseNumber)
}

func (s *HandlerTestSuite) TestBasicInfo_RoundTrip() {
	w := s.post("/basic-info", map[string]interface{}{
		"firstName":      "Ada",
		"lastName":       "Lovelace",
		"phone":          "(555) 123-4567",
		"experience":     4,
		"specialization": "anxiety",
		"bio":            strings.Repeat("I help adults with anxiety. ", 3),
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.get("/onboarding/basic-info")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"firstName":"Ada"`)
	s.Contains(w.Body.String(), `"specialization":["anxiety"]`)
}

func (s *HandlerTestSuite) TestBasicInfo_ValidationErrors() {
	w := s.post("/basic-info", map[string]interface{}{"firstName": "A", "bio": "short"})
	s.Equal(http.StatusBadRequest, w.Code)

	var apiErr common.APIError
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &apiErr))
	s.Equal(common.ValidationErrorCode, apiErr.Code)
	details, ok := apiErr.Details.(map[string]interface{})
	s.Require().True(ok)
	s.Equal("First name must be at least 2 characters", details["firstName"])
	s.Equal("Bio must be at least 50 characters", details["bio"])
}

func (s *HandlerTestSuite) TestMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/therapist/onboarding/credentials", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestStripeConnectAndComplete() {
	w := s.post("/complete", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	s.Provider.On("CreateAccount", mock.Anything, s.user.Email).Return("acct_e2e", nil).Once()
	s.Provider.On("CreateOnboardingLink", mock.Anything, "acct_e2e").Return("https://connect.stripe.test/e2e", nil).Once()
	w = s.post("/stripe-connect", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.JSONEq(`{"success":true,"url":"https://connect.stripe.test/e2e"}`, w.Body.String())

	s.Provider.On("GetAccountStatus", mock.Anything, "acct_e2e").
		Return(payment.AccountStatus{AccountID: "acct_e2e", ChargesEnabled: true, PayoutsEnabled: true}, nil).Once()
	w = s.post("/complete", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"success":true,"onboardingComplete":true}`, w.Body.String())
	s.True(s.reload().IsActive)
}

func (s *HandlerTestSuite) TestPatientGetsNotFound() {
	s.role = common.RolePatient
	w := s.get("/profile")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestProfile() {
	w := s.get("/profile")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), s.therapist.ID.String())
	s.Contains(w.Body.String(), `"isActive":false`)
}

func (s *HandlerTestSuite) TestMissingUserIsUnauthorized() {
	s.user.ID = uuid.New()
	w := s.get("/profile")
	s.Equal(http.StatusUnauthorized, w.Code)
}
