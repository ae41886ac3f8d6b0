package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"therapylink_backend/internal/common"
	"therapylink_backend/internal/therapist"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPersister struct {
	mock.Mock
}

func (m *mockPersister) SaveBasicInfo(ctx context.Context, userID uuid.UUID, in therapist.BasicInfoInput) error {
	return m.Called(ctx, userID, in).Error(0)
}

func (m *mockPersister) SaveCredentials(ctx context.Context, userID uuid.UUID, in therapist.CredentialsInput) error {
	return m.Called(ctx, userID, in).Error(0)
}

func (m *mockPersister) SaveAvailability(ctx context.Context, userID uuid.UUID, in therapist.AvailabilityInput) error {
	return m.Called(ctx, userID, in).Error(0)
}

func (m *mockPersister) CheckAndFinalizeCompletion(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestSequencer() (*Sequencer, *mockPersister) {
	p := &mockPersister{}
	s := NewSequencer(NewValidator(), p, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s, p
}

// filledDraft returns a draft whose four payloads are all valid.
func filledDraft() *Draft {
	d := NewDraft(uuid.New())
	d.BasicInfo = validBasicInfo()
	d.Credentials = validCredentials()
	d.Availability.Schedule = mondaySchedule()
	return d
}

func TestAdvance_MarksStepAfterPersist(t *testing.T) {
	s, p := newTestSequencer()
	d := filledDraft()
	p.On("SaveBasicInfo", mock.Anything, d.UserID, d.BasicInfo).Return(nil).Once()

	next, err := s.Advance(context.Background(), d, StepBasicInfo)
	require.NoError(t, err)

	assert.Equal(t, []Step{StepBasicInfo}, next.CompletedSteps)
	assert.Equal(t, StepCredentials, next.CurrentStep)
	assert.Equal(t, fixedNow, next.UpdatedAt)
	// The input draft is left alone.
	assert.Empty(t, d.CompletedSteps)
	assert.Equal(t, StepBasicInfo, d.CurrentStep)
	p.AssertExpectations(t)
}

func TestAdvance_ValidationFailureSkipsPersist(t *testing.T) {
	s, p := newTestSequencer()
	d := filledDraft()
	d.BasicInfo.Bio = "too short"

	next, err := s.Advance(context.Background(), d, StepBasicInfo)
	require.Error(t, err)
	assert.True(t, common.IsValidationError(err))
	apiErr, _ := common.IsAPIError(err)
	assert.Equal(t, map[string]string{"bio": "Bio must be at least 50 characters"}, apiErr.Details)

	assert.Same(t, d, next)
	assert.Empty(t, d.CompletedSteps)
	p.AssertNotCalled(t, "SaveBasicInfo", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvance_PersistFailureLeavesDraftUnchanged(t *testing.T) {
	s, p := newTestSequencer()
	d := filledDraft()
	d.CompletedSteps = []Step{StepBasicInfo, StepCredentials}
	d.CurrentStep = StepAvailability
	before := d.Clone()

	p.On("SaveAvailability", mock.Anything, d.UserID, mock.Anything).Return(common.ErrInternalServer).Once()

	next, err := s.Advance(context.Background(), d, StepAvailability)
	assert.ErrorIs(t, err, common.ErrInternalServer)
	assert.Equal(t, before.CompletedSteps, next.CompletedSteps)
	assert.Equal(t, StepAvailability, next.CurrentStep)
	assert.Equal(t, before, d)
}

func TestAdvance_RejectsUnreachableStep(t *testing.T) {
	s, p := newTestSequencer()
	d := filledDraft()

	_, err := s.Advance(context.Background(), d, StepAvailability)
	assert.ErrorIs(t, err, ErrStepNotReachable)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 409, apiErr.StatusCode)
	p.AssertNotCalled(t, "SaveAvailability", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvance_InvalidStep(t *testing.T) {
	s, _ := newTestSequencer()
	d := filledDraft()
	d.CurrentStep = StepComplete

	_, err := s.Advance(context.Background(), d, StepComplete)
	assert.ErrorIs(t, err, ErrInvalidStep)
	_, err = s.Advance(context.Background(), d, Step(0))
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestAdvance_ResubmittingEarlierStepKeepsProgress(t *testing.T) {
	s, p := newTestSequencer()
	d := filledDraft()
	d.CompletedSteps = []Step{StepBasicInfo, StepCredentials}
	d.CurrentStep = StepAvailability
	p.On("SaveBasicInfo", mock.Anything, d.UserID, mock.Anything).Return(nil).Once()

	next, err := s.Advance(context.Background(), d, StepBasicInfo)
	require.NoError(t, err)
	assert.Equal(t, StepAvailability, next.CurrentStep)
	assert.Equal(t, []Step{StepBasicInfo, StepCredentials}, next.CompletedSteps)
}

func TestAdvance_PaymentNotVerified(t *testing.T) {
	s, p := newTestSequencer()
	d := filledDraft()
	d.CompletedSteps = []Step{StepBasicInfo, StepCredentials, StepAvailability}
	d.CurrentStep = StepPayment
	p.On("CheckAndFinalizeCompletion", mock.Anything, d.UserID).Return(false, nil).Once()

	next, err := s.Advance(context.Background(), d, StepPayment)
	assert.ErrorIs(t, err, ErrPaymentNotVerified)
	assert.False(t, errors.Is(err, ErrStepNotReachable))
	assert.Equal(t, StepPayment, next.CurrentStep)
	assert.False(t, next.IsCompleted(StepPayment))
	assert.False(t, next.Payment.OnboardingComplete)
}

func TestAdvance_PaymentVerifiedCompletesOnboarding(t *testing.T) {
	s, p := newTestSequencer()
	d := filledDraft()
	d.CompletedSteps = []Step{StepBasicInfo, StepCredentials, StepAvailability}
	d.CurrentStep = StepPayment
	p.On("CheckAndFinalizeCompletion", mock.Anything, d.UserID).Return(true, nil).Once()

	next, err := s.Advance(context.Background(), d, StepPayment)
	require.NoError(t, err)
	assert.Equal(t, StepComplete, next.CurrentStep)
	assert.True(t, next.Payment.OnboardingComplete)
	assert.True(t, IsComplete(next))
	assert.False(t, IsComplete(d))
}

func TestRetreat(t *testing.T) {
	s, _ := newTestSequencer()
	d := filledDraft()
	d.CompletedSteps = []Step{StepBasicInfo}
	d.CurrentStep = StepCredentials

	back := s.Retreat(d)
	assert.Equal(t, StepBasicInfo, back.CurrentStep)
	assert.Equal(t, []Step{StepBasicInfo}, back.CompletedSteps)

	again := s.Retreat(back)
	assert.Equal(t, StepBasicInfo, again.CurrentStep)
}

func TestReachable(t *testing.T) {
	d := NewDraft(uuid.New())
	assert.True(t, Reachable(d, StepBasicInfo))
	assert.False(t, Reachable(d, StepCredentials))

	d.CompletedSteps = []Step{StepBasicInfo, StepCredentials}
	d.CurrentStep = StepBasicInfo
	assert.True(t, Reachable(d, StepCredentials))
	assert.True(t, Reachable(d, StepAvailability))
	assert.False(t, Reachable(d, StepPayment))

	d.CurrentStep = StepPayment
	assert.True(t, Reachable(d, StepPayment))
	assert.False(t, Reachable(d, StepComplete))
}
