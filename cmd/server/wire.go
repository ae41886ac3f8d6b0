// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"therapylink_backend/internal/app"
	"therapylink_backend/internal/appointment"
	"therapylink_backend/internal/config"
	"therapylink_backend/internal/filestorage"
	"therapylink_backend/internal/firebase"
	"therapylink_backend/internal/jobs"
	"therapylink_backend/internal/notification"
	"therapylink_backend/internal/onboarding"
	"therapylink_backend/internal/payment"
	"therapylink_backend/internal/reconciler"
	"therapylink_backend/internal/therapist"
	"therapylink_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		provideLogger,
		provideDatabase,
		provideRedis,

		firebase.NewFirebaseService,
		wire.Bind(new(firebase.IdentityProvider), new(*firebase.FirebaseService)),

		payment.NewStripeProvider,
		wire.Bind(new(payment.Provider), new(*payment.StripeProvider)),
		provideWebhookVerifier,

		// Notifications
		notification.NewGORMRepository,
		notification.NewService,
		wire.Bind(new(notification.Service), new(*notification.ServiceImplementation)),
		wire.Bind(new(therapist.Notifier), new(*notification.ServiceImplementation)),
		wire.Bind(new(therapist.ActivationNotifier), new(*notification.ServiceImplementation)),
		notification.NewAccountLifecycle,
		notification.NewHandler,

		// Therapist profile
		therapist.NewGORMRepository,
		therapist.NewVerification,
		therapist.NewGateway,
		therapist.NewAccountLifecycle,
		therapist.NewHandler,

		// Onboarding draft
		onboarding.NewValidator,
		wire.Bind(new(therapist.StepValidator), new(*onboarding.Validator)),
		wire.Bind(new(onboarding.Persister), new(*therapist.Gateway)),
		wire.Bind(new(onboarding.PaymentLinker), new(*therapist.Gateway)),
		onboarding.NewSequencer,
		provideDraftStore,
		onboarding.NewDraftLifecycle,
		provideUploader,
		filestorage.NewKinds,
		onboarding.NewHandler,

		// Users
		user.NewGORMRepository,
		provideUserLifecycle,
		user.NewService,
		wire.Bind(new(user.Service), new(*user.ServiceImplementation)),
		user.NewHandler,

		// Payment reconciliation
		appointment.NewGORMRepository,
		reconciler.New,
		reconciler.NewWebhookHandler,
		wire.Bind(new(jobs.Sweeper), new(*reconciler.Reconciler)),
		jobs.NewPaymentReconcileJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
