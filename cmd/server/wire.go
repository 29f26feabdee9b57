//go:build wireinject
// +build wireinject

package main

import (
	"minitorque_web/internal/app"
	"minitorque_web/internal/auth"
	"minitorque_web/internal/config"
	"minitorque_web/internal/firebase"
	"minitorque_web/internal/jobs"
	"minitorque_web/internal/platform/cache"
	"minitorque_web/internal/platform/logger"
	"minitorque_web/internal/platform/metrics"
	"minitorque_web/internal/profile"
	"minitorque_web/internal/session"
	"minitorque_web/internal/web"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.Provide,
		cache.ProvideRedis,
		metrics.NewRegistry,
		metrics.ProvideCollector,

		// Firebase (auth provider + Firestore)
		firebase.NewFirebaseService,
		firebase.ProvideFirestore,
		wire.Bind(new(auth.Provider), new(*firebase.FirebaseService)),

		// Profiles
		profile.ProvideRepository,
		profile.NewService,
		wire.Bind(new(profile.Service), new(*profile.ServiceImplementation)),
		profile.NewHandler,

		// Auth + sessions
		auth.ProvideStream,
		wire.Bind(new(auth.OutcomeRecorder), new(*metrics.Collector)),
		auth.NewClient,
		session.NewProvider,
		wire.Bind(new(session.AuthClient), new(*auth.Client)),
		session.NewCookies,
		wire.Bind(new(auth.SessionCookies), new(*session.Cookies)),
		auth.NewHandler,

		// Views
		web.NewHandler,

		// Jobs
		jobs.NewSessionRevalidationJob,
		wire.Bind(new(jobs.SessionSource), new(*session.Provider)),
		wire.Bind(new(jobs.Revalidator), new(*auth.Client)),

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
