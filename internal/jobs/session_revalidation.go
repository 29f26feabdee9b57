// File: internal/jobs/session_revalidation.go
package jobs

import (
	"context"
	"time"

	"minitorque_web/internal/config"
	"minitorque_web/internal/session"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionSource lists the signed-in sessions to check.
type SessionSource interface {
	Active() []session.Active
}

// Revalidator re-verifies one session token, clearing the session when the provider
// rejects it.
type Revalidator interface {
	Revalidate(ctx context.Context, sid, token string) (signedOut bool, err error)
}

// SessionRevalidationJob periodically re-verifies every signed-in session so revoked or
// expired sessions are signed out without waiting for the slot to expire.
type SessionRevalidationJob struct {
	sessions      SessionSource
	revalidator   Revalidator
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewSessionRevalidationJob creates a new SessionRevalidationJob.
func NewSessionRevalidationJob(
	sessions SessionSource,
	revalidator Revalidator,
	logger *zap.Logger,
	cfg *config.Config,
) *SessionRevalidationJob {
	cronLog := NewCronLogger(logger.Named("cron"))
	scheduler := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.SkipIfStillRunning(cronLog)),
	)

	return &SessionRevalidationJob{
		sessions:      sessions,
		revalidator:   revalidator,
		logger:        logger.Named("SessionRevalidationJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *SessionRevalidationJob) SetupAndStart() error {
	jobSpec := j.cfg.SessionRevalidationSchedule
	if jobSpec == "" {
		j.logger.Warn("Session revalidation schedule not defined (SESSION_REVALIDATION_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule session revalidation job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Session revalidation job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *SessionRevalidationJob) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	j.Run(ctx)
}

// Run checks every active session once and returns how many were signed out.
func (j *SessionRevalidationJob) Run(ctx context.Context) int {
	active := j.sessions.Active()
	j.logger.Debug("Starting session revalidation run", zap.Int("sessions", len(active)))

	signedOut := 0
	for _, a := range active {
		if ctx.Err() != nil {
			j.logger.Warn("Session revalidation run cut short", zap.Error(ctx.Err()))
			break
		}
		out, err := j.revalidator.Revalidate(ctx, a.SessionID, a.Token)
		switch {
		case out:
			signedOut++
			j.logger.Info("Session no longer valid, signed out", zap.String("uid", a.UserID), zap.Error(err))
		case err != nil:
			j.logger.Warn("Could not revalidate session", zap.String("uid", a.UserID), zap.Error(err))
		}
	}

	j.logger.Info("Session revalidation run completed",
		zap.Int("sessions_checked", len(active)),
		zap.Int("sessions_signed_out", signedOut))
	return signedOut
}

// Stop gracefully stops the cron scheduler.
func (j *SessionRevalidationJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping session revalidation scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Session revalidation scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Session revalidation scheduler stop timed out.")
		}
	}
}
