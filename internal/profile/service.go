// File: internal/profile/service.go
package profile

import (
	"context"
	"errors"
	"fmt"

	"minitorque_web/internal/common"
	"minitorque_web/internal/config"
	"minitorque_web/internal/platform/database"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
)

// Service defines profile business operations.
type Service interface {
	Create(ctx context.Context, record *Record) error
	Get(ctx context.Context, uid string) (*Record, error)
}

// ServiceImplementation implements Service on top of a Repository.
type ServiceImplementation struct {
	repo   Repository
	logger *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new profile service.
func NewService(repo Repository, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{repo: repo, logger: logger.Named("ProfileService")}
}

// Create stores the profile written at sign-up. Errors from the store are returned as-is.
func (s *ServiceImplementation) Create(ctx context.Context, record *Record) error {
	if record == nil || record.UID == "" {
		return common.ErrBadRequest.WithDetails("Profile record must carry a user ID.")
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("Failed to write profile record", zap.Error(err), zap.String("uid", record.UID))
		return err
	}
	s.logger.Info("Profile record written", zap.String("uid", record.UID))
	return nil
}

func (s *ServiceImplementation) Get(ctx context.Context, uid string) (*Record, error) {
	record, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Info("Profile not found", zap.String("uid", uid))
		} else {
			s.logger.Error("Error reading profile", zap.Error(err), zap.String("uid", uid))
		}
		return nil, err
	}
	return record, nil
}

// ProvideRepository selects the profile backend named by PROFILE_STORE.
// The returned cleanup closes the database handle when one was opened.
func ProvideRepository(cfg *config.Config, fs *firestore.Client, logger *zap.Logger) (Repository, func(), error) {
	switch cfg.ProfileStore {
	case config.ProfileStoreFirestore:
		if fs == nil {
			return nil, nil, fmt.Errorf("firestore client not initialized")
		}
		logger.Info("Using Firestore profile store", zap.String("collection", cfg.ProfileCollection))
		return NewFirestoreRepository(fs, cfg.ProfileCollection), func() {}, nil
	default:
		db, err := database.NewGORM(cfg)
		if err != nil {
			return nil, nil, err
		}
		repo, err := NewGORMRepository(db)
		if err != nil {
			database.CloseGORMDB(db)
			return nil, nil, err
		}
		logger.Info("Using relational profile store", zap.String("driver", cfg.ProfileStore))
		return repo, func() { database.CloseGORMDB(db) }, nil
	}
}
