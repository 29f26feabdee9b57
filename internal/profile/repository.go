// File: internal/profile/repository.go
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"minitorque_web/internal/common"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Repository defines the profile persistence operations. Records are write-once.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	FindByUID(ctx context.Context, uid string) (*Record, error)
}

// --- Firestore ---

type firestoreRepository struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreRepository stores one document per user at <collection>/<uid>.
func NewFirestoreRepository(client *firestore.Client, collection string) Repository {
	return &firestoreRepository{client: client, collection: collection}
}

// Create writes the document; it fails if a document already exists for the UID.
// CreatedAt is left zero so Firestore fills in the server timestamp.
func (r *firestoreRepository) Create(ctx context.Context, record *Record) error {
	_, err := r.client.Collection(r.collection).Doc(record.UID).Create(ctx, record)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return common.ErrConflict.WithDetails("A profile already exists for this user.")
		}
		return err
	}
	return nil
}

func (r *firestoreRepository) FindByUID(ctx context.Context, uid string) (*Record, error) {
	snap, err := r.client.Collection(r.collection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, common.ErrNotFound.WithDetails("Profile not found for this user.")
		}
		return nil, err
	}
	var record Record
	if err := snap.DataTo(&record); err != nil {
		return nil, fmt.Errorf("failed to decode profile document %s: %w", uid, err)
	}
	return &record, nil
}

// --- GORM (postgres / sqlite) ---

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a relational profile repository and migrates its table.
func NewGORMRepository(db *gorm.DB) (Repository, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate profile table: %w", err)
	}
	return &gormRepository{db: db}, nil
}

func (r *gormRepository) Create(ctx context.Context, record *Record) error {
	err := r.db.WithContext(ctx).Create(record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return common.ErrConflict.WithDetails("A profile already exists for this user.")
		}
		return err
	}
	return nil
}

func (r *gormRepository) FindByUID(ctx context.Context, uid string) (*Record, error) {
	var record Record
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Profile not found for this user.")
		}
		return nil, err
	}
	return &record, nil
}
