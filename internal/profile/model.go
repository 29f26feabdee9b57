// File: internal/profile/model.go
package profile

import (
	"time"
)

// Record is the profile document written once per account at sign-up.
// The document key is the provider-issued user ID.
type Record struct {
	UID         string    `gorm:"column:uid;type:varchar(128);primaryKey" firestore:"uid" json:"uid"`
	FirstName   string    `gorm:"type:varchar(100);not null" firestore:"firstName" json:"firstName"`
	LastName    string    `gorm:"type:varchar(100);not null" firestore:"lastName" json:"lastName"`
	DisplayName string    `gorm:"type:varchar(201);not null" firestore:"displayName" json:"displayName"`
	Email       string    `gorm:"type:varchar(255)" firestore:"email" json:"email"`
	PhoneNumber string    `gorm:"type:varchar(50);not null" firestore:"phoneNumber" json:"phoneNumber"`
	Address     string    `gorm:"type:text;not null" firestore:"address" json:"address"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" firestore:"createdAt,serverTimestamp" json:"createdAt"`
}

// TableName specifies the table name for the relational profile store.
func (Record) TableName() string {
	return "user_profiles"
}

// Response is the JSON shape returned by the API.
type Response struct {
	UID         string    `json:"uid"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToResponse converts a Record to its API representation.
func ToResponse(r *Record) Response {
	return Response{
		UID:         r.UID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		DisplayName: r.DisplayName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		Address:     r.Address,
		CreatedAt:   r.CreatedAt,
	}
}
