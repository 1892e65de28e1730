package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is a customer account. Password is empty for Google-only accounts.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"type:text" json:"-"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	GoogleID   string    `gorm:"type:varchar(100)" json:"-"`
	ProfilePic string    `gorm:"type:text" json:"profile_pic,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// HasPassword reports whether password sign-in is possible for the account.
func (u *User) HasPassword() bool {
	return u.Password != ""
}
