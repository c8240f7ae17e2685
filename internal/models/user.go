package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User represents a registered account. Admins publish services and slots,
// plain users search and book them.
type User struct {
	BaseModel
	Name     string `gorm:"size:120;not null" json:"name"`
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	Phone    string `gorm:"size:50" json:"phone"`
	Place    string `gorm:"size:100" json:"place"`
	Role     Role   `gorm:"size:20;default:'user'" json:"role"`

	// Relations (not always preloaded)
	Services []Service `gorm:"foreignKey:AdminID" json:"-"`
	Bookings []Slot    `gorm:"foreignKey:BookedByID" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Place     string    `json:"place"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Place:     u.Place,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
