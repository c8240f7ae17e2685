package models

// Service is an offering (clinic, salon, ...) owned by exactly one admin user.
// Deleting a service deletes its slots first; the cascade is an explicit
// two-step transaction, not a storage-engine constraint.
type Service struct {
	BaseModel
	AdminID     string   `gorm:"size:36;index;not null" json:"admin_id"`
	Name        string   `gorm:"size:255;not null" json:"name"`
	Type        string   `gorm:"size:120;not null" json:"type"`
	Specialty   string   `gorm:"size:120" json:"specialty,omitempty"`
	Description string   `gorm:"type:text" json:"description,omitempty"`
	Address     string   `gorm:"size:500;not null" json:"address"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`

	// Relations
	Admin User   `gorm:"foreignKey:AdminID" json:"-"`
	Slots []Slot `gorm:"foreignKey:ServiceID" json:"-"`
}
