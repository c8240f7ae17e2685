package models

import (
	"time"
)

// SlotStatus represents the lifecycle state of a slot
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotArrived   SlotStatus = "arrived"
	SlotNoShow    SlotStatus = "no-show"
	SlotCancelled SlotStatus = "cancelled" // schema value only; no endpoint sets it
)

// Slot is a bookable time unit belonging to exactly one service. The slot row
// itself carries the booking: Booked is true iff BookedByID is set.
type Slot struct {
	BaseModel
	ServiceID    string     `gorm:"size:36;index;not null" json:"service_id"`
	Time         time.Time  `gorm:"not null;index" json:"time"`
	Booked       bool       `gorm:"default:false" json:"booked"`
	BookedByID   *string    `gorm:"size:36;index" json:"booked_by_id"`
	BookedByName string     `gorm:"size:120" json:"booked_by_name,omitempty"`
	BookedAt     *time.Time `json:"booked_at"`
	Status       SlotStatus `gorm:"size:20;default:'available'" json:"status"`
	// AutoRescheduled marks a booking produced by the automatic reschedule.
	// Such a booking, if missed again, goes straight to no-show.
	AutoRescheduled bool `gorm:"default:false" json:"autoRescheduled"`
	Arrived         bool `gorm:"default:false" json:"arrived"`

	// Relations
	Service  *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	BookedBy *User    `gorm:"foreignKey:BookedByID" json:"-"`
}
