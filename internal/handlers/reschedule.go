package handlers

import (
	"errors"
	"time"

	"swiftmeet-server/internal/models"

	"gorm.io/gorm"
)

// missedGracePeriod is how long past its scheduled time a booked slot may sit
// without an arrival before it counts as missed.
const missedGracePeriod = 15 * time.Minute

// findAndBookNextSlot marks oldSlot as a no-show and books the earliest
// future unbooked slot of the same service for the same user. The auto flag
// is recorded on the new booking so it is never auto-rescheduled twice.
// Returns nil without error when no replacement slot exists; the old slot is
// a no-show either way. Must run inside a transaction so both rows commit
// together.
func findAndBookNextSlot(tx *gorm.DB, user models.User, oldSlot *models.Slot, auto bool) (*models.Slot, error) {
	now := time.Now().UTC()

	var next models.Slot
	err := tx.Where("service_id = ? AND booked = ? AND time > ?", oldSlot.ServiceID, false, now).
		Order("time asc").
		First(&next).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// The old slot becomes a no-show whether or not a replacement exists.
	if err := tx.Model(&models.Slot{}).Where("id = ?", oldSlot.ID).
		Update("status", models.SlotNoShow).Error; err != nil {
		return nil, err
	}
	oldSlot.Status = models.SlotNoShow

	if !found {
		return nil, nil
	}

	// Conditional update: a concurrent booker may have taken the slot between
	// the read above and this write.
	res := tx.Model(&models.Slot{}).Where("id = ? AND booked = ?", next.ID, false).
		Updates(map[string]interface{}{
			"booked":           true,
			"booked_by_id":     user.ID,
			"booked_by_name":   user.Name,
			"booked_at":        now,
			"status":           models.SlotBooked,
			"auto_rescheduled": auto,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	if err := tx.First(&next, "id = ?", next.ID).Error; err != nil {
		return nil, err
	}
	return &next, nil
}

// reconcileMissedBookings applies the missed-slot rules for one user. It is
// idempotent and runs lazily whenever the user lists their bookings:
//
//  1. Bookings that were already the product of an automatic reschedule and
//     are past the grace window become no-shows permanently.
//  2. The earliest remaining missed booking, if any, is auto-rescheduled to
//     the next free slot of the same service.
func reconcileMissedBookings(db *gorm.DB, user models.User) error {
	cutoff := time.Now().UTC().Add(-missedGracePeriod)

	err := db.Model(&models.Slot{}).
		Where("booked_by_id = ? AND status = ? AND arrived = ? AND auto_rescheduled = ? AND time < ?",
			user.ID, models.SlotBooked, false, true, cutoff).
		Update("status", models.SlotNoShow).Error
	if err != nil {
		return err
	}

	var missed models.Slot
	err = db.Where("booked_by_id = ? AND status = ? AND arrived = ? AND auto_rescheduled = ? AND time < ?",
		user.ID, models.SlotBooked, false, false, cutoff).
		Order("time asc").
		First(&missed).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		_, err := findAndBookNextSlot(tx, user, &missed, true)
		return err
	})
}
