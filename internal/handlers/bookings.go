package handlers

import (
	"errors"
	"net/http"
	"time"

	"swiftmeet-server/internal/middleware"
	"swiftmeet-server/internal/models"
	"swiftmeet-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BookingHandler handles the user side of bookings.
type BookingHandler struct {
	DB *gorm.DB
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(db *gorm.DB) *BookingHandler {
	return &BookingHandler{DB: db}
}

// BookSlotRequest represents the request body for booking a slot.
type BookSlotRequest struct {
	SlotID string `json:"slot_id" binding:"required"`
}

// BookSlot books a slot for the caller. The write is a compare-and-set on
// booked = false, so exactly one of any number of concurrent bookers wins;
// missing slots and already-booked slots fail identically.
func (h *BookingHandler) BookSlot(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
		return
	}

	var req BookSlotRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	res := h.DB.Model(&models.Slot{}).
		Where("id = ? AND booked = ?", req.SlotID, false).
		Updates(map[string]interface{}{
			"booked":           true,
			"booked_by_id":     user.ID,
			"booked_by_name":   user.Name,
			"booked_at":        time.Now().UTC(),
			"status":           models.SlotBooked,
			"auto_rescheduled": false,
		})
	if res.Error != nil {
		utils.InternalServerError(c, "Failed to book slot: "+res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		utils.BadRequest(c, "Slot not available")
		return
	}

	var slot models.Slot
	if err := h.DB.Preload("Service").First(&slot, "id = ?", req.SlotID).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"slot": slot})
}

// ListBookings returns the caller's bookings, most recent first. Missed-slot
// reconciliation runs first, so its side effects are visible in the response.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
		return
	}

	if err := reconcileMissedBookings(h.DB, user); err != nil {
		utils.InternalServerError(c, "Failed to reconcile bookings: "+err.Error())
		return
	}

	slots := make([]models.Slot, 0)
	err := h.DB.Preload("Service").
		Where("booked_by_id = ?", user.ID).
		Order("time desc").
		Find(&slots).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch bookings: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": slots})
}

// MarkArrived marks one of the caller's own bookings as arrived.
func (h *BookingHandler) MarkArrived(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
		return
	}

	var slot models.Slot
	err := h.DB.Where("id = ? AND booked_by_id = ?", c.Param("id"), user.ID).First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Booking not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	err = h.DB.Model(&slot).Updates(map[string]interface{}{
		"status":  models.SlotArrived,
		"arrived": true,
	}).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to update booking: "+err.Error())
		return
	}

	if err := h.DB.Preload("Service").First(&slot, "id = ?", slot.ID).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"slot": slot})
}

// FindNextSlot is the manual no-show recovery: reschedules one of the
// caller's bookings to the next free slot of the same service, regardless of
// whether the booking has passed its grace window yet.
func (h *BookingHandler) FindNextSlot(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
		return
	}

	var oldSlot models.Slot
	err := h.DB.Where("id = ? AND booked_by_id = ?", c.Param("id"), user.ID).First(&oldSlot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Booking not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var newSlot *models.Slot
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		newSlot, txErr = findAndBookNextSlot(tx, user, &oldSlot, false)
		return txErr
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to reschedule booking: "+err.Error())
		return
	}

	if newSlot == nil {
		c.JSON(http.StatusOK, gin.H{"message": "No next available slots"})
		return
	}

	var slot models.Slot
	if err := h.DB.Preload("Service").First(&slot, "id = ?", newSlot.ID).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"new_slot": slot})
}
