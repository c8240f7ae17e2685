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

// AdminBookingHandler handles the admin view over bookings and the
// dashboard metrics.
type AdminBookingHandler struct {
	DB *gorm.DB
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(db *gorm.DB) *AdminBookingHandler {
	return &AdminBookingHandler{DB: db}
}

// ListBookings returns all booked slots across the caller's services,
// earliest first, each embedding its service.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
		return
	}

	var serviceIDs []string
	if err := h.DB.Model(&models.Service{}).Where("admin_id = ?", admin.ID).Pluck("id", &serviceIDs).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	slots := make([]models.Slot, 0)
	if len(serviceIDs) > 0 {
		err := h.DB.Preload("Service").
			Where("service_id IN ? AND booked = ?", serviceIDs, true).
			Order("time asc").
			Find(&slots).Error
		if err != nil {
			utils.InternalServerError(c, "Failed to fetch bookings: "+err.Error())
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"bookings": slots})
}

// MarkArrived marks a booked slot under one of the caller's services as
// arrived. A booking under another admin's service reads as not found.
func (h *AdminBookingHandler) MarkArrived(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
		return
	}

	var slot models.Slot
	err := h.DB.Joins("JOIN services ON services.id = slots.service_id").
		Where("slots.id = ? AND slots.booked = ? AND services.admin_id = ?", c.Param("id"), true, admin.ID).
		First(&slot).Error
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

// DashboardMetrics recomputes the admin's aggregate counts per request.
// Nothing is persisted; the day boundary is the start of the current UTC day.
func (h *AdminBookingHandler) DashboardMetrics(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
		return
	}

	var totalServices int64
	if err := h.DB.Model(&models.Service{}).Where("admin_id = ?", admin.ID).Count(&totalServices).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	var serviceIDs []string
	if err := h.DB.Model(&models.Service{}).Where("admin_id = ?", admin.ID).Pluck("id", &serviceIDs).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	var availableSlots, bookedToday, pendingActions int64
	if len(serviceIDs) > 0 {
		now := time.Now().UTC()
		todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

		err := h.DB.Model(&models.Slot{}).
			Where("service_id IN ? AND booked = ?", serviceIDs, false).
			Count(&availableSlots).Error
		if err != nil {
			utils.InternalServerError(c, "Database error: "+err.Error())
			return
		}

		err = h.DB.Model(&models.Slot{}).
			Where("service_id IN ? AND booked = ? AND booked_at >= ?", serviceIDs, true, todayStart).
			Count(&bookedToday).Error
		if err != nil {
			utils.InternalServerError(c, "Database error: "+err.Error())
			return
		}

		// Stale unresolved bookings: booked before today, never arrived.
		err = h.DB.Model(&models.Slot{}).
			Where("service_id IN ? AND status = ? AND arrived = ? AND time < ?", serviceIDs, models.SlotBooked, false, todayStart).
			Count(&pendingActions).Error
		if err != nil {
			utils.InternalServerError(c, "Database error: "+err.Error())
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_services":  totalServices,
		"available_slots": availableSlots,
		"booked_today":    bookedToday,
		"pending_actions": pendingActions,
	})
}
