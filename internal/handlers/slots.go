package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"swiftmeet-server/internal/middleware"
	"swiftmeet-server/internal/models"
	"swiftmeet-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SlotHandler handles slot authoring (admin) and slot search (any user).
type SlotHandler struct {
	DB *gorm.DB
}

// NewSlotHandler creates a new SlotHandler.
func NewSlotHandler(db *gorm.DB) *SlotHandler {
	return &SlotHandler{DB: db}
}

// slotTimeLayouts are the accepted ISO-8601 shapes; naive timestamps are UTC.
var slotTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func parseSlotTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range slotTimeLayouts {
		t, err := time.ParseInLocation(layout, value, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ownedService loads the path's service if the caller owns it. Writes the
// error response and returns false otherwise.
func (h *SlotHandler) ownedService(c *gin.Context, admin models.User) (models.Service, bool) {
	var service models.Service
	err := h.DB.Where("id = ? AND admin_id = ?", c.Param("id"), admin.ID).First(&service).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Service not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return models.Service{}, false
	}
	return service, true
}

// ListSlots returns all slots of an owned service, earliest first.
func (h *SlotHandler) ListSlots(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
		return
	}

	service, ok := h.ownedService(c, admin)
	if !ok {
		return
	}

	slots := make([]models.Slot, 0)
	if err := h.DB.Where("service_id = ?", service.ID).Order("time asc").Find(&slots).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch slots: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// CreateSlotRequest represents the request body for creating a slot.
type CreateSlotRequest struct {
	Time string `json:"time"`
}

// CreateSlot adds a future slot to an owned service.
func (h *SlotHandler) CreateSlot(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
		return
	}

	service, ok := h.ownedService(c, admin)
	if !ok {
		return
	}

	var req CreateSlotRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Time) == "" {
		utils.BadRequest(c, "time is required (ISO 8601)")
		return
	}

	slotTime, err := parseSlotTime(strings.TrimSpace(req.Time))
	if err != nil {
		utils.BadRequest(c, "Invalid time format")
		return
	}
	if !slotTime.After(time.Now().UTC()) {
		utils.BadRequest(c, "Cannot add a slot in the past")
		return
	}

	slot := models.Slot{
		ServiceID: service.ID,
		Time:      slotTime,
		Status:    models.SlotAvailable,
	}
	if err := h.DB.Create(&slot).Error; err != nil {
		utils.InternalServerError(c, "Failed to create slot: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"slot": slot})
}

// DeleteSlot removes a slot from an owned service.
func (h *SlotHandler) DeleteSlot(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
		return
	}

	service, ok := h.ownedService(c, admin)
	if !ok {
		return
	}

	var slot models.Slot
	err := h.DB.Where("id = ? AND service_id = ?", c.Param("slot_id"), service.ID).First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Slot not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if err := h.DB.Delete(&slot).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete slot: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SearchSlots returns future unbooked slots for services whose type contains
// the query substring, earliest first, each embedding its service.
func (h *SlotHandler) SearchSlots(c *gin.Context) {
	serviceType := strings.ToLower(strings.TrimSpace(c.Query("service_type")))
	if serviceType == "" {
		utils.BadRequest(c, "service_type is required")
		return
	}

	var serviceIDs []string
	err := h.DB.Model(&models.Service{}).
		Where("LOWER(type) LIKE ?", "%"+serviceType+"%").
		Pluck("id", &serviceIDs).Error
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	slots := make([]models.Slot, 0)
	if len(serviceIDs) > 0 {
		err = h.DB.Preload("Service").
			Where("service_id IN ? AND booked = ? AND time > ?", serviceIDs, false, time.Now().UTC()).
			Order("time asc").
			Find(&slots).Error
		if err != nil {
			utils.InternalServerError(c, "Failed to fetch slots: "+err.Error())
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"slots": slots})
}
