package handlers

import (
	"errors"
	"net/http"
	"strings"

	"swiftmeet-server/internal/middleware"
	"swiftmeet-server/internal/models"
	"swiftmeet-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ServiceHandler handles admin service management.
type ServiceHandler struct {
	DB *gorm.DB
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(db *gorm.DB) *ServiceHandler {
	return &ServiceHandler{DB: db}
}

// ListServices returns the caller's services, most recently created first.
func (h *ServiceHandler) ListServices(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
		return
	}

	services := make([]models.Service, 0)
	if err := h.DB.Where("admin_id = ?", admin.ID).Order("created_at desc").Find(&services).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch services: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"services": services})
}

// CreateServiceRequest represents the request body for creating a service.
type CreateServiceRequest struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Specialty   string   `json:"specialty"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

// CreateService creates a service owned by the caller.
func (h *ServiceHandler) CreateService(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateServiceRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	serviceType := strings.TrimSpace(req.Type)
	address := strings.TrimSpace(req.Address)

	if name == "" || serviceType == "" || address == "" {
		utils.BadRequest(c, "name, type and address are required")
		return
	}

	service := models.Service{
		AdminID:     admin.ID,
		Name:        name,
		Type:        serviceType,
		Specialty:   strings.TrimSpace(req.Specialty),
		Description: strings.TrimSpace(req.Description),
		Address:     address,
		Lat:         req.Lat,
		Lng:         req.Lng,
	}

	if err := h.DB.Create(&service).Error; err != nil {
		utils.InternalServerError(c, "Failed to create service: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"service": service})
}

// DeleteService deletes one of the caller's services together with its slots.
// Unowned and nonexistent services are indistinguishable.
func (h *ServiceHandler) DeleteService(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Authentication required")
		return
	}

	var service models.Service
	err := h.DB.Where("id = ? AND admin_id = ?", c.Param("id"), admin.ID).First(&service).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Service not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	// Slots first, then the service. Both or neither.
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("service_id = ?", service.ID).Delete(&models.Slot{}).Error; err != nil {
			return err
		}
		return tx.Delete(&service).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to delete service: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DeleteAllServices deletes every service owned by the caller, cascading to
// their slots, as one transaction.
func (h *ServiceHandler) DeleteAllServices(c *gin.Context) {
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

	if len(serviceIDs) > 0 {
		err := h.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("service_id IN ?", serviceIDs).Delete(&models.Slot{}).Error; err != nil {
				return err
			}
			return tx.Where("admin_id = ?", admin.ID).Delete(&models.Service{}).Error
		})
		if err != nil {
			utils.InternalServerError(c, "Failed to delete services: "+err.Error())
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
