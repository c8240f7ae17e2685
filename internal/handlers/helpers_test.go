package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"swiftmeet-server/internal/models"
	"swiftmeet-server/internal/routes"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestServer builds the full router against a fresh in-memory database.
func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := models.InitDB(models.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	router := gin.New()
	store := cookie.NewStore([]byte("test-session-secret"))
	router.Use(sessions.Sessions("swiftmeet_session", store))
	routes.SetupRoutes(router, db)

	return router, db
}

// doJSON performs a request against the router with an optional JSON body and
// session cookies.
func doJSON(t *testing.T, router *gin.Engine, method, path string, cookies []*http.Cookie, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// registerAccount registers a fresh account through the API and returns the
// session cookies of the auto-login.
func registerAccount(t *testing.T, router *gin.Engine, email string, role models.Role) []*http.Cookie {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/register", nil, gin.H{
		"name":     strings.Split(email, "@")[0],
		"email":    email,
		"password": "password123",
		"phone":    "555-0100",
		"place":    "Springfield",
		"role":     string(role),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return w.Result().Cookies()
}

func userByEmail(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, "email = ?", email).Error)
	return user
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

// createService seeds a service row directly.
func createService(t *testing.T, db *gorm.DB, adminID, serviceType string) models.Service {
	t.Helper()
	service := models.Service{
		AdminID: adminID,
		Name:    serviceType + " clinic",
		Type:    serviceType,
		Address: "1 Main St",
	}
	require.NoError(t, db.Create(&service).Error)
	return service
}

// createSlot seeds an available slot row directly, so fixtures may sit in the
// past (the API only authors future slots).
func createSlot(t *testing.T, db *gorm.DB, serviceID string, at time.Time) models.Slot {
	t.Helper()
	slot := models.Slot{
		ServiceID: serviceID,
		Time:      at,
		Status:    models.SlotAvailable,
	}
	require.NoError(t, db.Create(&slot).Error)
	return slot
}

// createBookedSlot seeds a slot already booked by the given user.
func createBookedSlot(t *testing.T, db *gorm.DB, serviceID string, user models.User, at, bookedAt time.Time, auto bool) models.Slot {
	t.Helper()
	slot := models.Slot{
		ServiceID:       serviceID,
		Time:            at,
		Booked:          true,
		BookedByID:      &user.ID,
		BookedByName:    user.Name,
		BookedAt:        &bookedAt,
		Status:          models.SlotBooked,
		AutoRescheduled: auto,
	}
	require.NoError(t, db.Create(&slot).Error)
	return slot
}

// JSON shapes of the API responses used by assertions.

type serviceJSON struct {
	ID      string `json:"id"`
	AdminID string `json:"admin_id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Address string `json:"address"`
}

type slotJSON struct {
	ID              string       `json:"id"`
	ServiceID       string       `json:"service_id"`
	Time            time.Time    `json:"time"`
	Booked          bool         `json:"booked"`
	BookedByID      *string      `json:"booked_by_id"`
	BookedByName    string       `json:"booked_by_name"`
	BookedAt        *time.Time   `json:"booked_at"`
	Status          string       `json:"status"`
	AutoRescheduled bool         `json:"autoRescheduled"`
	Arrived         bool         `json:"arrived"`
	Service         *serviceJSON `json:"service"`
}

type errorJSON struct {
	Error string `json:"error"`
}
