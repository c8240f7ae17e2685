package handlers_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"swiftmeet-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// assertBookedInvariant checks that booked == (booked_by_id is not null) holds
// for every slot in the database.
func assertBookedInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()
	var violations int64
	require.NoError(t, db.Model(&models.Slot{}).
		Where("(booked = ? AND booked_by_id IS NULL) OR (booked = ? AND booked_by_id IS NOT NULL)", true, false).
		Count(&violations).Error)
	assert.Zero(t, violations, "booked flag out of sync with booked_by_id")
}

func TestBookSlot(t *testing.T) {
	router, db := newTestServer(t)
	registerAccount(t, router, "admin@example.com", models.RoleAdmin)
	admin := userByEmail(t, db, "admin@example.com")
	service := createService(t, db, admin.ID, "dentist")
	slot := createSlot(t, db, service.ID, time.Now().UTC().Add(time.Hour))

	cookies := registerAccount(t, router, "alice@example.com", models.RoleUser)
	alice := userByEmail(t, db, "alice@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/bookings", cookies, gin.H{"slot_id": slot.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Slot slotJSON `json:"slot"`
	}
	decodeBody(t, w, &body)
	assert.True(t, body.Slot.Booked)
	assert.Equal(t, "booked", body.Slot.Status)
	require.NotNil(t, body.Slot.BookedByID)
	assert.Equal(t, alice.ID, *body.Slot.BookedByID)
	assert.Equal(t, alice.Name, body.Slot.BookedByName)
	assert.NotNil(t, body.Slot.BookedAt)
	assert.False(t, body.Slot.AutoRescheduled)
	require.NotNil(t, body.Slot.Service)
	assert.Equal(t, service.ID, body.Slot.Service.ID)

	assertBookedInvariant(t, db)
}

func TestBookSlotUnavailable(t *testing.T) {
	router, db := newTestServer(t)
	registerAccount(t, router, "admin@example.com", models.RoleAdmin)
	admin := userByEmail(t, db, "admin@example.com")
	service := createService(t, db, admin.ID, "dentist")
	slot := createSlot(t, db, service.ID, time.Now().UTC().Add(time.Hour))

	alice := registerAccount(t, router, "alice@example.com", models.RoleUser)
	bob := registerAccount(t, router, "bob@example.com", models.RoleUser)

	w := doJSON(t, router, http.MethodPost, "/api/bookings", alice, gin.H{"slot_id": slot.ID})
	require.Equal(t, http.StatusOK, w.Code)

	// Already booked and nonexistent fail identically.
	for _, slotID := range []string{slot.ID, "no-such-slot"} {
		w = doJSON(t, router, http.MethodPost, "/api/bookings", bob, gin.H{"slot_id": slotID})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var body errorJSON
		decodeBody(t, w, &body)
		assert.Equal(t, "Slot not available", body.Error)
	}
}

func TestBookSlotConcurrentlyHasOneWinner(t *testing.T) {
	router, db := newTestServer(t)
	registerAccount(t, router, "admin@example.com", models.RoleAdmin)
	admin := userByEmail(t, db, "admin@example.com")
	service := createService(t, db, admin.ID, "dentist")
	slot := createSlot(t, db, service.ID, time.Now().UTC().Add(time.Hour))

	const bookers = 6
	sessions := make([][]*http.Cookie, bookers)
	for i := range sessions {
		sessions[i] = registerAccount(t, router, "booker"+string(rune('a'+i))+"@example.com", models.RoleUser)
	}

	codes := make([]int, bookers)
	var wg sync.WaitGroup
	for i := 0; i < bookers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := doJSON(t, router, http.MethodPost, "/api/bookings", sessions[i], gin.H{"slot_id": slot.ID})
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, code := range codes {
		if code == http.StatusOK {
			wins++
		} else {
			assert.Equal(t, http.StatusBadRequest, code)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent booker must win")
	assertBookedInvariant(t, db)
}

func TestMarkArrived(t *testing.T) {
	router, db := newTestServer(t)
	registerAccount(t, router, "admin@example.com", models.RoleAdmin)
	admin := userByEmail(t, db, "admin@example.com")
	service := createService(t, db, admin.ID, "dentist")

	aliceCookies := registerAccount(t, router, "alice@example.com", models.RoleUser)
	alice := userByEmail(t, db, "alice@example.com")
	now := time.Now().UTC()
	slot := createBookedSlot(t, db, service.ID, alice, now.Add(time.Hour), now, false)

	// Someone else's booking reads as not found.
	bobCookies := registerAccount(t, router, "bob@example.com", models.RoleUser)
	w := doJSON(t, router, http.MethodPost, "/api/bookings/"+slot.ID+"/arrived", bobCookies, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/bookings/"+slot.ID+"/arrived", aliceCookies, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Slot slotJSON `json:"slot"`
	}
	decodeBody(t, w, &body)
	assert.Equal(t, "arrived", body.Slot.Status)
	assert.True(t, body.Slot.Arrived)
	assert.True(t, body.Slot.Booked)
}

func TestListBookingsNewestFirst(t *testing.T) {
	router, db := newTestServer(t)
	registerAccount(t, router, "admin@example.com", models.RoleAdmin)
	admin := userByEmail(t, db, "admin@example.com")
	service := createService(t, db, admin.ID, "dentist")

	cookies := registerAccount(t, router, "alice@example.com", models.RoleUser)
	alice := userByEmail(t, db, "alice@example.com")

	now := time.Now().UTC()
	early := createBookedSlot(t, db, service.ID, alice, now.Add(time.Hour), now, false)
	late := createBookedSlot(t, db, service.ID, alice, now.Add(3*time.Hour), now, false)

	var body struct {
		Bookings []slotJSON `json:"bookings"`
	}
	w := doJSON(t, router, http.MethodGet, "/api/bookings", cookies, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &body)
	require.Len(t, body.Bookings, 2)
	assert.Equal(t, late.ID, body.Bookings[0].ID)
	assert.Equal(t, early.ID, body.Bookings[1].ID)
	require.NotNil(t, body.Bookings[0].Service)
	assert.Equal(t, service.ID, body.Bookings[0].Service.ID)
}

func TestListBookingsMarksMissedSlotNoShowWithoutReplacement(t *testing.T) {
	router, db := newTestServer(t)
	registerAccount(t, router, "admin@example.com", models.RoleAdmin)
	admin := userByEmail(t, db, "admin@example.com")
	service := createService(t, db, admin.ID, "dentist")

	cookies := registerAccount(t, router, "alice@example.com", models.RoleUser)
	alice := userByEmail(t, db, "alice@example.com")

	// Missed: past the 15-minute grace window, never arrived, no free slot left.
	now := time.Now().UTC()
	missed := createBookedSlot(t, db, service.ID, alice, now.Add(-time.Hour), now.Add(-2*time.Hour), false)

	var body struct {
		Bookings []slotJSON `json:"bookings"`
	}
	w := doJSON(t, router, http.MethodGet, "/api/bookings", cookies, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &body)
	require.Len(t, body.Bookings, 1)
	assert.Equal(t, missed.ID, body.Bookings[0].ID)
	assert.Equal(t, "no-show", body.Bookings[0].Status)
}

func TestListBookingsAutoReschedulesMissedSlot(t *testing.T) {
	router, db := newTestServer(t)
	registerAccount(t, router, "admin@example.com", models.RoleAdmin)
	admin := userByEmail(t, db, "admin@example.com")
	service := createService(t, db, admin.ID, "dentist")

	cookies := registerAccount(t, router, "alice@example.com", models.RoleUser)
	alice := userByEmail(t, db, "alice@example.com")

	now := time.Now().UTC()
	missed := createBookedSlot(t, db, service.ID, alice, now.Add(-time.Hour), now.Add(-2*time.Hour), false)
	free := createSlot(t, db, service.ID, now.Add(2*time.Hour))

	var body struct {
		Bookings []slotJSON `json:"bookings"`
	}
	w := doJSON(t, router, http.MethodGet, "/api/bookings", cookies, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &body)
	require.Len(t, body.Bookings, 2)

	byID := map[string]slotJSON{}
	for _, b := range body.Bookings {
		byID[b.ID] = b
	}
	assert.Equal(t, "no-show", byID[missed.ID].Status)
	assert.Equal(t, "booked", byID[free.ID].Status)
	assert.True(t, byID[free.ID].AutoRescheduled)
	assert.Equal(t, alice.Name, byID[free.ID].BookedByName)

	assertBookedInvariant(t, db)
}

func TestFindNextSlotManual(t *testing.T) {
	router, db := newTestServer(t)
	registerAccount(t, router, "admin@example.com", models.RoleAdmin)
	admin := userByEmail(t, db, "admin@example.com")
	service := createService(t, db, admin.ID, "dentist")

	cookies := registerAccount(t, router, "alice@example.com", models.RoleUser)
	alice := userByEmail(t, db, "alice@example.com")

	// The booking has not been missed yet; manual reschedule works regardless.
	now := time.Now().UTC()
	current := createBookedSlot(t, db, service.ID, alice, now.Add(time.Hour), now, false)
	next := createSlot(t, db, service.ID, now.Add(3*time.Hour))

	w := doJSON(t, router, http.MethodPost, "/api/bookings/"+current.ID+"/find-next-slot", cookies, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		NewSlot slotJSON `json:"new_slot"`
	}
	decodeBody(t, w, &body)
	assert.Equal(t, next.ID, body.NewSlot.ID)
	assert.True(t, body.NewSlot.Booked)
	assert.False(t, body.NewSlot.AutoRescheduled)
	require.NotNil(t, body.NewSlot.Service)

	var old models.Slot
	require.NoError(t, db.First(&old, "id = ?", current.ID).Error)
	assert.Equal(t, models.SlotNoShow, old.Status)
}

func TestFindNextSlotExhausted(t *testing.T) {
	router, db := newTestServer(t)
	registerAccount(t, router, "admin@example.com", models.RoleAdmin)
	admin := userByEmail(t, db, "admin@example.com")
	service := createService(t, db, admin.ID, "dentist")

	cookies := registerAccount(t, router, "alice@example.com", models.RoleUser)
	alice := userByEmail(t, db, "alice@example.com")

	now := time.Now().UTC()
	current := createBookedSlot(t, db, service.ID, alice, now.Add(-time.Hour), now.Add(-2*time.Hour), false)

	w := doJSON(t, router, http.MethodPost, "/api/bookings/"+current.ID+"/find-next-slot", cookies, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message": "No next available slots"}`, w.Body.String())

	var old models.Slot
	require.NoError(t, db.First(&old, "id = ?", current.ID).Error)
	assert.Equal(t, models.SlotNoShow, old.Status)
}

func TestFindNextSlotForeignBooking(t *testing.T) {
	router, db := newTestServer(t)
	registerAccount(t, router, "admin@example.com", models.RoleAdmin)
	admin := userByEmail(t, db, "admin@example.com")
	service := createService(t, db, admin.ID, "dentist")

	registerAccount(t, router, "alice@example.com", models.RoleUser)
	alice := userByEmail(t, db, "alice@example.com")
	now := time.Now().UTC()
	slot := createBookedSlot(t, db, service.ID, alice, now.Add(time.Hour), now, false)

	bob := registerAccount(t, router, "bob@example.com", models.RoleUser)
	w := doJSON(t, router, http.MethodPost, "/api/bookings/"+slot.ID+"/find-next-slot", bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
