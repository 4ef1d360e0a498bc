package models_test

import (
	"errors"
	"testing"
	"time"

	"github.com/BradenHooton/svatba/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestGuestUpdate_ApplyLeavesOtherFieldsUnchanged(t *testing.T) {
	original := models.Guest{
		ID:             "guest_1_abc",
		GuestName:      "Иван Петров",
		Email:          "ivan@example.com",
		Attending:      true,
		ChildrenCount:  1,
		SubmissionDate: "2025-01-01T00:00:00.000Z",
		IPAddress:      "10.0.0.1",
	}
	name := "Иван Иванов"

	updated := models.GuestUpdate{GuestName: &name}.Apply(original)

	expected := original
	expected.GuestName = name
	assert.Equal(t, expected, updated)
}

func TestGuestUpdate_IsEmpty(t *testing.T) {
	assert.True(t, models.GuestUpdate{}.IsEmpty())

	attending := false
	assert.False(t, models.GuestUpdate{Attending: &attending}.IsEmpty())
}

func TestNewGuest_ToGuest(t *testing.T) {
	at := time.Date(2025, 6, 14, 9, 30, 0, 123000000, time.FixedZone("EEST", 3*3600))

	g := models.NewGuest{GuestName: "Ана", Email: "ana@example.com", Attending: true}.ToGuest("guest_x", at)

	assert.Equal(t, "guest_x", g.ID)
	assert.Equal(t, "2025-06-14T06:30:00.123Z", g.SubmissionDate)
	assert.Equal(t, at.UTC(), g.SubmittedAt())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@x.com", models.NormalizeEmail("  Alice@X.com "))
}

func TestRedactForAdmin(t *testing.T) {
	guests := []models.Guest{{ID: "a", IPAddress: "1.2.3.4"}}

	redacted := models.RedactForAdmin(guests)

	assert.Empty(t, redacted[0].IPAddress)
	assert.Equal(t, "1.2.3.4", guests[0].IPAddress, "input must not be modified")
}

func TestAdminClaims_TimeRemaining(t *testing.T) {
	login := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	claims := &models.AdminClaims{IsAdmin: true, LoginTime: login.UnixMilli()}

	assert.Equal(t, 24*time.Hour, claims.TimeRemaining(login))
	assert.Equal(t, time.Minute, claims.TimeRemaining(login.Add(23*time.Hour+59*time.Minute)))
	assert.Equal(t, time.Duration(0), claims.TimeRemaining(login.Add(25*time.Hour)))
	assert.Equal(t, 2*time.Hour, claims.SessionAge(login.Add(2*time.Hour)))
}

func TestValidationError_IsBadRequest(t *testing.T) {
	err := &models.ValidationError{Fields: map[string]string{"email": "x", "guestName": "y"}}

	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.Equal(t, "validation failed: email, guestName", err.Error())
}

func TestSentinelErrors(t *testing.T) {
	assert.True(t, errors.Is(models.ErrDuplicateEmail, models.ErrConflict))
	assert.False(t, errors.Is(models.ErrGuestNotFound, models.ErrConflict))

	err := &models.ValidationError{Fields: map[string]string{"plusOneName": "x", "email": "y"}}
	assert.True(t, errors.Is(err, models.ErrBadRequest))
	assert.Equal(t, "validation failed: email, plusOneName", err.Error())
}
