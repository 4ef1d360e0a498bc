package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoneValidation(t *testing.T) {
	type form struct {
		Phone string `json:"phone" validate:"omitempty,phone"`
	}

	valid := []string{"", "+359 88 123 4567", "0888123456", "(02) 123-45-67"}
	for _, p := range valid {
		assert.Nil(t, ValidateRequest(form{Phone: p}), p)
	}

	invalid := []string{"12345", "call me", "+359-88-123-4567-999-000", "0888<script>"}
	for _, p := range invalid {
		fields := ValidateRequest(form{Phone: p})
		assert.Equal(t, "Моля, въведете валиден телефонен номер.", fields["phone"], p)
	}
}

func TestValidateRequest_UsesJSONNames(t *testing.T) {
	req := RSVPRequest{Email: "a@x.com"}
	fields := ValidateRequest(req)

	assert.Equal(t, "Моля, въведете вашето име.", fields["guestName"])
	assert.Equal(t, "Моля, посочете дали ще присъствате.", fields["attending"])
	assert.NotContains(t, fields, "GuestName")
	assert.NotContains(t, fields, "email")
}

func TestValidateRequest_OneOfMessage(t *testing.T) {
	yes := true
	fields := ValidateRequest(RSVPRequest{GuestName: "Ана", Email: "a@x.com", Attending: &yes, MenuChoice: "fish"})
	assert.Equal(t, "Позволените стойности са: meat, vegetarian.", fields["menuChoice"])
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "script alert(1)/script", sanitizeString("  <script alert(1)</script>  "))
	assert.Equal(t, "Ана", sanitizeString("Ана"))
	assert.Nil(t, sanitizeStringPtr(nil))
	assert.Equal(t, "x", *sanitizeStringPtr(strPtr(" <x> ")))
}

func strPtr(s string) *string { return &s }
