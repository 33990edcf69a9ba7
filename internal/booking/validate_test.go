package booking

import (
	"testing"
	"time"
)

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"+593 99 123 4567", "+593 99 123 4567"},
		{"(099) 123-4567", "099 1234567"},
		{"abc0991234567", "0991234567"},
		{"09+91234567", "0991234567"},
	}
	for _, tt := range tests {
		if got := sanitizePhone(tt.in); got != tt.want {
			t.Fatalf("sanitizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	for _, ok := range []string{"ana@example.com", "a.b+c@sub.example.ec"} {
		if !validEmail(ok) {
			t.Fatalf("%q should be valid", ok)
		}
	}
	for _, bad := range []string{"", "ana", "ana@", "@example.com", "a b@example.com"} {
		if validEmail(bad) {
			t.Fatalf("%q should be invalid", bad)
		}
	}
}

func TestNormalizeDefaults(t *testing.T) {
	svc := NewService(nil, nil, nil, ServiceConfig{}, nil)
	fixed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	svc.newToken = func() string { return "tok-abcdef0123456789" }

	appt := svc.normalize(CreateRequest{
		Service:        "  Consulta ",
		Date:           " 2025-06-02 ",
		Time:           "09:00",
		Name:           "  Ana María ",
		Email:          "ana@example.com",
		Phone:          "(099) 123-4567",
		PrivacyConsent: true,
	})

	if appt.Service != "consulta" {
		t.Fatalf("service should be lowercased and trimmed, got %q", appt.Service)
	}
	if appt.Doctor != DoctorIndifferent || appt.DoctorRequested != DoctorIndifferent {
		t.Fatalf("empty doctor should default to indiferente, got %q/%q", appt.Doctor, appt.DoctorRequested)
	}
	if appt.PaymentMethod != PaymentUnpaid {
		t.Fatalf("missing payment method should default to unpaid, got %q", appt.PaymentMethod)
	}
	if appt.Status != StatusConfirmed {
		t.Fatalf("new appointments start confirmed, got %q", appt.Status)
	}
	if appt.RescheduleToken != "tok-abcdef0123456789" {
		t.Fatalf("token not minted: %q", appt.RescheduleToken)
	}
	if appt.ID != fixed.UnixMilli() {
		t.Fatalf("id should come from the clock, got %d", appt.ID)
	}
	if appt.PrivacyConsentAt != fixed.Format(time.RFC3339) {
		t.Fatalf("consent timestamp missing, got %q", appt.PrivacyConsentAt)
	}
	if appt.Phone != "099 1234567" {
		t.Fatalf("phone not sanitized, got %q", appt.Phone)
	}
	if appt.Name != "Ana María" {
		t.Fatalf("name not trimmed, got %q", appt.Name)
	}
}

func TestNormalizeWithoutConsentLeavesNoTimestamp(t *testing.T) {
	svc := NewService(nil, nil, nil, ServiceConfig{}, nil)
	appt := svc.normalize(CreateRequest{Name: "Ana"})
	if appt.PrivacyConsentAt != "" {
		t.Fatalf("no consent, no timestamp: %q", appt.PrivacyConsentAt)
	}
}
