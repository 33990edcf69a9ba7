package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pielarmonia/booking-service/internal/booking"
	"github.com/pielarmonia/booking-service/internal/calendar"
)

// newTestServer stands up the full stack on a temp store: real engine, real
// service, no redis. The returned date has two open slots.
func newTestServer(t *testing.T) (http.Handler, string) {
	t.Helper()

	engine := booking.NewEngine(booking.EngineConfig{
		Path: filepath.Join(t.TempDir(), "store.json"),
		Key:  booking.DeriveKey("test-key"),
	})

	date := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	if _, err := engine.Update(func(doc *booking.Document) error {
		doc.Availability[date] = []string{"09:00", "10:00"}
		return nil
	}); err != nil {
		t.Fatalf("open availability: %v", err)
	}

	svc := booking.NewService(engine, calendar.Inactive{}, nil, booking.ServiceConfig{
		Currency: "usd",
		VATRate:  0.12,
		SiteID:   "pielarmonia.com",
	}, zap.NewNop())

	router := NewRouter(RouterConfig{
		Service: svc,
		Store:   engine,
		Logger:  zap.NewNop(),
		Env:     "test",
		Version: "test",
	})
	return router, date
}

func postJSON(t *testing.T, h http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createBooking(t *testing.T, h http.Handler, date, timeOfDay, doctor string) booking.Appointment {
	t.Helper()
	rec := postJSON(t, h, "/appointments", booking.CreateRequest{
		Service:        "consulta",
		Doctor:         doctor,
		Date:           date,
		Time:           timeOfDay,
		Name:           "Ana María",
		Email:          "ana@example.com",
		Phone:          "0991234567",
		PrivacyConsent: true,
		PaymentMethod:  "cash",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp AppointmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.Data == nil {
		t.Fatalf("bad create response: %s", rec.Body.String())
	}
	return *resp.Data
}

func TestCreateAndListAppointments(t *testing.T) {
	h, date := newTestServer(t)

	appt := createBooking(t, h, date, "09:00", "rosero")
	if appt.ID == 0 || appt.RescheduleToken == "" {
		t.Fatalf("created appointment incomplete: %+v", appt)
	}

	rec := get(t, h, "/appointments")
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}
	var list AppointmentListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].ID != appt.ID {
		t.Fatalf("list mismatch: %+v", list.Data)
	}
}

func TestCreateRejectsMalformedJSON(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

func TestDoubleBookingConflict(t *testing.T) {
	h, date := newTestServer(t)

	createBooking(t, h, date, "09:00", "rosero")

	rec := postJSON(t, h, "/appointments", booking.CreateRequest{
		Service:        "consulta",
		Doctor:         "rosero",
		Date:           date,
		Time:           "09:00",
		Name:           "Luis",
		Email:          "luis@example.com",
		Phone:          "0987654321",
		PrivacyConsent: true,
		PaymentMethod:  "cash",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != booking.CodeSlotUnavailable {
		t.Fatalf("want slot_unavailable, got %q", resp.Code)
	}
}

func TestBookedSlots(t *testing.T) {
	h, date := newTestServer(t)

	createBooking(t, h, date, "09:00", "rosero")

	rec := get(t, h, "/booked-slots?date="+date+"&doctor=rosero")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var resp BookedSlotsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0] != "09:00" {
		t.Fatalf("want [09:00], got %v", resp.Data)
	}

	// The other doctor still has the slot free.
	rec = get(t, h, "/booked-slots?date="+date+"&doctor=narvaez")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 0 {
		t.Fatalf("narvaez should be free, got %v", resp.Data)
	}

	if rec := get(t, h, "/booked-slots"); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing date, want 400, got %d", rec.Code)
	}
}

func TestCancelEndpoint(t *testing.T) {
	h, date := newTestServer(t)

	appt := createBooking(t, h, date, "09:00", "rosero")

	rec := postJSON(t, h, fmt.Sprintf("/appointments/%d/cancel", appt.ID), struct{}{})
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp AppointmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Status != booking.StatusCancelled {
		t.Fatalf("want cancelled, got %q", resp.Data.Status)
	}

	if rec := postJSON(t, h, "/appointments/abc/cancel", struct{}{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id, want 400, got %d", rec.Code)
	}
}

func TestRescheduleEndpoint(t *testing.T) {
	h, date := newTestServer(t)

	appt := createBooking(t, h, date, "09:00", "rosero")

	rec := postJSON(t, h, "/reschedule", RescheduleRequest{
		Token: appt.RescheduleToken,
		Date:  date,
		Time:  "10:00",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reschedule returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp AppointmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Time != "10:00" {
		t.Fatalf("slot not moved: %+v", resp.Data)
	}

	rec = postJSON(t, h, "/reschedule", RescheduleRequest{
		Token: "unknown-token-0123456789",
		Date:  date,
		Time:  "10:00",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown token, want 404, got %d", rec.Code)
	}
}

func TestUpdateEndpoint(t *testing.T) {
	h, date := newTestServer(t)

	appt := createBooking(t, h, date, "09:00", "rosero")

	req := httptest.NewRequest(http.MethodPatch, "/appointments",
		bytes.NewReader(mustJSON(t, UpdateAppointmentRequest{ID: appt.ID, Status: "completed", PaymentStatus: "paid"})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp AppointmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Status != booking.StatusCompleted || resp.Data.PaymentStatus != booking.PaymentStatusPaid {
		t.Fatalf("update not applied: %+v", resp.Data)
	}
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestServer(t)

	if rec := get(t, h, "/health/live"); rec.Code != http.StatusOK {
		t.Fatalf("liveness returned %d", rec.Code)
	}
	rec := get(t, h, "/health/ready")
	if rec.Code != http.StatusOK {
		t.Fatalf("readiness returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp ReadinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Dependencies["store"] != "ok" {
		t.Fatalf("unexpected readiness: %+v", resp)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}
