package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pielarmonia/booking-service/internal/booking"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeResult maps a domain result onto the HTTP response. A busy store
// advertises Retry-After so well-behaved clients back off briefly.
func writeResult(w http.ResponseWriter, res booking.Result) {
	if res.OK {
		writeJSON(w, res.Status, AppointmentResponse{OK: true, Data: res.Appointment})
		return
	}
	if res.ErrorCode == booking.CodeStoreBusy {
		w.Header().Set("Retry-After", "2")
	}
	writeError(w, res.Status, res.ErrorCode, res.Message)
}

func createAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req booking.CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, booking.CodeInvalidRequest, "could not parse JSON")
			return
		}

		writeResult(w, svc.Create(r.Context(), req))
	}
}

func listAppointmentsHandler(store booking.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := store.Load()
		if err != nil {
			writeError(w, http.StatusInternalServerError, booking.CodeStorageError, "could not read the store")
			return
		}
		writeJSON(w, http.StatusOK, AppointmentListResponse{OK: true, Data: doc.Appointments})
	}
}

func updateAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, booking.CodeInvalidRequest, "could not parse JSON")
			return
		}

		writeResult(w, svc.UpdateStatus(r.Context(), req.ID, req.Status, req.PaymentStatus))
	}
}

func cancelAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, booking.CodeInvalidRequest, "id must be numeric")
			return
		}

		writeResult(w, svc.Cancel(r.Context(), id))
	}
}

func rescheduleHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, booking.CodeInvalidRequest, "could not parse JSON")
			return
		}

		writeResult(w, svc.Reschedule(r.Context(), req.Token, req.Date, req.Time))
	}
}

// bookedSlotsHandler lists the times already occupied on a date for a
// doctor, so the booking UI can grey them out.
func bookedSlotsHandler(store booking.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			writeError(w, http.StatusBadRequest, booking.CodeInvalidRequest, "date is required")
			return
		}

		doctor := r.URL.Query().Get("doctor")
		if doctor == "" {
			doctor = booking.DoctorIndifferent
		}

		doc, err := store.Load()
		if err != nil {
			writeError(w, http.StatusInternalServerError, booking.CodeStorageError, "could not read the store")
			return
		}

		taken := make([]string, 0)
		seen := make(map[string]bool)
		for _, i := range doc.DateIndex[date] {
			if i < 0 || i >= len(doc.Appointments) {
				continue
			}
			appt := doc.Appointments[i]
			if appt.Status == booking.StatusCancelled || seen[appt.Time] {
				continue
			}
			if doctor != booking.DoctorIndifferent {
				owner := appt.EffectiveDoctor()
				if owner != "" && owner != booking.DoctorIndifferent && owner != doctor {
					continue
				}
			}
			seen[appt.Time] = true
			taken = append(taken, appt.Time)
		}

		writeJSON(w, http.StatusOK, BookedSlotsResponse{OK: true, Data: taken})
	}
}
