package api

import "github.com/pielarmonia/booking-service/internal/booking"

type RescheduleRequest struct {
	Token string `json:"token"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

type UpdateAppointmentRequest struct {
	ID            int64  `json:"id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

type AppointmentResponse struct {
	OK   bool                 `json:"ok"`
	Data *booking.Appointment `json:"data,omitempty"`
}

type AppointmentListResponse struct {
	OK   bool                  `json:"ok"`
	Data []booking.Appointment `json:"data"`
}

type BookedSlotsResponse struct {
	OK   bool     `json:"ok"`
	Data []string `json:"data"`
}

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
