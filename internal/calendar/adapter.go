// Package calendar defines the contract the booking service uses to talk to
// an external calendar integration. The concrete Google client lives outside
// this repository; the booking service only depends on the call shapes here.
package calendar

import "context"

// Result is the common outcome shape for calendar calls. Status carries the
// HTTP-ish status the adapter wants surfaced, Code a machine-readable error
// code such as "slot_unavailable" or "calendar_unreachable".
type Result struct {
	OK     bool
	Status int
	Code   string
	Err    string
}

// Assignment is the outcome of automatic doctor assignment.
type Assignment struct {
	Result
	Doctor string
}

// Event describes a created remote calendar event.
type Event struct {
	Result
	Provider   string
	CalendarID string
	EventID    string
	EventURL   string
}

// Booking is the subset of appointment data a calendar adapter needs.
type Booking struct {
	ID         int64
	Service    string
	Date       string
	Time       string
	Name       string
	Email      string
	CalendarID string
	EventID    string
}

type Adapter interface {
	// Active reports whether an external calendar is the source of truth
	// for availability. When false the booking service falls back to the
	// document's availability map.
	Active() bool

	// AssignDoctorForIndifferent picks the doctor for a no-preference
	// booking at the given slot.
	AssignDoctorForIndifferent(ctx context.Context, date, timeOfDay, service string) Assignment

	// EnsureSlotAvailable confirms a concrete doctor is free at the slot.
	EnsureSlotAvailable(ctx context.Context, date, timeOfDay, doctor, service string) Result

	// CreateEvent creates the remote event for a booked appointment.
	CreateEvent(ctx context.Context, b Booking, doctor string) Event

	// PatchEvent moves an existing remote event to a new slot.
	PatchEvent(ctx context.Context, b Booking, newDate, newTime, doctor string) Result

	// CancelEvent deletes the remote event. Used both for cancellations
	// and as compensation when the local persist fails after the remote
	// event was created.
	CancelEvent(ctx context.Context, b Booking) Result
}

// Inactive is the adapter used when no external calendar is configured.
// Every mutation succeeds trivially and Active reports false.
type Inactive struct{}

func (Inactive) Active() bool { return false }

func (Inactive) AssignDoctorForIndifferent(context.Context, string, string, string) Assignment {
	return Assignment{Result: Result{OK: true}}
}

func (Inactive) EnsureSlotAvailable(context.Context, string, string, string, string) Result {
	return Result{OK: true}
}

func (Inactive) CreateEvent(context.Context, Booking, string) Event {
	return Event{Result: Result{OK: true}}
}

func (Inactive) PatchEvent(context.Context, Booking, string, string, string) Result {
	return Result{OK: true}
}

func (Inactive) CancelEvent(context.Context, Booking) Result {
	return Result{OK: true}
}
