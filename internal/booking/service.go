package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pielarmonia/booking-service/internal/calendar"
	"github.com/pielarmonia/booking-service/internal/payment"
)

const timeLayout = time.RFC3339

// Machine-readable error codes surfaced next to human messages where the
// caller needs to distinguish outcomes.
const (
	CodeInvalidRequest      = "invalid_request"
	CodeNotFound            = "not_found"
	CodeSlotUnavailable     = "slot_unavailable"
	CodeCalendarUnreachable = "calendar_unreachable"
	CodePaymentUnavailable  = "payment_unavailable"
	CodePaymentRejected     = "payment_rejected"
	CodePaymentReused       = "payment_intent_reused"
	CodeStoreBusy           = "store_busy"
	CodeStorageError        = "storage_error"
)

// Sentinel errors used inside the locked commit closure to classify races.
var (
	errSlotRace   = errors.New("slot taken during commit")
	errIntentRace = errors.New("payment intent claimed during commit")
	errNotFound   = errors.New("appointment not found")
	errCancelled  = errors.New("appointment cancelled")
)

// Result is the outcome of a domain operation. Failures are values, never
// panics: adapter and storage errors are converted to a status, a
// human-readable message and, where it matters, an error code.
type Result struct {
	OK          bool
	Status      int
	ErrorCode   string
	Message     string
	Appointment *Appointment
	Doc         *Document
}

func fail(status int, code, message string) Result {
	return Result{Status: status, ErrorCode: code, Message: message}
}

// ServiceConfig carries the tenant-level booking knobs.
type ServiceConfig struct {
	Currency        string  // ISO code payments must settle in
	VATRate         float64 // fraction, e.g. 0.12
	SiteID          string  // expected payment metadata "site" value
	DefaultSchedule bool    // fall back to the standard weekly schedule
}

// Service applies appointment mutations on top of the store engine,
// enforcing slot uniqueness and the payment invariants.
type Service struct {
	store Store
	cal   calendar.Adapter
	pay   payment.Adapter
	log   *zap.Logger

	currency        string
	vatRate         float64
	siteID          string
	defaultSchedule bool

	now      func() time.Time
	newToken func() string
}

func NewService(store Store, cal calendar.Adapter, pay payment.Adapter, cfg ServiceConfig, log *zap.Logger) *Service {
	if cal == nil {
		cal = calendar.Inactive{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "USD"
	}
	return &Service{
		store:           store,
		cal:             cal,
		pay:             pay,
		log:             log,
		currency:        currency,
		vatRate:         cfg.VATRate,
		siteID:          cfg.SiteID,
		defaultSchedule: cfg.DefaultSchedule,
		now:             time.Now,
		newToken:        newRescheduleToken,
	}
}

// newRescheduleToken mints the 128-bit capability token that lets a patient
// move their own appointment.
func newRescheduleToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("booking: rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// Create validates and books a new appointment. Adapter calls run before
// the store lock is taken; slot and payment-intent uniqueness are then
// re-checked inside the locked commit so concurrent creates cannot both
// land on the same slot.
func (s *Service) Create(ctx context.Context, req CreateRequest) Result {
	doc, err := s.store.Load()
	if err != nil {
		return s.storageFailure(err)
	}

	appt := s.normalize(req)

	if res, ok := s.validateCreate(&appt); !ok {
		return res
	}

	if res := s.resolveDoctor(ctx, doc, &appt, 0); !res.OK {
		return res
	}

	appt.Price = TotalPrice(appt.Service, appt.Date, s.vatRate)

	if res := s.applyPayment(ctx, doc, &appt); !res.OK {
		return res
	}

	if s.cal.Active() {
		ev := s.cal.CreateEvent(ctx, toCalendarBooking(&appt), appt.EffectiveDoctor())
		if !ev.OK {
			return failFromCalendar(ev.Result, "No se pudo crear el evento en la agenda")
		}
		appt.CalendarProvider = ev.Provider
		appt.CalendarID = ev.CalendarID
		appt.CalendarEventID = ev.EventID
		appt.CalendarEventURL = ev.EventURL
	} else {
		appt.CalendarProvider = "store"
	}

	committed, err := s.store.Update(func(fresh *Document) error {
		if SlotTaken(fresh, appt.Date, appt.Time, 0, appt.EffectiveDoctor()) {
			return errSlotRace
		}
		if appt.PaymentIntentID != "" && intentClaimed(fresh, appt.PaymentIntentID, 0) {
			return errIntentRace
		}
		fresh.Appointments = append(fresh.Appointments, appt)
		if appt.DoctorRequested == DoctorIndifferent {
			advanceIndifferentCursor(fresh, appt.EffectiveDoctor())
		}
		return nil
	})
	if err != nil {
		s.compensateEvent(ctx, &appt)
		switch {
		case errors.Is(err, errSlotRace):
			return fail(409, CodeSlotUnavailable, "Ese horario ya fue reservado")
		case errors.Is(err, errIntentRace):
			return fail(409, CodePaymentReused, "Este pago ya fue utilizado para otra reserva")
		default:
			return s.storageFailure(err)
		}
	}

	s.log.Info("appointment created",
		zap.Int64("id", appt.ID),
		zap.String("date", appt.Date),
		zap.String("time", appt.Time),
		zap.String("doctor", appt.EffectiveDoctor()),
		zap.String("paymentMethod", string(appt.PaymentMethod)))

	return Result{OK: true, Status: 201, Appointment: &appt, Doc: committed}
}

func (s *Service) validateCreate(appt *Appointment) (Result, bool) {
	if appt.Name == "" || appt.Email == "" || appt.Phone == "" {
		return fail(400, CodeInvalidRequest, "Nombre, email y teléfono son obligatorios"), false
	}
	if !validEmail(appt.Email) {
		return fail(400, CodeInvalidRequest, "El formato del email no es válido"), false
	}
	if !validPhone(appt.Phone) {
		return fail(400, CodeInvalidRequest, "El formato del teléfono no es válido"), false
	}
	if !appt.PrivacyConsent {
		return fail(400, CodeInvalidRequest, "Debes aceptar el tratamiento de datos para reservar la cita"), false
	}
	if !KnownService(appt.Service) {
		return fail(400, CodeInvalidRequest, "Servicio no válido"), false
	}
	if appt.Date == "" || appt.Time == "" {
		return fail(400, CodeInvalidRequest, "Fecha y hora son obligatorias"), false
	}
	if !dateRe.MatchString(appt.Date) {
		return fail(400, CodeInvalidRequest, "Formato de fecha inválido"), false
	}
	if appt.Date < s.now().Format("2006-01-02") {
		return fail(400, CodeInvalidRequest, "No se puede agendar en una fecha pasada"), false
	}
	return Result{}, true
}

// resolveDoctor settles which concrete doctor the appointment occupies.
// With an active calendar the adapter is authoritative; either way the
// in-memory document is checked so a booked slot is refused early.
func (s *Service) resolveDoctor(ctx context.Context, doc *Document, appt *Appointment, excludeID int64) Result {
	if s.cal.Active() {
		if appt.Doctor == DoctorIndifferent {
			asn := s.cal.AssignDoctorForIndifferent(ctx, appt.Date, appt.Time, appt.Service)
			if !asn.OK {
				return failFromCalendar(asn.Result, "Ese horario no está disponible")
			}
			appt.DoctorAssigned = asn.Doctor
			appt.Doctor = asn.Doctor
		} else {
			res := s.cal.EnsureSlotAvailable(ctx, appt.Date, appt.Time, appt.Doctor, appt.Service)
			if !res.OK {
				return failFromCalendar(res, "Ese horario no está disponible")
			}
		}
		if SlotTaken(doc, appt.Date, appt.Time, excludeID, appt.EffectiveDoctor()) {
			return fail(409, CodeSlotUnavailable, "Ese horario ya fue reservado")
		}
		return Result{OK: true}
	}

	slots := s.ConfiguredSlots(doc, appt.Date)
	if len(slots) == 0 {
		return fail(400, CodeInvalidRequest, "No hay agenda disponible para la fecha seleccionada")
	}
	if !containsSlot(slots, appt.Time) {
		return fail(400, CodeInvalidRequest, "Ese horario no está disponible para la fecha seleccionada")
	}

	if appt.Doctor == DoctorIndifferent {
		for _, candidate := range s.doctorOrder(doc) {
			if !SlotTaken(doc, appt.Date, appt.Time, excludeID, candidate) {
				appt.DoctorAssigned = candidate
				appt.Doctor = candidate
				return Result{OK: true}
			}
		}
		return fail(409, CodeSlotUnavailable, "Ese horario ya fue reservado")
	}

	if SlotTaken(doc, appt.Date, appt.Time, excludeID, appt.Doctor) {
		return fail(409, CodeSlotUnavailable, "Ese horario ya fue reservado")
	}
	return Result{OK: true}
}

// doctorOrder tries the round-robin cursor first so consecutive
// no-preference bookings alternate between doctors.
func (s *Service) doctorOrder(doc *Document) []string {
	cursor := doc.Meta.IndifferentCursor
	for i, d := range Doctors {
		if d == cursor {
			return append([]string{d}, append(append([]string{}, Doctors[:i]...), Doctors[i+1:]...)...)
		}
	}
	return Doctors
}

func advanceIndifferentCursor(doc *Document, selected string) {
	for _, d := range Doctors {
		if d != selected {
			doc.Meta.IndifferentCursor = d
			return
		}
	}
}

func containsSlot(slots []string, t string) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}

// Cancel flips the appointment to cancelled. Cancelling an already
// cancelled appointment succeeds as a no-op; the reschedule token stays
// claimed either way.
func (s *Service) Cancel(ctx context.Context, id int64) Result {
	if id <= 0 {
		return fail(400, CodeInvalidRequest, "Identificador inválido")
	}

	var cancelled Appointment
	doc, err := s.store.Update(func(fresh *Document) error {
		appt := fresh.FindByID(id)
		if appt == nil {
			return errNotFound
		}
		appt.Status = StatusCancelled
		cancelled = *appt
		return nil
	})
	if err != nil {
		if errors.Is(err, errNotFound) {
			return fail(404, CodeNotFound, "Cita no encontrada")
		}
		return s.storageFailure(err)
	}

	if cancelled.CalendarEventID != "" && s.cal.Active() {
		if res := s.cal.CancelEvent(ctx, toCalendarBooking(&cancelled)); !res.OK {
			s.log.Warn("calendar event cancellation failed",
				zap.Int64("id", cancelled.ID), zap.String("code", res.Code))
		}
	}

	return Result{OK: true, Status: 200, Appointment: &cancelled, Doc: doc}
}

// Reschedule moves an appointment to a new slot, authorized by the
// capability token rather than the id. The remote calendar event is patched
// before the local mutation commits; if the patch fails the whole operation
// fails so local and remote state never drift apart.
func (s *Service) Reschedule(ctx context.Context, token, newDate, newTime string) Result {
	if len(token) < 16 {
		return fail(400, CodeInvalidRequest, "Token inválido")
	}
	if newDate == "" || newTime == "" {
		return fail(400, CodeInvalidRequest, "Fecha y hora son obligatorias")
	}
	if !dateRe.MatchString(newDate) {
		return fail(400, CodeInvalidRequest, "Formato de fecha inválido")
	}
	if newDate < s.now().Format("2006-01-02") {
		return fail(400, CodeInvalidRequest, "No puedes reprogramar a una fecha pasada")
	}

	doc, err := s.store.Load()
	if err != nil {
		return s.storageFailure(err)
	}

	current := doc.FindByToken(token)
	if current == nil {
		return fail(404, CodeNotFound, "Cita no encontrada")
	}
	if current.Status == StatusCancelled {
		return fail(400, CodeInvalidRequest, "Esta cita fue cancelada")
	}

	// Re-resolve the doctor from the original request, so an "indiferente"
	// booking is reassigned against the new slot's availability.
	moved := *current
	moved.Date = newDate
	moved.Time = newTime
	if moved.DoctorRequested != "" {
		moved.Doctor = moved.DoctorRequested
	}
	moved.DoctorAssigned = ""
	if res := s.resolveDoctor(ctx, doc, &moved, current.ID); !res.OK {
		return res
	}

	if current.CalendarEventID != "" && s.cal.Active() {
		res := s.cal.PatchEvent(ctx, toCalendarBooking(current), newDate, newTime, moved.EffectiveDoctor())
		if !res.OK {
			return failFromCalendar(res, "No se pudo reprogramar el evento en la agenda")
		}
	}

	var updated Appointment
	committed, err := s.store.Update(func(fresh *Document) error {
		target := fresh.FindByToken(token)
		if target == nil {
			return errNotFound
		}
		if target.Status == StatusCancelled {
			return errCancelled
		}
		if SlotTaken(fresh, newDate, newTime, target.ID, moved.EffectiveDoctor()) {
			return errSlotRace
		}
		target.Date = newDate
		target.Time = newTime
		target.Doctor = moved.Doctor
		target.DoctorAssigned = moved.DoctorAssigned
		target.ReminderSentAt = ""
		updated = *target
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errNotFound):
			return fail(404, CodeNotFound, "Cita no encontrada")
		case errors.Is(err, errCancelled):
			return fail(400, CodeInvalidRequest, "Esta cita fue cancelada")
		case errors.Is(err, errSlotRace):
			return fail(409, CodeSlotUnavailable, "El horario seleccionado ya no está disponible")
		default:
			return s.storageFailure(err)
		}
	}

	s.log.Info("appointment rescheduled",
		zap.Int64("id", updated.ID),
		zap.String("date", newDate),
		zap.String("time", newTime))

	return Result{OK: true, Status: 200, Appointment: &updated, Doc: committed}
}

// UpdateStatus is the admin operation behind PATCH /appointments: it moves
// the appointment through the status machine and, for transfers, settles
// the manual payment review.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status, paymentStatus string) Result {
	if id <= 0 {
		return fail(400, CodeInvalidRequest, "Identificador inválido")
	}
	if status != "" && !validStatus(AppointmentStatus(status)) {
		return fail(400, CodeInvalidRequest, "Estado no válido")
	}
	if paymentStatus != "" && !validPaymentStatus(PaymentStatus(paymentStatus)) {
		return fail(400, CodeInvalidRequest, "Estado de pago no válido")
	}

	var updated Appointment
	doc, err := s.store.Update(func(fresh *Document) error {
		appt := fresh.FindByID(id)
		if appt == nil {
			return errNotFound
		}
		if status != "" {
			appt.Status = AppointmentStatus(status)
		}
		if paymentStatus != "" {
			appt.PaymentStatus = PaymentStatus(paymentStatus)
			if appt.PaymentStatus == PaymentStatusPaid && appt.PaymentPaidAt == "" {
				appt.PaymentPaidAt = s.now().Format(timeLayout)
			}
		}
		updated = *appt
		return nil
	})
	if err != nil {
		if errors.Is(err, errNotFound) {
			return fail(404, CodeNotFound, "Cita no encontrada")
		}
		return s.storageFailure(err)
	}

	if updated.Status == StatusCancelled && updated.CalendarEventID != "" && s.cal.Active() {
		if res := s.cal.CancelEvent(ctx, toCalendarBooking(&updated)); !res.OK {
			s.log.Warn("calendar event cancellation failed",
				zap.Int64("id", updated.ID), zap.String("code", res.Code))
		}
	}

	return Result{OK: true, Status: 200, Appointment: &updated, Doc: doc}
}

func validStatus(s AppointmentStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

func validPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusPendingReview,
		PaymentStatusPendingCash, PaymentStatusFailed:
		return true
	}
	return false
}

// compensateEvent deletes the remote calendar event after a failed local
// persist so the external calendar does not keep a ghost booking.
func (s *Service) compensateEvent(ctx context.Context, appt *Appointment) {
	if appt.CalendarEventID == "" || !s.cal.Active() {
		return
	}
	if res := s.cal.CancelEvent(ctx, toCalendarBooking(appt)); !res.OK {
		s.log.Error("calendar compensation failed",
			zap.Int64("id", appt.ID), zap.String("code", res.Code))
	}
}

func (s *Service) storageFailure(err error) Result {
	if errors.Is(err, ErrLockTimeout) {
		return fail(503, CodeStoreBusy, "El sistema está ocupado, intenta de nuevo en unos segundos")
	}
	s.log.Error("storage failure", zap.Error(err))
	return fail(500, CodeStorageError, "Error de almacenamiento")
}

func failFromCalendar(res calendar.Result, fallback string) Result {
	status := res.Status
	if status == 0 {
		status = 503
	}
	code := res.Code
	if code == "" {
		code = CodeCalendarUnreachable
	}
	message := res.Err
	if message == "" {
		message = fallback
	}
	return fail(status, code, message)
}

func toCalendarBooking(appt *Appointment) calendar.Booking {
	return calendar.Booking{
		ID:         appt.ID,
		Service:    appt.Service,
		Date:       appt.Date,
		Time:       appt.Time,
		Name:       appt.Name,
		Email:      appt.Email,
		CalendarID: appt.CalendarID,
		EventID:    appt.CalendarEventID,
	}
}
