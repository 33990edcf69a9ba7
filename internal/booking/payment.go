package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/pielarmonia/booking-service/internal/payment"
)

// intentClaimed reports whether any appointment already holds the payment
// intent. A non-empty intent id is claimed forever, even by cancelled
// appointments, so one charge can never back two bookings.
func intentClaimed(doc *Document, intentID string, excludeID int64) bool {
	for i := range doc.Appointments {
		appt := &doc.Appointments[i]
		if excludeID != 0 && appt.ID == excludeID {
			continue
		}
		if appt.PaymentIntentID != "" && appt.PaymentIntentID == intentID {
			return true
		}
	}
	return false
}

// applyPayment settles the payment branch of a new appointment. Only the
// card branch talks to the gateway; the other methods resolve locally.
func (s *Service) applyPayment(ctx context.Context, doc *Document, appt *Appointment) Result {
	switch appt.PaymentMethod {
	case PaymentCard:
		if appt.PaymentIntentID == "" {
			return fail(400, CodeInvalidRequest, "Falta confirmar el pago con tarjeta")
		}
		if intentClaimed(doc, appt.PaymentIntentID, 0) {
			return fail(409, CodePaymentReused, "Este pago ya fue utilizado para otra reserva")
		}
		if s.pay == nil {
			return fail(503, CodePaymentUnavailable, "La pasarela de pago no está disponible")
		}

		intent, err := s.pay.GetPaymentIntent(ctx, appt.PaymentIntentID)
		if err != nil {
			if errors.Is(err, payment.ErrIntentNotFound) {
				return fail(400, CodePaymentRejected, "El pago indicado no existe")
			}
			return fail(502, CodePaymentUnavailable, "No se pudo validar el pago en este momento")
		}

		if res := s.validateIntent(intent, appt); !res.OK {
			return res
		}

		appt.PaymentStatus = PaymentStatusPaid
		appt.PaymentProvider = "stripe"
		appt.PaymentPaidAt = s.now().Format(timeLayout)

	case PaymentTransfer:
		if appt.TransferReference == "" {
			return fail(400, CodeInvalidRequest, "Debes ingresar el número de referencia de la transferencia")
		}
		if appt.TransferProofPath == "" || appt.TransferProofURL == "" {
			return fail(400, CodeInvalidRequest, "Debes adjuntar el comprobante de transferencia")
		}
		appt.PaymentStatus = PaymentStatusPendingReview

	case PaymentCash:
		appt.PaymentStatus = PaymentStatusPendingCash

	default:
		appt.PaymentMethod = PaymentUnpaid
		appt.PaymentStatus = PaymentStatusPending
	}

	return Result{OK: true}
}

// validateIntent checks the gateway's view of the charge against the
// booking: exact success status, exact server-computed amount, configured
// currency, and any metadata the intent carries. Every mismatch is a hard
// failure, never ignored.
func (s *Service) validateIntent(intent *payment.Intent, appt *Appointment) Result {
	if intent.Status != "succeeded" {
		return fail(400, CodePaymentRejected, "El pago aún no está completado")
	}

	expected := ExpectedAmountCents(appt.Service, appt.Date, s.vatRate)
	if expected <= 0 || intent.Amount != expected || intent.AmountReceived != expected {
		return fail(400, CodePaymentRejected, "El monto pagado no coincide con la reserva")
	}

	if !strings.EqualFold(intent.Currency, s.currency) {
		return fail(400, CodePaymentRejected, "La moneda del pago no coincide con la configuración")
	}

	meta := intent.Metadata
	if site := strings.TrimSpace(meta["site"]); site != "" && !strings.EqualFold(site, s.siteID) {
		return fail(400, CodePaymentRejected, "El pago no pertenece a este sitio")
	}
	if v := strings.TrimSpace(meta["service"]); v != "" && v != appt.Service {
		return fail(400, CodePaymentRejected, "El pago no coincide con el servicio seleccionado")
	}
	if v := strings.TrimSpace(meta["date"]); v != "" && v != appt.Date {
		return fail(400, CodePaymentRejected, "El pago no coincide con la fecha seleccionada")
	}
	if v := strings.TrimSpace(meta["time"]); v != "" && v != appt.Time {
		return fail(400, CodePaymentRejected, "El pago no coincide con la hora seleccionada")
	}
	if v := strings.TrimSpace(meta["doctor"]); v != "" && v != appt.DoctorRequested && v != appt.EffectiveDoctor() {
		return fail(400, CodePaymentRejected, "El pago no coincide con el doctor seleccionado")
	}

	return Result{OK: true}
}
