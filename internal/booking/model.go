package booking

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
	StatusNoShow    AppointmentStatus = "no_show"
)

type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCash     PaymentMethod = "cash"
	PaymentUnpaid   PaymentMethod = "unpaid"
)

type PaymentStatus string

const (
	PaymentStatusPending        PaymentStatus = "pending"
	PaymentStatusPaid           PaymentStatus = "paid"
	PaymentStatusPendingReview  PaymentStatus = "pending_transfer_review"
	PaymentStatusPendingCash    PaymentStatus = "pending_cash"
	PaymentStatusFailed         PaymentStatus = "failed"
)

// DoctorIndifferent means the patient has no preference and the system
// assigns whichever doctor has the slot free.
const DoctorIndifferent = "indiferente"

// Doctors lists the concrete doctors in assignment order.
var Doctors = []string{"rosero", "narvaez"}

type Appointment struct {
	ID              int64  `json:"id"`
	Service         string `json:"service"`
	Doctor          string `json:"doctor"`
	DoctorRequested string `json:"doctorRequested,omitempty"`
	DoctorAssigned  string `json:"doctorAssigned,omitempty"`
	Date            string `json:"date"`
	Time            string `json:"time"`

	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	Reason        string `json:"reason,omitempty"`
	AffectedArea  string `json:"affectedArea,omitempty"`
	EvolutionTime string `json:"evolutionTime,omitempty"`

	PrivacyConsent   bool   `json:"privacyConsent"`
	PrivacyConsentAt string `json:"privacyConsentAt,omitempty"`

	Price  string            `json:"price,omitempty"`
	Status AppointmentStatus `json:"status"`

	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	PaymentProvider string        `json:"paymentProvider,omitempty"`
	PaymentIntentID string        `json:"paymentIntentId,omitempty"`
	PaymentPaidAt   string        `json:"paymentPaidAt,omitempty"`

	TransferReference string `json:"transferReference,omitempty"`
	TransferProofPath string `json:"transferProofPath,omitempty"`
	TransferProofURL  string `json:"transferProofUrl,omitempty"`

	RescheduleToken string `json:"rescheduleToken"`
	DateBooked      string `json:"dateBooked,omitempty"`
	ReminderSentAt  string `json:"reminderSentAt,omitempty"`

	CalendarProvider string `json:"calendarProvider,omitempty"`
	CalendarID       string `json:"calendarId,omitempty"`
	CalendarEventID  string `json:"calendarEventId,omitempty"`
	CalendarEventURL string `json:"calendarEventUrl,omitempty"`
	SlotDurationMin  int    `json:"slotDurationMin,omitempty"`
}

// EffectiveDoctor is the doctor the appointment actually occupies: the
// assigned one when automatic assignment ran, otherwise the requested one.
func (a *Appointment) EffectiveDoctor() string {
	if a.DoctorAssigned != "" {
		return a.DoctorAssigned
	}
	return a.Doctor
}

type Callback struct {
	ID         int64  `json:"id"`
	Phone      string `json:"telefono"`
	Preference string `json:"preferencia"`
	Date       string `json:"fecha"`
	Status     string `json:"status"`
}

type Review struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Rating   int    `json:"rating"`
	Text     string `json:"text"`
	Date     string `json:"date"`
	Verified bool   `json:"verified"`
}
