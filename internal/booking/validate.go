package booking

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9][0-9 ]{6,18}$`)
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

func validEmail(email string) bool {
	return len(email) <= 254 && emailRe.MatchString(email)
}

// sanitizePhone keeps digits, spaces and a leading plus sign.
func sanitizePhone(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func validPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// CreateRequest is the plain-data payload for a new booking.
type CreateRequest struct {
	Service string `json:"service"`
	Doctor  string `json:"doctor"`
	Date    string `json:"date"`
	Time    string `json:"time"`

	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	Reason        string `json:"reason"`
	AffectedArea  string `json:"affectedArea"`
	EvolutionTime string `json:"evolutionTime"`

	PrivacyConsent bool `json:"privacyConsent"`

	PaymentMethod     string `json:"paymentMethod"`
	PaymentIntentID   string `json:"paymentIntentId"`
	TransferReference string `json:"transferReference"`
	TransferProofPath string `json:"transferProofPath"`
	TransferProofURL  string `json:"transferProofUrl"`
}

// normalize turns the raw payload into a new appointment with trimmed,
// bounded fields. Doctor assignment, payment state and pricing are filled
// in later by Create.
func (s *Service) normalize(req CreateRequest) Appointment {
	now := s.now()

	doctor := strings.ToLower(strings.TrimSpace(req.Doctor))
	if doctor == "" {
		doctor = DoctorIndifferent
	}

	method := PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod)))
	switch method {
	case PaymentCard, PaymentTransfer, PaymentCash:
	default:
		method = PaymentUnpaid
	}

	appt := Appointment{
		ID:              now.UnixMilli(),
		Service:         truncate(strings.ToLower(strings.TrimSpace(req.Service)), 50),
		Doctor:          truncate(doctor, 100),
		DoctorRequested: truncate(doctor, 100),
		Date:            truncate(strings.TrimSpace(req.Date), 20),
		Time:            truncate(strings.TrimSpace(req.Time), 10),
		Name:            truncate(strings.TrimSpace(req.Name), 150),
		Email:           truncate(strings.TrimSpace(req.Email), 254),
		Phone:           truncate(sanitizePhone(req.Phone), 20),
		Reason:          truncate(strings.TrimSpace(req.Reason), 1000),
		AffectedArea:    truncate(strings.TrimSpace(req.AffectedArea), 100),
		EvolutionTime:   truncate(strings.TrimSpace(req.EvolutionTime), 100),
		PrivacyConsent:  req.PrivacyConsent,
		Status:          StatusConfirmed,
		PaymentMethod:   method,
		PaymentStatus:   PaymentStatusPending,
		PaymentIntentID: truncate(strings.TrimSpace(req.PaymentIntentID), 100),
		TransferReference: truncate(strings.TrimSpace(req.TransferReference), 100),
		TransferProofPath: truncate(strings.TrimSpace(req.TransferProofPath), 300),
		TransferProofURL:  truncate(strings.TrimSpace(req.TransferProofURL), 300),
		DateBooked:      now.Format(timeLayout),
		RescheduleToken: s.newToken(),
	}
	if appt.PrivacyConsent {
		appt.PrivacyConsentAt = now.Format(timeLayout)
	}
	return appt
}
