package main

import (
	"flag"
	"log"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/pielarmonia/booking-service/internal/booking"
	"github.com/pielarmonia/booking-service/internal/config"
)

// Seeds a store file with plausible clinic data for local development.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appointments := flag.Int("appointments", 40, "appointments to create")
	days := flag.Int("days", 14, "days of availability to open")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	engine := booking.NewEngine(booking.EngineConfig{
		Path:        cfg.StorePath(),
		Key:         booking.DeriveKey(cfg.EncryptionKey),
		MaxBackups:  cfg.MaxBackups,
		LockTimeout: cfg.LockTimeout,
		LockPoll:    cfg.LockPoll,
	})

	gofakeit.Seed(time.Now().UnixNano())

	doc, err := engine.Update(func(doc *booking.Document) error {
		seedAvailability(doc, *days)
		seedAppointments(doc, *appointments)
		seedCallbacks(doc, 5)
		seedReviews(doc, 8)
		return nil
	})
	if err != nil {
		log.Fatalf("seed store: %v", err)
	}

	log.Printf("seed complete: %d appointments, %d availability dates, %d callbacks, %d reviews",
		len(doc.Appointments), len(doc.Availability), len(doc.Callbacks), len(doc.Reviews))
}

var slots = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30", "12:00", "12:30",
	"14:00", "14:30", "15:00", "15:30", "16:00", "16:30", "17:00", "17:30",
}

var services = []string{"consulta", "telefono", "video", "laser", "rejuvenecimiento"}

func seedAvailability(doc *booking.Document, days int) {
	for i := 0; i < days; i++ {
		day := time.Now().AddDate(0, 0, i)
		if day.Weekday() == time.Sunday {
			continue
		}
		date := day.Format("2006-01-02")
		doc.Availability[date] = append([]string{}, slots...)
	}
}

func seedAppointments(doc *booking.Document, count int) {
	log.Printf("seeding %d appointments", count)

	// Walk dates and slots sequentially so no two seeded appointments
	// collide on (date, time, doctor).
	date := time.Now().AddDate(0, 0, 1)
	slot := 0
	doctorTurn := 0

	for i := 0; i < count; i++ {
		if slot >= len(slots) {
			slot = 0
			date = date.AddDate(0, 0, 1)
		}
		if date.Weekday() == time.Sunday {
			date = date.AddDate(0, 0, 1)
		}

		doctor := booking.Doctors[doctorTurn%len(booking.Doctors)]
		doctorTurn++
		if doctorTurn%len(booking.Doctors) == 0 {
			slot++
		}

		now := time.Now()
		doc.Appointments = append(doc.Appointments, booking.Appointment{
			ID:              now.UnixMilli() + int64(i),
			Service:         services[gofakeit.Number(0, len(services)-1)],
			Doctor:          doctor,
			DoctorRequested: doctor,
			Date:            date.Format("2006-01-02"),
			Time:            slots[slot],
			Name:            gofakeit.Name(),
			Email:           gofakeit.Email(),
			Phone:           "09" + strconv.Itoa(gofakeit.Number(10000000, 99999999)),
			PrivacyConsent:  true,
			PrivacyConsentAt: now.Format(time.RFC3339),
			Status:          booking.StatusConfirmed,
			PaymentMethod:   booking.PaymentCash,
			PaymentStatus:   booking.PaymentStatusPendingCash,
			RescheduleToken: gofakeit.UUID(),
			DateBooked:      now.Format(time.RFC3339),
		})
	}
}

func seedCallbacks(doc *booking.Document, count int) {
	for i := 0; i < count; i++ {
		doc.Callbacks = append(doc.Callbacks, booking.Callback{
			ID:         time.Now().UnixMilli() + int64(i),
			Phone:      "09" + strconv.Itoa(gofakeit.Number(10000000, 99999999)),
			Preference: gofakeit.RandomString([]string{"mañana", "tarde"}),
			Date:       time.Now().Format(time.RFC3339),
			Status:     "pendiente",
		})
	}
}

func seedReviews(doc *booking.Document, count int) {
	for i := 0; i < count; i++ {
		doc.Reviews = append(doc.Reviews, booking.Review{
			ID:       gofakeit.UUID(),
			Name:     gofakeit.Name(),
			Rating:   gofakeit.Number(4, 5),
			Text:     gofakeit.Sentence(8),
			Date:     time.Now().AddDate(0, 0, -gofakeit.Number(1, 120)).Format(time.RFC3339),
			Verified: gofakeit.Bool(),
		})
	}
}
