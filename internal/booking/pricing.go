package booking

import (
	"fmt"
	"math"
	"time"
)

// Base prices per service, VAT excluded.
var servicePrices = map[string]float64{
	"consulta":         40.00,
	"telefono":         25.00,
	"video":            30.00,
	"laser":            150.00,
	"rejuvenecimiento": 120.00,
}

var serviceLabels = map[string]string{
	"consulta":         "Consulta Presencial",
	"telefono":         "Consulta Telefonica",
	"video":            "Video Consulta",
	"laser":            "Tratamiento Laser",
	"rejuvenecimiento": "Rejuvenecimiento",
}

func KnownService(service string) bool {
	_, ok := servicePrices[service]
	return ok
}

func ServiceLabel(service string) string {
	if label, ok := serviceLabels[service]; ok {
		return label
	}
	return service
}

// weekendMultiplier prices weekend slots 10% above the weekday rate.
func weekendMultiplier(date string) float64 {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 1.0
	}
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return 1.10
	}
	return 1.0
}

// ExpectedAmountCents is the server-side total a payment intent must match:
// base price plus VAT, times the date multiplier, in cents.
func ExpectedAmountCents(service, date string, vatRate float64) int64 {
	base, ok := servicePrices[service]
	if !ok {
		return 0
	}
	total := base * (1 + vatRate) * weekendMultiplier(date)
	return int64(math.Round(total * 100))
}

// TotalPrice renders the VAT-inclusive price stored on the appointment.
func TotalPrice(service, date string, vatRate float64) string {
	cents := ExpectedAmountCents(service, date, vatRate)
	if cents == 0 {
		return ""
	}
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
