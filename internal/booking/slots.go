package booking

import (
	"regexp"
	"sort"
	"time"
)

var timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)

// SlotTaken reports whether a non-cancelled appointment already occupies
// (date, time) for the given doctor. An "indiferente" doctor on either side
// matches any concrete doctor. excludeID skips the appointment being moved
// during a reschedule; pass 0 otherwise.
func SlotTaken(doc *Document, date, timeOfDay string, excludeID int64, doctor string) bool {
	positions, ok := doc.DateIndex[date]
	if !ok {
		// Index may be stale on a freshly mutated copy; fall back to a scan.
		return slotTakenScan(doc.Appointments, date, timeOfDay, excludeID, doctor)
	}

	for _, i := range positions {
		if i < 0 || i >= len(doc.Appointments) {
			continue
		}
		if conflicts(&doc.Appointments[i], date, timeOfDay, excludeID, doctor) {
			return true
		}
	}
	return false
}

func slotTakenScan(appointments []Appointment, date, timeOfDay string, excludeID int64, doctor string) bool {
	for i := range appointments {
		if conflicts(&appointments[i], date, timeOfDay, excludeID, doctor) {
			return true
		}
	}
	return false
}

func conflicts(appt *Appointment, date, timeOfDay string, excludeID int64, doctor string) bool {
	if appt.Date != date || appt.Time != timeOfDay {
		return false
	}
	if excludeID != 0 && appt.ID == excludeID {
		return false
	}
	if appt.Status == StatusCancelled {
		return false
	}
	if doctor != "" && doctor != DoctorIndifferent {
		taken := appt.EffectiveDoctor()
		if taken != "" && taken != DoctorIndifferent && taken != doctor {
			return false
		}
	}
	return true
}

// ConfiguredSlots returns the bookable HH:MM slots for a date: the explicit
// allow-list from the document when present, otherwise the default schedule
// when that is enabled. The result is deduplicated and sorted.
func (s *Service) ConfiguredSlots(doc *Document, date string) []string {
	slots := doc.Availability[date]

	if len(slots) == 0 && s.defaultSchedule {
		slots = defaultSlotsFor(date)
	}

	seen := make(map[string]bool, len(slots))
	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		if !timeRe.MatchString(slot) || seen[slot] {
			continue
		}
		seen[slot] = true
		out = append(out, slot)
	}
	sort.Strings(out)
	return out
}

var weekdaySlots = []string{
	"09:00", "09:30", "10:00", "10:30",
	"11:00", "11:30", "12:00", "12:30",
	"14:00", "14:30", "15:00", "15:30",
	"16:00", "16:30", "17:00", "17:30",
}

var saturdaySlots = []string{
	"09:00", "09:30", "10:00", "10:30",
	"11:00", "11:30", "12:00", "12:30",
}

// defaultSlotsFor returns the clinic's standard schedule for a date:
// full weekdays, Saturday mornings, closed on Sunday.
func defaultSlotsFor(date string) []string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil
	}
	switch t.Weekday() {
	case time.Sunday:
		return nil
	case time.Saturday:
		return saturdaySlots
	default:
		return weekdaySlots
	}
}
