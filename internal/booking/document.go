package booking

import "time"

// Document is the whole system of record: one JSON object per tenant,
// rewritten atomically on every mutation.
type Document struct {
	Appointments []Appointment       `json:"appointments"`
	Callbacks    []Callback          `json:"callbacks"`
	Reviews      []Review            `json:"reviews"`
	Availability map[string][]string `json:"availability"`

	// DateIndex maps date -> positions into Appointments. Derived cache:
	// rebuilt from Appointments before every persist, never hand-edited.
	DateIndex map[string][]int `json:"idx_appointments_date"`

	Meta      Meta   `json:"meta"`
	UpdatedAt string `json:"updatedAt"`
}

type Meta struct {
	// IndifferentCursor is the round-robin cursor used to break ties when
	// assigning a doctor to an "indiferente" booking.
	IndifferentCursor string `json:"indiferenteCursor,omitempty"`
}

func NewDocument(now time.Time) *Document {
	doc := &Document{
		Appointments: []Appointment{},
		Callbacks:    []Callback{},
		Reviews:      []Review{},
		Availability: map[string][]string{},
		UpdatedAt:    now.Format(time.RFC3339),
	}
	doc.RebuildIndex()
	return doc
}

// Normalize guarantees the container fields are non-nil so readers never
// have to distinguish a missing list from an empty one.
func (d *Document) Normalize() {
	if d.Appointments == nil {
		d.Appointments = []Appointment{}
	}
	if d.Callbacks == nil {
		d.Callbacks = []Callback{}
	}
	if d.Reviews == nil {
		d.Reviews = []Review{}
	}
	if d.Availability == nil {
		d.Availability = map[string][]string{}
	}
	if d.DateIndex == nil {
		d.RebuildIndex()
	}
}

// RebuildIndex recomputes the date index from the appointments slice.
func (d *Document) RebuildIndex() {
	idx := make(map[string][]int, len(d.Appointments))
	for i, appt := range d.Appointments {
		if appt.Date == "" {
			continue
		}
		idx[appt.Date] = append(idx[appt.Date], i)
	}
	d.DateIndex = idx
}

// FindByID returns the appointment with the given id, or nil.
func (d *Document) FindByID(id int64) *Appointment {
	for i := range d.Appointments {
		if d.Appointments[i].ID == id {
			return &d.Appointments[i]
		}
	}
	return nil
}

// FindByToken returns the appointment holding the reschedule capability
// token, or nil. Tokens are secrets: callers must never log them.
func (d *Document) FindByToken(token string) *Appointment {
	if token == "" {
		return nil
	}
	for i := range d.Appointments {
		if d.Appointments[i].RescheduleToken == token {
			return &d.Appointments[i]
		}
	}
	return nil
}
