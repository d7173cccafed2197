package parse

// Candidate is a partially extracted reminder. Empty string means the
// field has not been collected yet.
type Candidate struct {
	Medicine  string `json:"medicine,omitempty"`
	Dosage    string `json:"dosage,omitempty"`
	Time      string `json:"time,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Date      string `json:"date,omitempty"`
	DayOfWeek string `json:"day_of_week,omitempty"`
}

// Merge overlays other onto c. Non-empty incoming values overwrite;
// empty values never erase previously collected ones.
func (c Candidate) Merge(other Candidate) Candidate {
	out := c
	if other.Medicine != "" {
		out.Medicine = other.Medicine
	}
	if other.Dosage != "" {
		out.Dosage = other.Dosage
	}
	if other.Time != "" {
		out.Time = other.Time
	}
	if other.Frequency != "" {
		out.Frequency = other.Frequency
	}
	if other.Date != "" {
		out.Date = other.Date
	}
	if other.DayOfWeek != "" {
		out.DayOfWeek = other.DayOfWeek
	}
	return out
}

// Field names used in missing-field lists and follow-up questions.
const (
	FieldMedicine  = "medicine"
	FieldTime      = "time"
	FieldDosage    = "dosage"
	FieldFrequency = "frequency"
)
