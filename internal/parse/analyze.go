package parse

import "github.com/antoniostano/remedi/internal/reminder"

// Analysis reports which fields of a candidate are still missing and
// which defaults were filled in.
type Analysis struct {
	Fields          Candidate `json:"fields"`
	Complete        bool      `json:"complete"`
	Missing         []string  `json:"missing"`
	DefaultsApplied []string  `json:"defaults_applied,omitempty"`
}

// Analyze checks a candidate for completeness. Medicine and time are
// required; dosage and frequency are optional and fall back to defaults
// once the required fields are in, so they never appear in the missing
// list.
func Analyze(c Candidate) Analysis {
	a := Analysis{Fields: c}

	if c.Medicine == "" {
		a.Missing = append(a.Missing, FieldMedicine)
	}
	if c.Time == "" {
		a.Missing = append(a.Missing, FieldTime)
	}
	a.Complete = len(a.Missing) == 0

	if a.Complete {
		if a.Fields.Frequency == "" {
			a.Fields.Frequency = reminder.FreqDaily
			a.DefaultsApplied = append(a.DefaultsApplied, FieldFrequency)
		}
		if a.Fields.Dosage == "" {
			a.Fields.Dosage = reminder.DefaultDosage
			a.DefaultsApplied = append(a.DefaultsApplied, FieldDosage)
		}
	}
	return a
}
