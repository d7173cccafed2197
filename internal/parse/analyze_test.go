package parse

import (
	"testing"

	"github.com/antoniostano/remedi/internal/reminder"
)

func TestAnalyzeMissingRequired(t *testing.T) {
	a := Analyze(Candidate{})
	if a.Complete {
		t.Fatalf("empty candidate should not be complete")
	}
	if len(a.Missing) != 2 || a.Missing[0] != FieldMedicine || a.Missing[1] != FieldTime {
		t.Fatalf("Missing = %v, want [medicine time]", a.Missing)
	}

	a = Analyze(Candidate{Medicine: "Aspirin"})
	if len(a.Missing) != 1 || a.Missing[0] != FieldTime {
		t.Fatalf("Missing = %v, want [time]", a.Missing)
	}
}

func TestAnalyzeAppliesDefaultsOnCompletion(t *testing.T) {
	a := Analyze(Candidate{Medicine: "Aspirin", Time: "9:00 AM"})
	if !a.Complete {
		t.Fatalf("candidate with medicine and time should be complete")
	}
	if a.Fields.Frequency != reminder.FreqDaily {
		t.Fatalf("Frequency = %q, want daily default", a.Fields.Frequency)
	}
	if a.Fields.Dosage != reminder.DefaultDosage {
		t.Fatalf("Dosage = %q, want %q", a.Fields.Dosage, reminder.DefaultDosage)
	}
	if len(a.DefaultsApplied) != 2 {
		t.Fatalf("DefaultsApplied = %v, want both defaults", a.DefaultsApplied)
	}
}

func TestAnalyzeKeepsExplicitValues(t *testing.T) {
	a := Analyze(Candidate{Medicine: "Aspirin", Time: "9:00 AM", Dosage: "100mg", Frequency: "twice daily"})
	if !a.Complete {
		t.Fatalf("candidate should be complete")
	}
	if a.Fields.Dosage != "100mg" || a.Fields.Frequency != "twice daily" {
		t.Fatalf("explicit values were overwritten: %+v", a.Fields)
	}
	if len(a.DefaultsApplied) != 0 {
		t.Fatalf("DefaultsApplied = %v, want none", a.DefaultsApplied)
	}
}

func TestAnalyzeIncompleteLeavesOptionalsAlone(t *testing.T) {
	a := Analyze(Candidate{Medicine: "Aspirin"})
	if a.Fields.Frequency != "" || a.Fields.Dosage != "" {
		t.Fatalf("defaults applied before completion: %+v", a.Fields)
	}
}
