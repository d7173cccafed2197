package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/antoniostano/remedi/internal/reminder"
)

// knownMedicines is a curated list of substance and drink names matched as
// case-insensitive substrings. Longest match wins so "vitamin b12" beats
// "vitamin b".
var knownMedicines = []string{
	"paracetamol", "acetaminophen", "ibuprofen", "aspirin", "amoxicillin",
	"azithromycin", "metformin", "insulin", "atorvastatin", "simvastatin",
	"omeprazole", "pantoprazole", "amlodipine", "losartan", "lisinopril",
	"levothyroxine", "thyroxine", "warfarin", "cetirizine", "montelukast",
	"prednisone", "gabapentin", "sertraline", "crocin", "dolo", "combiflam",
	"vitamin a", "vitamin b12", "vitamin b", "vitamin c", "vitamin d3",
	"vitamin d", "vitamin e", "multivitamin", "calcium", "iron", "zinc",
	"magnesium", "folic acid", "omega 3", "fish oil", "cough syrup",
	"antacid", "probiotic", "green tea", "milk", "juice", "water",
}

// genericTerms must never be accepted as a medicine identity; downstream
// completeness checks treat them as missing.
var genericTerms = map[string]struct{}{
	"medicine":   {},
	"medicines":  {},
	"medication": {},
	"tablet":     {},
	"tablets":    {},
	"pill":       {},
	"pills":      {},
	"capsule":    {},
	"capsules":   {},
	"dose":       {},
	"my":         {},
	"the":        {},
	"this":       {},
	"that":       {},
}

var (
	reTakePattern = regexp.MustCompile(`(?i)(?:remind me to |please )?(?:take|taking|have)\s+(?:my\s+|the\s+|a\s+|an\s+)?([a-z][a-z]*(?:\s+[a-z][a-z]*)?)\s*(?:at\b|tablet|pill|capsule|every\b|daily\b|tonight\b|today\b|tomorrow\b|in\b|\d|$)`)

	reTime12     = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*([ap])\.?m\.?\b`)
	reTimeHour12 = regexp.MustCompile(`(?i)\b(\d{1,2})\s*([ap])\.?m\.?\b`)
	reTimeOClock = regexp.MustCompile(`(?i)\b(\d{1,2})\s*o'?\s?clock\b`)
	reTime24     = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)

	reDosageMg      = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:mg|milligrams?)\b`)
	reDosageTablets = regexp.MustCompile(`(?i)\b(\d+)\s*(tablets?|pills?|capsules?)\b`)
	reDosageMl      = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:ml|milliliters?)\b`)
	reDosageUnits   = regexp.MustCompile(`(?i)\b(\d+)\s*units?\b`)

	reEveryNHours = regexp.MustCompile(`(?i)\bevery\s+(\d+)\s+hours?\b`)
	reNTimesADay  = regexp.MustCompile(`(?i)\b(\d+)\s+times?\s+(?:a|per|each)\s+day\b`)
	reEveryDOW    = regexp.MustCompile(`(?i)\bevery\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
)

// Extractor turns free text into a structured candidate reminder using
// deterministic pattern rules. It is the fallback for the AI parser and
// the post-processor of its output.
type Extractor struct {
	// Now supplies the wall clock used for "today"/"tomorrow" dates.
	Now func() time.Time
}

func NewExtractor() *Extractor {
	return &Extractor{Now: time.Now}
}

// Extract never fails; fields it cannot resolve are left empty.
func (e *Extractor) Extract(text string) Candidate {
	lower := strings.ToLower(text)
	c := Candidate{
		Medicine: e.extractMedicine(lower),
		Dosage:   extractDosage(lower),
		Time:     extractTime(lower),
	}
	c.Frequency, c.Date, c.DayOfWeek = e.extractSchedule(lower)
	return c
}

func (e *Extractor) extractMedicine(lower string) string {
	best := ""
	for _, name := range knownMedicines {
		if strings.Contains(lower, name) && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return titleCase(best)
	}

	m := reTakePattern.FindStringSubmatch(lower)
	if m == nil {
		return ""
	}
	words := strings.Fields(m[1])
	// The greedy capture can swallow the terminator word ("zorblax at");
	// trim schedule cue words off the tail.
	for len(words) > 0 {
		if _, stop := captureStopWords[words[len(words)-1]]; !stop {
			break
		}
		words = words[:len(words)-1]
	}
	if len(words) == 0 {
		return ""
	}
	// Reject when every captured word is a generic filler term.
	for _, word := range words {
		if _, generic := genericTerms[word]; !generic {
			return titleCase(strings.Join(words, " "))
		}
	}
	return ""
}

var captureStopWords = map[string]struct{}{
	"at":       {},
	"every":    {},
	"in":       {},
	"daily":    {},
	"tonight":  {},
	"today":    {},
	"tomorrow": {},
	"tablet":   {},
	"tablets":  {},
	"pill":     {},
	"pills":    {},
	"capsule":  {},
	"capsules": {},
}

// extractTime resolves a 12-hour clock string. First matching form wins.
func extractTime(lower string) string {
	if m := reTime12.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour >= 1 && hour <= 12 {
			return fmt.Sprintf("%d:%s %s", hour, m[2], meridiem(m[3]))
		}
	}
	if m := reTimeHour12.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour >= 1 && hour <= 12 {
			return fmt.Sprintf("%d:00 %s", hour, meridiem(m[2]))
		}
	}
	if m := reTimeOClock.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour >= 1 && hour <= 12 {
			return fmt.Sprintf("%d:00 %s", hour, oclockMeridiem(lower, hour))
		}
	}
	if m := reTime24.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := m[2]
		if hour >= 0 && hour <= 23 {
			switch {
			case hour == 0:
				return fmt.Sprintf("12:%s AM", minute)
			case hour < 12:
				return fmt.Sprintf("%d:%s AM", hour, minute)
			case hour == 12:
				return fmt.Sprintf("12:%s PM", minute)
			default:
				return fmt.Sprintf("%d:%s PM", hour-12, minute)
			}
		}
	}
	switch {
	case strings.Contains(lower, "morning"):
		return "8:00 AM"
	case strings.Contains(lower, "afternoon"):
		return "2:00 PM"
	case strings.Contains(lower, "evening"):
		return "6:00 PM"
	case strings.Contains(lower, "night"):
		return "10:00 PM"
	}
	return ""
}

func meridiem(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "a") {
		return "AM"
	}
	return "PM"
}

// oclockMeridiem guesses AM/PM for bare "N o'clock". Part-of-day words in
// the utterance win; otherwise 8-11 reads as morning and the rest as
// afternoon/evening, the usual medication hours.
func oclockMeridiem(lower string, hour int) string {
	switch {
	case strings.Contains(lower, "morning"):
		return "AM"
	case strings.Contains(lower, "afternoon"), strings.Contains(lower, "evening"), strings.Contains(lower, "night"):
		return "PM"
	}
	if hour >= 8 && hour <= 11 {
		return "AM"
	}
	return "PM"
}

func extractDosage(lower string) string {
	if m := reDosageMg.FindStringSubmatch(lower); m != nil {
		return m[1] + "mg"
	}
	if m := reDosageTablets.FindStringSubmatch(lower); m != nil {
		return m[1] + " " + m[2]
	}
	if m := reDosageMl.FindStringSubmatch(lower); m != nil {
		return m[1] + "ml"
	}
	if m := reDosageUnits.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n == 1 {
			return "1 unit"
		}
		return m[1] + " units"
	}
	return ""
}

// extractSchedule resolves frequency and, for one-time reminders, the
// calendar date. Frequency is never defaulted here; that is the
// completeness analyzer's job.
func (e *Extractor) extractSchedule(lower string) (frequency, date, dayOfWeek string) {
	now := e.Now()
	// "once a week/month" is recurring; keep it out of the one-time cues.
	if containsAny(lower, "once a week", "once a month") {
		if strings.Contains(lower, "once a week") {
			return reminder.FreqWeekly, "", ""
		}
		return reminder.FreqMonthly, "", ""
	}
	switch {
	case strings.Contains(lower, "tomorrow"):
		return reminder.FreqOnce, now.AddDate(0, 0, 1).Format(reminder.DayFormat), ""
	case strings.Contains(lower, "today"), strings.Contains(lower, "tonight"):
		return reminder.FreqOnce, now.Format(reminder.DayFormat), ""
	case containsAny(lower, "once", "one time", "single dose"):
		return reminder.FreqOnce, "", ""
	}

	// Multi-word counts before the bare "daily" so "twice daily" does not
	// collapse to daily.
	switch {
	case containsAny(lower, "twice", "two times", "2 times"):
		return reminder.FreqTwiceDaily, "", ""
	case containsAny(lower, "three times", "thrice", "3 times"):
		return reminder.FreqThreeTimesDaily, "", ""
	case containsAny(lower, "four times", "4 times"):
		return reminder.FreqFourTimesDaily, "", ""
	}
	if m := reEveryNHours.FindStringSubmatch(lower); m != nil {
		return "every " + m[1] + " hours", "", ""
	}
	if m := reNTimesADay.FindStringSubmatch(lower); m != nil {
		return m[1] + " times daily", "", ""
	}
	if containsAny(lower, "weekly", "every week", "once a week") {
		return reminder.FreqWeekly, "", ""
	}
	if containsAny(lower, "monthly", "every month", "once a month") {
		return reminder.FreqMonthly, "", ""
	}
	if containsAny(lower, "daily", "every day", "everyday", "each day") {
		return reminder.FreqDaily, "", ""
	}
	if m := reEveryDOW.FindStringSubmatch(lower); m != nil {
		return reminder.FreqWeekly, "", titleCase(m[1])
	}
	return "", "", ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
