package reminder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var reClock = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(AM|PM)$`)

// ParseClock converts a 12-hour "H:MM AM/PM" string to 24-hour parts.
// 12 AM maps to hour 0, 12 PM stays 12, other PM hours add 12.
func ParseClock(s string) (hour, minute int, err error) {
	m := reClock.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return 0, 0, fmt.Errorf("invalid clock string %q", s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid clock string %q", s)
	}
	switch m[3] {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	}
	return hour, minute, nil
}

// At places a 12-hour clock string on the calendar day of ref, in ref's
// location.
func At(ref time.Time, clock string) (time.Time, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, ref.Location()), nil
}
