// Package schedule parses five-field cron expressions and evaluates them
// against wall-clock instants at minute granularity.
//
// Parsing is delegated to robfig/cron's standard parser, so all five fields
// (minute, hour, day-of-month, month, weekday) are validated. Matching
// requires every field to match: the parser's usual day-of-month OR weekday
// rule does not apply here. A spec that fails to parse never fires; callers
// are expected to warn once and carry on rather than treat it as fatal.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"cortex/internal/faults"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Spec is a parsed cron expression.
//
// The underlying schedule evaluator treats a restricted day-of-month and a
// restricted weekday as alternatives, firing when either matches. To get the
// all-fields-must-match rule, the spec keeps two variants, each with one day
// field wildcarded; an instant matches only when both variants fire.
type Spec struct {
	raw    string
	domAny cron.Schedule
	dowAny cron.Schedule
}

// Parse validates a five-field cron expression.
func Parse(raw string) (Spec, error) {
	trimmed := strings.TrimSpace(raw)
	fields := strings.Fields(trimmed)
	if len(fields) != 5 {
		return Spec{}, faults.Wrap(faults.ErrScheduleInvalid, "schedule", fmt.Sprintf("expected 5 fields, got %d in %q", len(fields), raw), nil)
	}
	if _, err := parser.Parse(trimmed); err != nil {
		return Spec{}, faults.Wrap(faults.ErrScheduleInvalid, "schedule", fmt.Sprintf("parse %q", raw), err)
	}

	domAny, err := parser.Parse(strings.Join([]string{fields[0], fields[1], "*", fields[3], fields[4]}, " "))
	if err != nil {
		return Spec{}, faults.Wrap(faults.ErrScheduleInvalid, "schedule", fmt.Sprintf("parse %q", raw), err)
	}
	dowAny, err := parser.Parse(strings.Join([]string{fields[0], fields[1], fields[2], fields[3], "*"}, " "))
	if err != nil {
		return Spec{}, faults.Wrap(faults.ErrScheduleInvalid, "schedule", fmt.Sprintf("parse %q", raw), err)
	}

	return Spec{raw: trimmed, domAny: domAny, dowAny: dowAny}, nil
}

// String returns the original expression.
func (s Spec) String() string {
	return s.raw
}

// Matches reports whether the spec fires at the given instant. The instant is
// truncated to the minute before comparison, so any second within a matching
// minute matches. Every field must match, day-of-month and weekday included.
func (s Spec) Matches(t time.Time) bool {
	if s.domAny == nil || s.dowAny == nil {
		return false
	}
	minute := t.Truncate(time.Minute)
	probe := minute.Add(-time.Second)
	return s.domAny.Next(probe).Equal(minute) && s.dowAny.Next(probe).Equal(minute)
}
