package recurrence

import (
	"time"

	"github.com/phrazzld/practice-scheduler/internal/domain"
)

// Epoch is the watermark assumed for a rule that has never generated.
var Epoch = time.Unix(0, 0).UTC()

// weekInterval is the minimum elapsed time between weekly generations.
const weekInterval = 7 * 24 * time.Hour

// ShouldGenerate reports whether rule is due to produce a task at now and,
// if so, the civil due date of that task. Eligibility (active flag, start
// and end dates) is not checked here; see Eligible.
//
// The result depends only on the rule's frequency, day_of_month and
// watermark, so calling it again after the watermark has been advanced to
// now returns false for the rest of the period.
func ShouldGenerate(rule *domain.RecurrenceRule, now time.Time) (bool, time.Time) {
	if rule == nil {
		return false, time.Time{}
	}

	wm := watermark(rule, now.Location())
	today := domain.CivilDate(now)

	switch rule.Frequency {
	case domain.FrequencyDaily:
		if domain.SameCivilDate(now, wm) {
			return false, time.Time{}
		}
		return true, today.AddDate(0, 0, 1)

	case domain.FrequencyWeekly:
		if now.Sub(wm) < weekInterval {
			return false, time.Time{}
		}
		return true, today.AddDate(0, 0, 7)

	case domain.FrequencyMonthly:
		if rule.DayOfMonth == nil {
			return false, time.Time{}
		}
		dom := *rule.DayOfMonth
		// This month's occurrence falls on day_of_month, or on the last day
		// of a shorter month. It is produced once, by the first run on or
		// after that day, unless the watermark already reached it.
		occurrence := clampedDate(now.Year(), now.Month(), dom)
		if today.Before(occurrence) || !domain.CivilDate(wm).Before(occurrence) {
			return false, time.Time{}
		}
		return true, clampedDate(now.Year(), now.Month()+1, dom)

	case domain.FrequencyQuarterly:
		if monthsBetween(wm, now) < 3 {
			return false, time.Time{}
		}
		dom := domain.DefaultQuarterlyDayOfMonth
		if rule.DayOfMonth != nil {
			dom = *rule.DayOfMonth
		}
		return true, clampedDate(now.Year(), now.Month()+3, dom)

	case domain.FrequencyYearly:
		if now.Year() <= wm.Year() {
			return false, time.Time{}
		}
		return true, clampedDate(now.Year()+1, now.Month(), now.Day())

	default:
		return false, time.Time{}
	}
}

// Eligible reports whether rule takes part in a cycle run at now: it must be
// active, already started, and not past its end date. Start and end dates
// are inclusive.
func Eligible(rule *domain.RecurrenceRule, now time.Time) bool {
	return eligibility(rule, now) == ""
}

// eligibility returns the reason rule is skipped at now, or "" if it is not.
func eligibility(rule *domain.RecurrenceRule, now time.Time) Reason {
	if rule == nil || !rule.Active {
		return ReasonInactive
	}

	today := domain.CivilDate(now)
	if !rule.StartDate.IsZero() && domain.CivilDate(rule.StartDate).After(today) {
		return ReasonNotStarted
	}
	if rule.EndDate != nil && domain.CivilDate(*rule.EndDate).Before(today) {
		return ReasonEnded
	}

	return ""
}

func watermark(rule *domain.RecurrenceRule, loc *time.Location) time.Time {
	if rule.LastGenerated == nil {
		return Epoch.In(loc)
	}
	return rule.LastGenerated.In(loc)
}
