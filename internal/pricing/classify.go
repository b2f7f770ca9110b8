// Package pricing holds the booking engine's age classification and price
// computation. Everything here is pure: inputs in, a number out, no store
// access and no clock reads — the reference date is always a parameter.
package pricing

import "frontdesk/internal/domain"

type AgeBucket int

const (
	BucketAdult AgeBucket = iota
	BucketChild
	BucketInfant
)

func (b AgeBucket) String() string {
	switch b {
	case BucketAdult:
		return "adult"
	case BucketChild:
		return "child"
	default:
		return "infant"
	}
}

// AgeDistribution is derived fresh from the roster at computation time, never
// stored. Because ages move with the reference date, the same booking can
// price differently across calendar years as guests age; callers that need a
// stable figure must pin the reference date themselves.
type AgeDistribution struct {
	Adults   int
	Children int
	Infants  int
}

func (d AgeDistribution) NonAdults() int { return d.Children + d.Infants }

// AgeYears computes age in whole years as elapsed days divided by 365. This
// deliberately ignores leap days; the band boundaries at 6 and 16 are defined
// against this arithmetic, not against calendar anniversaries.
func AgeYears(birthdate, today domain.Date) int {
	days := today.DaysSince(birthdate)
	if days < 0 {
		return 0
	}
	return days / 365
}

// ClassifyAge buckets a birthdate: adult at 16 and above, child from 6 to 15,
// infant below 6. A nil birthdate returns ok=false and the guest is skipped —
// partial rosters must not fail the whole computation.
func ClassifyAge(birthdate *domain.Date, today domain.Date) (AgeBucket, bool) {
	if birthdate == nil {
		return 0, false
	}
	age := AgeYears(*birthdate, today)
	switch {
	case age >= 16:
		return BucketAdult, true
	case age >= 6:
		return BucketChild, true
	default:
		return BucketInfant, true
	}
}

// ComputeAgeDistribution buckets the primary guest plus the extra guests'
// birthdates against today. Extra guests without a birthdate are not counted
// in any bucket.
func ComputeAgeDistribution(primary domain.Date, extras []*domain.Date, today domain.Date) AgeDistribution {
	var dist AgeDistribution
	count := func(b AgeBucket) {
		switch b {
		case BucketAdult:
			dist.Adults++
		case BucketChild:
			dist.Children++
		case BucketInfant:
			dist.Infants++
		}
	}
	if b, ok := ClassifyAge(&primary, today); ok {
		count(b)
	}
	for _, bd := range extras {
		if b, ok := ClassifyAge(bd, today); ok {
			count(b)
		}
	}
	return dist
}
