package pricing

import (
	"fmt"
	"time"

	"frontdesk/internal/domain"
)

// ValidateStayDates rejects inverted or zero-night ranges. A stay of N nights
// spans the half-open range [arrival, departure); departure on or before
// arrival means there is nothing to price or occupy.
func ValidateStayDates(arrival, departure domain.Date) error {
	ve := domain.NewValidationError()
	if arrival.IsZero() {
		ve.Add("arrival", "arrival date is required")
	}
	if departure.IsZero() {
		ve.Add("departure", "departure date is required")
	}
	if !arrival.IsZero() && !departure.IsZero() && !arrival.Before(departure) {
		ve.Add("departure", fmt.Sprintf("departure %s must be after arrival %s", departure, arrival))
	}
	if !ve.Empty() {
		return ve
	}
	return nil
}

// ValidateMealPlan bounds the manually entered meat/veg dinner covers by the
// non-adult headcount. Counts beyond that bound are a typo at the desk and
// are rejected rather than clamped, so the operator sees the mistake.
func ValidateMealPlan(plan domain.MealPlan, dist AgeDistribution) error {
	ve := domain.NewValidationError()
	if plan.MeatCount < 0 {
		ve.Add("meal.meatCount", "must not be negative")
	}
	if plan.VegCount < 0 {
		ve.Add("meal.vegCount", "must not be negative")
	}
	if !plan.HalfBoard && plan.MeatCount+plan.VegCount > 0 {
		ve.Add("meal", "dinner counts given but half board is off")
	}
	if plan.HalfBoard && plan.MeatCount+plan.VegCount > dist.NonAdults() {
		ve.Add("meal", fmt.Sprintf("meat+veg covers (%d) exceed non-adult guests (%d)",
			plan.MeatCount+plan.VegCount, dist.NonAdults()))
	}
	if !ve.Empty() {
		return ve
	}
	return nil
}

// IsWeekendNight reports whether the night starting on d is charged at the
// weekend rate. Friday and Saturday nights are weekend; Sunday through
// Thursday are weekday.
func IsWeekendNight(d domain.Date) bool {
	wd := d.Weekday()
	return wd == time.Friday || wd == time.Saturday
}

// Quote computes the total price of a stay.
//
// Per night in [arrival, departure): adults and children pay the weekday or
// weekend rate for that night, infants stay free. The local tax is charged
// once per stay (not per night), adults and children only. With half board
// on, every adult pays the adult dinner price per night and each meat/veg
// cover pays the child dinner price per night; when both covers are zero they
// default to the non-adult headcount.
func Quote(arrival, departure domain.Date, dist AgeDistribution, plan domain.MealPlan,
	rates domain.RateTable, tax domain.TaxTable, dinner domain.DinnerTable) (domain.Money, error) {

	if err := ValidateStayDates(arrival, departure); err != nil {
		return 0, err
	}
	if err := ValidateMealPlan(plan, dist); err != nil {
		return 0, err
	}

	var total domain.Money
	nights := 0
	for d := arrival; d.Before(departure); d = d.AddDays(1) {
		nights++
		if IsWeekendNight(d) {
			total += rates.Adult.Weekend.Mul(dist.Adults)
			total += rates.Child.Weekend.Mul(dist.Children)
		} else {
			total += rates.Adult.Weekday.Mul(dist.Adults)
			total += rates.Child.Weekday.Mul(dist.Children)
		}
	}

	// Kurtaxe, once per stay
	total += tax.Adult.Mul(dist.Adults)
	total += tax.Child.Mul(dist.Children)

	if plan.HalfBoard {
		covers := plan.MeatCount + plan.VegCount
		if covers == 0 {
			covers = dist.NonAdults()
		}
		total += dinner.Adult.Mul(dist.Adults).Mul(nights)
		total += dinner.Child.Mul(covers).Mul(nights)
	}

	return total, nil
}

// Nights returns the number of priced nights in [arrival, departure), zero
// for invalid ranges.
func Nights(arrival, departure domain.Date) int {
	n := departure.DaysSince(arrival)
	if n < 0 {
		return 0
	}
	return n
}
