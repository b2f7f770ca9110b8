package domain

// NightlyRate is the per-person room rate for one age bucket. Weekend nights
// are Friday and Saturday in this locale; Sunday through Thursday are weekday
// nights.
type NightlyRate struct {
	Weekend Money
	Weekday Money
}

// RateTable maps age buckets to nightly rates. Infants always stay free, so
// the table carries no infant row. Loaded from the store at process start and
// passed explicitly; never mutated afterwards.
type RateTable struct {
	Adult NightlyRate
	Child NightlyRate
}

// TaxTable is the local visitor tax (Kurtaxe), charged once per stay per
// person. Infants are exempt.
type TaxTable struct {
	Adult Money
	Child Money
}

// DinnerTable is the half-board dinner price per cover per night. The child
// price applies to every non-adult cover.
type DinnerTable struct {
	Adult Money
	Child Money
}

// Default tables mirror the seeded price rows; they back the store tables
// when a deployment has not overridden them.

func DefaultRateTable() RateTable {
	return RateTable{
		Adult: NightlyRate{Weekend: Cents(9000), Weekday: Cents(7000)},
		Child: NightlyRate{Weekend: Cents(7000), Weekday: Cents(5000)},
	}
}

func DefaultTaxTable() TaxTable {
	return TaxTable{Adult: Cents(400), Child: Cents(150)}
}

func DefaultDinnerTable() DinnerTable {
	return DinnerTable{Adult: Cents(3500), Child: Cents(2000)}
}
