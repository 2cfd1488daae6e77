package core

import "github.com/shopspring/decimal"

// Totals are the reporting figures every view must agree on for one
// location and phase.
type Totals struct {
	Phase         int             `json:"phase"`
	MaterialTotal decimal.Decimal `json:"materialTotal"`
	RentalTotal   decimal.Decimal `json:"rentalTotal"`
	OtherTotal    decimal.Decimal `json:"otherTotal"`
	LaborTotal    decimal.Decimal `json:"laborTotal"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	PhaseBudget   decimal.Decimal `json:"phaseBudget"`
	Balance       decimal.Decimal `json:"balance"`
}

// DeriveTotals folds one phase of a record into its reporting figures.
// Labor cost recorded as LABOR_COST expense lines and timesheet-derived pay
// are reconciled into the single LaborTotal bucket. The balance may be
// negative (overspend) and is never clamped.
//
// Called on every read, never cached: linear in the number of items.
func DeriveTotals(r ProjectRecord, phase int) Totals {
	t := Totals{
		Phase:         phase,
		MaterialTotal: decimal.Zero,
		RentalTotal:   decimal.Zero,
		OtherTotal:    decimal.Zero,
		LaborTotal:    decimal.Zero,
		PhaseBudget:   PhaseBudget,
	}

	for _, e := range r.Expenses {
		if e.Phase != phase {
			continue
		}
		switch e.Category {
		case CategoryMaterial:
			t.MaterialTotal = t.MaterialTotal.Add(e.TotalPrice)
		case CategoryRental:
			t.RentalTotal = t.RentalTotal.Add(e.TotalPrice)
		case CategoryLaborCost:
			t.LaborTotal = t.LaborTotal.Add(e.TotalPrice)
		default:
			t.OtherTotal = t.OtherTotal.Add(e.TotalPrice)
		}
	}

	for _, l := range r.Laborers {
		if l.Phase != phase {
			continue
		}
		t.LaborTotal = t.LaborTotal.Add(LaborPay(l))
	}

	t.GrandTotal = t.MaterialTotal.Add(t.RentalTotal).Add(t.OtherTotal).Add(t.LaborTotal)
	t.Balance = t.PhaseBudget.Sub(t.GrandTotal)
	return t
}
