package store

import (
	"kopdes/internal/core"

	"github.com/shopspring/decimal"
)

// Field updates are a closed set of typed commands, one per editable field.
// Volume and price edits recompute the stored total unconditionally,
// overwriting any total a trusted source supplied at creation.

// ExpenseUpdate is one typed field edit on an expense item.
type ExpenseUpdate interface {
	applyExpense(e *core.ExpenseItem)
}

type (
	SetExpenseDate        struct{ Value string }
	SetExpenseCategory    struct{ Value core.Category }
	SetExpenseDescription struct{ Value string }
	SetExpenseUnit        struct{ Value string }
	SetExpenseVolume      struct{ Value decimal.Decimal }
	SetExpensePrice       struct{ Value decimal.Decimal }
)

func (u SetExpenseDate) applyExpense(e *core.ExpenseItem) { e.Date = u.Value }

func (u SetExpenseCategory) applyExpense(e *core.ExpenseItem) {
	e.Category = core.ParseCategory(string(u.Value))
}

func (u SetExpenseDescription) applyExpense(e *core.ExpenseItem) { e.Description = u.Value }

func (u SetExpenseUnit) applyExpense(e *core.ExpenseItem) { e.Unit = u.Value }

func (u SetExpenseVolume) applyExpense(e *core.ExpenseItem) {
	e.Volume = clampAmount(u.Value)
	e.TotalPrice = core.ExpenseTotal(*e)
}

func (u SetExpensePrice) applyExpense(e *core.ExpenseItem) {
	e.PricePerUnit = clampAmount(u.Value)
	e.TotalPrice = core.ExpenseTotal(*e)
}

// LaborerUpdate is one typed field edit on a roster entry.
type LaborerUpdate interface {
	applyLaborer(l *core.Laborer)
}

type (
	SetLaborerName          struct{ Value string }
	SetLaborerPosition      struct{ Value core.Position }
	SetLaborerDailyRate     struct{ Value decimal.Decimal }
	SetLaborerOvertimeRate  struct{ Value decimal.Decimal }
	SetLaborerOvertimeHours struct{ Value decimal.Decimal }
)

func (u SetLaborerName) applyLaborer(l *core.Laborer) { l.Name = u.Value }

func (u SetLaborerPosition) applyLaborer(l *core.Laborer) {
	l.Position = core.ParsePosition(string(u.Value))
}

func (u SetLaborerDailyRate) applyLaborer(l *core.Laborer) {
	l.DailyRate = clampAmount(u.Value)
}

func (u SetLaborerOvertimeRate) applyLaborer(l *core.Laborer) {
	l.OvertimeRate = clampAmount(u.Value)
}

func (u SetLaborerOvertimeHours) applyLaborer(l *core.Laborer) {
	l.OvertimeHours = clampAmount(u.Value)
}
