package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	CategoryMaterial  Category = "MATERIAL"
	CategoryLaborCost Category = "LABOR_COST"
	CategoryOther     Category = "OTHER"
	CategoryRental    Category = "RENTAL"
)

const (
	PositionForeman Position = "Foreman"
	PositionSkilled Position = "Skilled"
	PositionHelper  Position = "Helper"
)

const (
	// WeeksPerProject is the fixed attendance capacity: one slot per
	// project week, weeks 1-16.
	WeeksPerProject = 16

	// PhaseCount is the number of disbursement stages ("termin").
	PhaseCount = 5
)

var (
	// DefaultContractBudget is the contract value a record starts with
	// before the user edits it.
	DefaultContractBudget = decimal.NewFromInt(1_000_000_000)

	// PhaseBudget is the fixed disbursement tranche per termin.
	PhaseBudget = decimal.NewFromInt(200_000_000)
)

var ErrNothingToCopy = errors.New("no laborers in previous phase to copy")

type (
	Category string
	Position string

	// ExpenseItem is one purchase or rental line. TotalPrice is stored
	// redundantly and must equal Volume*PricePerUnit after any edit to
	// either factor; only at creation may a trusted source set it directly.
	ExpenseItem struct {
		ID            string          `json:"id"`
		Date          string          `json:"date"` // ISO date, YYYY-MM-DD
		Category      Category        `json:"category"`
		Description   string          `json:"description"`
		Volume        decimal.Decimal `json:"volume"`
		Unit          string          `json:"unit"`
		PricePerUnit  decimal.Decimal `json:"pricePerUnit"`
		TotalPrice    decimal.Decimal `json:"totalPrice"`
		Phase         int             `json:"phase"`
		EvidenceImage string          `json:"evidenceImage,omitempty"` // data URI
	}

	// Laborer is one worker on one phase's roster. WeeklyDays has fixed
	// capacity: slot N holds days worked in week N+1, each in [0,7].
	Laborer struct {
		ID            string               `json:"id"`
		Name          string               `json:"name"`
		Position      Position             `json:"position"`
		DailyRate     decimal.Decimal      `json:"dailyRate"`
		OvertimeRate  decimal.Decimal      `json:"overtimeRate"`
		WeeklyDays    [WeeksPerProject]int `json:"weeklyDays"`
		OvertimeHours decimal.Decimal      `json:"overtimeHours"`
		Phase         int                  `json:"phase"`
	}

	// ProjectRecord holds everything tracked for one location. Phases are
	// a derived partition of the flat collections, keyed by the Phase
	// field on each item; there is no per-phase sub-structure.
	ProjectRecord struct {
		LocationID int             `json:"locationId"`
		Expenses   []ExpenseItem   `json:"expenses"`
		Laborers   []Laborer       `json:"laborers"`
		Budget     decimal.Decimal `json:"budget"`
		// ReceivedBudget is legacy data kept for snapshot compatibility;
		// no computation reads it.
		ReceivedBudget decimal.Decimal `json:"receivedBudget"`
	}
)

// NewProjectRecord returns the lazily materialized default record for a
// location: default contract budget, empty collections.
func NewProjectRecord(locationID int) ProjectRecord {
	return ProjectRecord{
		LocationID:     locationID,
		Budget:         DefaultContractBudget,
		ReceivedBudget: decimal.NewFromInt(200_000_000),
	}
}

// ParseCategory maps a stored or imported label to a Category. Legacy
// Indonesian labels from old snapshots are recognized; anything unknown
// defaults to MATERIAL.
func ParseCategory(s string) Category {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MATERIAL":
		return CategoryMaterial
	case "LABOR_COST", "UPAH":
		return CategoryLaborCost
	case "RENTAL", "PENYEWAAN", "SEWA", "SEWA ALAT":
		return CategoryRental
	case "OTHER", "BIAYA LAINNYA", "LAINNYA":
		return CategoryOther
	default:
		return CategoryMaterial
	}
}

// ParsePosition maps a free-form role label to a Position, matching the
// Indonesian terms used on imported rosters. Unknown labels default to
// Helper.
func ParsePosition(s string) Position {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(v, "mandor") || strings.Contains(v, "foreman"):
		return PositionForeman
	case strings.Contains(v, "tukang") || strings.Contains(v, "skilled"):
		return PositionSkilled
	default:
		return PositionHelper
	}
}

// DefaultDailyRate returns the recommended daily wage for the position.
func (p Position) DefaultDailyRate() decimal.Decimal {
	switch p {
	case PositionForeman:
		return decimal.NewFromInt(160_000)
	case PositionSkilled:
		return decimal.NewFromInt(140_000)
	default:
		return decimal.NewFromInt(100_000)
	}
}

// DefaultOvertimeRate returns the recommended hourly overtime rate for the
// position.
func (p Position) DefaultOvertimeRate() decimal.Decimal {
	switch p {
	case PositionForeman:
		return decimal.NewFromInt(50_000)
	case PositionSkilled:
		return decimal.NewFromInt(40_000)
	default:
		return decimal.NewFromInt(30_000)
	}
}

// ExpenseTotal is the canonical line-item amount: volume times unit price.
// A stored TotalPrice that disagrees with this after a volume or price edit
// is a bug, not a valid state.
func ExpenseTotal(e ExpenseItem) decimal.Decimal {
	return e.Volume.Mul(e.PricePerUnit)
}

// TotalDays sums the attendance slots of one laborer.
func TotalDays(l Laborer) int {
	days := 0
	for _, d := range l.WeeklyDays {
		days += d
	}
	return days
}

// LaborPay converts attendance and overtime into wages:
// days*dailyRate + overtimeHours*overtimeRate.
func LaborPay(l Laborer) decimal.Decimal {
	base := decimal.NewFromInt(int64(TotalDays(l))).Mul(l.DailyRate)
	overtime := l.OvertimeHours.Mul(l.OvertimeRate)
	return base.Add(overtime)
}

// ExpensesForPhase filters the flat expense collection by phase. Report
// builders and the derivation engine share this predicate so their views
// cannot diverge.
func (r ProjectRecord) ExpensesForPhase(phase int) []ExpenseItem {
	var out []ExpenseItem
	for _, e := range r.Expenses {
		if e.Phase == phase {
			out = append(out, e)
		}
	}
	return out
}

// LaborersForPhase filters the flat roster by phase.
func (r ProjectRecord) LaborersForPhase(phase int) []Laborer {
	var out []Laborer
	for _, l := range r.Laborers {
		if l.Phase == phase {
			out = append(out, l)
		}
	}
	return out
}
