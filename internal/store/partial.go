package store

import (
	"kopdes/internal/core"

	"github.com/shopspring/decimal"
)

// ExpensePartial is the caller-facing shape for adding expense lines. The
// Store fills in identifier, phase, and whatever defaults are missing.
type ExpensePartial struct {
	Date        string          `json:"date"`
	Category    core.Category   `json:"category"`
	Description string          `json:"description"`
	Volume      decimal.Decimal `json:"volume"`
	Unit        string          `json:"unit"`

	PricePerUnit decimal.Decimal `json:"pricePerUnit"`

	// TotalPrice, when set, is taken as-is instead of being recomputed
	// from volume and price. Receipt recognition supplies scanned totals
	// this way; any later volume or price edit overwrites it.
	TotalPrice *decimal.Decimal `json:"totalPrice,omitempty"`

	EvidenceImage string `json:"evidenceImage,omitempty"`
}

// LaborerPartial is the caller-facing shape for adding roster entries.
// Rates left nil fall back to the position's default pay scale.
type LaborerPartial struct {
	Name          string           `json:"name"`
	Position      core.Position    `json:"position"`
	DailyRate     *decimal.Decimal `json:"dailyRate,omitempty"`
	OvertimeRate  *decimal.Decimal `json:"overtimeRate,omitempty"`
	WeeklyDays    []int            `json:"weeklyDays,omitempty"`
	OvertimeHours decimal.Decimal  `json:"overtimeHours"`
}
