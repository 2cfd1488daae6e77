package ingest

import (
	"strconv"
	"strings"
	"time"

	"kopdes/internal/core"
	"kopdes/internal/store"

	"github.com/shopspring/decimal"
)

// Import-time defaults for cells that are missing or unreadable.
const (
	defaultImportDescription = "Item Excel"
	defaultImportUnit        = "ls"
	defaultImportName        = "Pekerja Import"
)

// excelEpochOffset is the day count between the spreadsheet serial-date
// epoch (1899-12-30) and the Unix epoch.
const excelEpochOffset = 25569

// MapExpenseRows converts a header row plus data rows into expense
// partials. Unmatched or unreadable cells fall back to documented defaults:
// today's date, volume 1, unit "ls", category MATERIAL, price 0.
func MapExpenseRows(rows [][]string) []store.ExpensePartial {
	if len(rows) < 2 {
		return nil
	}
	headers := rows[0]

	dateCol, hasDate := MatchColumn(headers, FieldDate)
	descCol, hasDesc := MatchColumn(headers, FieldDescription)
	volCol, hasVol := MatchColumn(headers, FieldVolume)
	unitCol, hasUnit := MatchColumn(headers, FieldUnit)
	priceCol, hasPrice := MatchColumn(headers, FieldPrice)
	catCol, hasCat := MatchColumn(headers, FieldCategory)

	var out []store.ExpensePartial
	for _, row := range rows[1:] {
		if rowEmpty(row) {
			continue
		}
		p := store.ExpensePartial{
			Date:         parseDate(cell(row, dateCol, hasDate)),
			Description:  cellOr(row, descCol, hasDesc, defaultImportDescription),
			Volume:       parseAmountOr(cell(row, volCol, hasVol), decimal.NewFromInt(1)),
			Unit:         cellOr(row, unitCol, hasUnit, defaultImportUnit),
			PricePerUnit: parseAmountOr(cell(row, priceCol, hasPrice), decimal.Zero),
		}
		if hasCat {
			p.Category = core.ParseCategory(cell(row, catCol, true))
		}
		out = append(out, p)
	}
	return out
}

// MapLaborerRows converts a header row plus data rows into roster partials.
// Position is recognized from free-form Indonesian labels; rates left blank
// or zero fall back to the position's pay scale in the Store.
func MapLaborerRows(rows [][]string) []store.LaborerPartial {
	if len(rows) < 2 {
		return nil
	}
	headers := rows[0]

	nameCol, hasName := MatchColumn(headers, FieldName)
	posCol, hasPos := MatchColumn(headers, FieldPosition)
	rateCol, hasRate := MatchColumn(headers, FieldDailyRate)
	otCol, hasOT := MatchColumn(headers, FieldOvertimeRate)

	var out []store.LaborerPartial
	for _, row := range rows[1:] {
		if rowEmpty(row) {
			continue
		}
		p := store.LaborerPartial{
			Name:     cellOr(row, nameCol, hasName, defaultImportName),
			Position: core.ParsePosition(cell(row, posCol, hasPos)),
		}
		if rate := parseAmountOr(cell(row, rateCol, hasRate), decimal.Zero); !rate.IsZero() {
			p.DailyRate = &rate
		}
		if ot := parseAmountOr(cell(row, otCol, hasOT), decimal.Zero); !ot.IsZero() {
			p.OvertimeRate = &ot
		}
		out = append(out, p)
	}
	return out
}

// parseDate passes text dates through unchanged and converts spreadsheet
// serial dates (bare day numbers since the 1900 epoch) to ISO. An empty
// result lets the Store default to today.
func parseDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || serial < 1 {
		return raw
	}
	if strings.ContainsAny(raw, "-/.") {
		return raw
	}
	t := time.Unix(int64((serial-excelEpochOffset)*86400), 0).UTC()
	return t.Format("2006-01-02")
}

func parseAmountOr(raw string, fallback decimal.Decimal) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() || v.IsZero() {
		return fallback
	}
	return v
}

func cell(row []string, col int, ok bool) string {
	if !ok || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func cellOr(row []string, col int, ok bool, fallback string) string {
	if v := cell(row, col, ok); v != "" {
		return v
	}
	return fallback
}

func rowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
