// Package reports builds the printable report views: resume, cost
// recapitulation, material and rental purchase lists, the labor payroll
// sheet, and the receipt evidence annex. Builders are pure and each filters
// by phase through the core predicates, so every view agrees with the
// derivation engine.
package reports

import (
	"fmt"

	"kopdes/internal/core"

	"github.com/shopspring/decimal"
)

var phaseRomans = [core.PhaseCount + 1]string{"", "I", "II", "III", "IV", "V"}

// Header carries the location and phase identification printed on every
// report.
type Header struct {
	LocationID int    `json:"locationId"`
	Village    string `json:"desa"`
	District   string `json:"kecamatan"`
	Phase      int    `json:"phase"`
	PhaseRoman string `json:"phaseRoman"`
}

func buildHeader(locationID, phase int) Header {
	h := Header{LocationID: locationID, Phase: phase}
	if loc, ok := core.LocationByID(locationID); ok {
		h.Village = loc.Village
		h.District = loc.District
	}
	if phase >= 1 && phase <= core.PhaseCount {
		h.PhaseRoman = phaseRomans[phase]
	}
	return h
}

// Resume is the top-level fund-usage summary: three buckets and a grand
// total, with the amount both printed ("Rp 1.000.000") and spelled out for
// the signature block.
type Resume struct {
	Header
	LaborTotal        decimal.Decimal `json:"laborTotal"`
	MaterialTotal     decimal.Decimal `json:"materialTotal"`
	OtherTotal        decimal.Decimal `json:"otherTotal"`
	GrandTotal        decimal.Decimal `json:"grandTotal"`
	GrandTotalDisplay string          `json:"grandTotalDisplay"`
	GrandTotalWords   string          `json:"grandTotalWords"`
}

// BuildResume folds rentals into the "other costs" bucket, the way the
// printed resume groups them, and labor-cost expense lines into the labor
// bucket alongside timesheet pay.
func BuildResume(rec core.ProjectRecord, locationID, phase int) Resume {
	t := core.DeriveTotals(rec, phase)
	r := Resume{
		Header:        buildHeader(locationID, phase),
		LaborTotal:    t.LaborTotal,
		MaterialTotal: t.MaterialTotal,
		OtherTotal:    t.OtherTotal.Add(t.RentalTotal),
		GrandTotal:    t.GrandTotal,
	}
	r.GrandTotalDisplay = core.FormatRupiah(t.GrandTotal)
	r.GrandTotalWords = core.Terbilang(t.GrandTotal.Round(0).IntPart()) + " RUPIAH"
	return r
}

// CostRow is one priced line on the cost recapitulation.
type CostRow struct {
	Description string          `json:"description"`
	Volume      decimal.Decimal `json:"volume"`
	Unit        string          `json:"unit"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// CostDetail is the per-item recapitulation behind the resume figures.
type CostDetail struct {
	Header
	LaborRows         []CostRow       `json:"laborRows"`
	LaborTotal        decimal.Decimal `json:"laborTotal"`
	MaterialTotal     decimal.Decimal `json:"materialTotal"`
	OtherTotal        decimal.Decimal `json:"otherTotal"`
	GrandTotal        decimal.Decimal `json:"grandTotal"`
	GrandTotalDisplay string          `json:"grandTotalDisplay"`
}

// BuildCostDetail expands the labor bucket into wage and overtime rows.
// Wage rows use the "OH" (orang-hari) unit; overtime rows are in hours.
// Manually entered labor-cost expense lines appear as their own rows so the
// row sum always matches the bucket total.
func BuildCostDetail(rec core.ProjectRecord, locationID, phase int) CostDetail {
	t := core.DeriveTotals(rec, phase)
	d := CostDetail{
		Header:            buildHeader(locationID, phase),
		LaborTotal:        t.LaborTotal,
		MaterialTotal:     t.MaterialTotal,
		OtherTotal:        t.OtherTotal.Add(t.RentalTotal),
		GrandTotal:        t.GrandTotal,
		GrandTotalDisplay: core.FormatRupiah(t.GrandTotal),
	}

	for _, l := range rec.LaborersForPhase(phase) {
		days := core.TotalDays(l)
		if days > 0 {
			d.LaborRows = append(d.LaborRows, CostRow{
				Description: fmt.Sprintf("Upah %s (%s)", l.Name, l.Position),
				Volume:      decimal.NewFromInt(int64(days)),
				Unit:        "OH",
				Price:       l.DailyRate,
				Total:       decimal.NewFromInt(int64(days)).Mul(l.DailyRate),
			})
		}
		if otPay := l.OvertimeHours.Mul(l.OvertimeRate); otPay.IsPositive() {
			d.LaborRows = append(d.LaborRows, CostRow{
				Description: fmt.Sprintf("Lembur %s", l.Name),
				Volume:      l.OvertimeHours,
				Unit:        "Jam",
				Price:       l.OvertimeRate,
				Total:       otPay,
			})
		}
	}
	for _, e := range rec.ExpensesForPhase(phase) {
		if e.Category != core.CategoryLaborCost {
			continue
		}
		d.LaborRows = append(d.LaborRows, CostRow{
			Description: e.Description,
			Volume:      e.Volume,
			Unit:        e.Unit,
			Price:       e.PricePerUnit,
			Total:       e.TotalPrice,
		})
	}
	return d
}

// LineItemReport is the shared shape of the material and rental purchase
// lists: the filtered items verbatim plus their total.
type LineItemReport struct {
	Header
	Items        []core.ExpenseItem `json:"items"`
	Total        decimal.Decimal    `json:"total"`
	TotalDisplay string             `json:"totalDisplay"`
}

func buildLineItems(rec core.ProjectRecord, locationID, phase int, category core.Category) LineItemReport {
	r := LineItemReport{Header: buildHeader(locationID, phase), Total: decimal.Zero}
	for _, e := range rec.ExpensesForPhase(phase) {
		if e.Category != category {
			continue
		}
		r.Items = append(r.Items, e)
		r.Total = r.Total.Add(e.TotalPrice)
	}
	r.TotalDisplay = core.FormatRupiah(r.Total)
	return r
}

// BuildMaterial lists the phase's material purchases.
func BuildMaterial(rec core.ProjectRecord, locationID, phase int) LineItemReport {
	return buildLineItems(rec, locationID, phase, core.CategoryMaterial)
}

// BuildRental lists the phase's equipment rentals.
func BuildRental(rec core.ProjectRecord, locationID, phase int) LineItemReport {
	return buildLineItems(rec, locationID, phase, core.CategoryRental)
}

// LaborRow is one worker's line on the payroll sheet.
type LaborRow struct {
	Name          string          `json:"name"`
	Position      core.Position   `json:"position"`
	DailyRate     decimal.Decimal `json:"dailyRate"`
	Days          int             `json:"days"`
	BasePay       decimal.Decimal `json:"basePay"`
	OvertimeHours decimal.Decimal `json:"overtimeHours"`
	OvertimePay   decimal.Decimal `json:"overtimePay"`
	TotalPay      decimal.Decimal `json:"totalPay"`
}

// Labor is the payroll sheet: one row per rostered worker with sheet
// totals.
type Labor struct {
	Header
	Rows               []LaborRow      `json:"rows"`
	TotalDays          int             `json:"totalDays"`
	TotalOvertimeHours decimal.Decimal `json:"totalOvertimeHours"`
	TotalBasePay       decimal.Decimal `json:"totalBasePay"`
	TotalOvertimePay   decimal.Decimal `json:"totalOvertimePay"`
	TotalPay           decimal.Decimal `json:"totalPay"`
	TotalPayDisplay    string          `json:"totalPayDisplay"`
}

func BuildLabor(rec core.ProjectRecord, locationID, phase int) Labor {
	r := Labor{
		Header:             buildHeader(locationID, phase),
		TotalOvertimeHours: decimal.Zero,
		TotalBasePay:       decimal.Zero,
		TotalOvertimePay:   decimal.Zero,
		TotalPay:           decimal.Zero,
	}
	for _, l := range rec.LaborersForPhase(phase) {
		days := core.TotalDays(l)
		basePay := decimal.NewFromInt(int64(days)).Mul(l.DailyRate)
		otPay := l.OvertimeHours.Mul(l.OvertimeRate)
		row := LaborRow{
			Name:          l.Name,
			Position:      l.Position,
			DailyRate:     l.DailyRate,
			Days:          days,
			BasePay:       basePay,
			OvertimeHours: l.OvertimeHours,
			OvertimePay:   otPay,
			TotalPay:      basePay.Add(otPay),
		}
		r.Rows = append(r.Rows, row)
		r.TotalDays += days
		r.TotalOvertimeHours = r.TotalOvertimeHours.Add(l.OvertimeHours)
		r.TotalBasePay = r.TotalBasePay.Add(basePay)
		r.TotalOvertimePay = r.TotalOvertimePay.Add(otPay)
		r.TotalPay = r.TotalPay.Add(row.TotalPay)
	}
	r.TotalPayDisplay = core.FormatRupiah(r.TotalPay)
	return r
}

// Evidence lists the phase's expense lines that carry a receipt photo, for
// the "bukti pembelanjaan" annex.
type Evidence struct {
	Header
	Items []core.ExpenseItem `json:"items"`
}

func BuildEvidence(rec core.ProjectRecord, locationID, phase int) Evidence {
	r := Evidence{Header: buildHeader(locationID, phase)}
	for _, e := range rec.ExpensesForPhase(phase) {
		if e.EvidenceImage != "" {
			r.Items = append(r.Items, e)
		}
	}
	return r
}
