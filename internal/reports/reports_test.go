package reports

import (
	"strings"
	"testing"

	"kopdes/internal/core"

	"github.com/shopspring/decimal"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func sampleRecord() core.ProjectRecord {
	return core.ProjectRecord{
		LocationID: 1,
		Budget:     core.DefaultContractBudget,
		Expenses: []core.ExpenseItem{
			{ID: "m1", Date: "2026-08-01", Category: core.CategoryMaterial, Description: "Semen",
				Volume: d(10), Unit: "sak", PricePerUnit: d(65_000), TotalPrice: d(650_000), Phase: 1,
				EvidenceImage: "data:image/jpeg;base64,AAAA"},
			{ID: "r1", Date: "2026-08-02", Category: core.CategoryRental, Description: "Sewa molen",
				Volume: d(2), Unit: "hari", PricePerUnit: d(150_000), TotalPrice: d(300_000), Phase: 1},
			{ID: "o1", Date: "2026-08-03", Category: core.CategoryOther, Description: "Konsumsi",
				Volume: d(1), Unit: "ls", PricePerUnit: d(100_000), TotalPrice: d(100_000), Phase: 1},
			{ID: "u1", Date: "2026-08-04", Category: core.CategoryLaborCost, Description: "Upah borongan galian",
				Volume: d(1), Unit: "ls", PricePerUnit: d(500_000), TotalPrice: d(500_000), Phase: 1},
			{ID: "m2", Category: core.CategoryMaterial, TotalPrice: d(999_999), Phase: 2},
		},
		Laborers: []core.Laborer{
			{ID: "l1", Name: "Asep", Position: core.PositionForeman,
				DailyRate: d(160_000), OvertimeRate: d(50_000),
				WeeklyDays: [core.WeeksPerProject]int{5, 4}, OvertimeHours: d(3), Phase: 1},
			{ID: "l2", Name: "Ujang", Position: core.PositionHelper,
				DailyRate: d(100_000), OvertimeRate: d(30_000), Phase: 1},
			{ID: "l3", Name: "Dadang", Position: core.PositionSkilled,
				DailyRate: d(140_000), WeeklyDays: [core.WeeksPerProject]int{2}, Phase: 2},
		},
	}
}

func TestBuildResume(t *testing.T) {
	rec := sampleRecord()
	r := BuildResume(rec, 1, 1)

	// Asep: 9 days * 160k + 3h * 50k = 1_590_000, plus the 500k manual
	// labor expense line.
	if !r.LaborTotal.Equal(d(2_090_000)) {
		t.Errorf("laborTotal = %s, want 2090000", r.LaborTotal)
	}
	if !r.MaterialTotal.Equal(d(650_000)) {
		t.Errorf("materialTotal = %s", r.MaterialTotal)
	}
	// Other folds rentals in on the printed resume.
	if !r.OtherTotal.Equal(d(400_000)) {
		t.Errorf("otherTotal = %s, want 400000", r.OtherTotal)
	}
	if !r.GrandTotal.Equal(d(3_140_000)) {
		t.Errorf("grandTotal = %s, want 3140000", r.GrandTotal)
	}
	if r.Village != "TEGALSARI" || r.District != "MAJA" || r.PhaseRoman != "I" {
		t.Errorf("header = %+v", r.Header)
	}
	if r.GrandTotalDisplay != "Rp 3.140.000" {
		t.Errorf("grandTotalDisplay = %q, want Rp 3.140.000", r.GrandTotalDisplay)
	}
	if !strings.HasSuffix(r.GrandTotalWords, "RUPIAH") || !strings.Contains(r.GrandTotalWords, "JUTA") {
		t.Errorf("grandTotalWords = %q", r.GrandTotalWords)
	}
}

func TestReportsReconcileWithDerivedTotals(t *testing.T) {
	rec := sampleRecord()
	for phase := 1; phase <= core.PhaseCount; phase++ {
		totals := core.DeriveTotals(rec, phase)

		resume := BuildResume(rec, 1, phase)
		if !resume.GrandTotal.Equal(totals.GrandTotal) {
			t.Errorf("phase %d: resume grand %s != derived %s", phase, resume.GrandTotal, totals.GrandTotal)
		}

		detail := BuildCostDetail(rec, 1, phase)
		if !detail.GrandTotal.Equal(totals.GrandTotal) {
			t.Errorf("phase %d: detail grand %s != derived %s", phase, detail.GrandTotal, totals.GrandTotal)
		}
		rowSum := decimal.Zero
		for _, row := range detail.LaborRows {
			rowSum = rowSum.Add(row.Total)
		}
		if !rowSum.Equal(totals.LaborTotal) {
			t.Errorf("phase %d: labor rows sum %s != labor total %s", phase, rowSum, totals.LaborTotal)
		}

		if got := BuildMaterial(rec, 1, phase).Total; !got.Equal(totals.MaterialTotal) {
			t.Errorf("phase %d: material %s != %s", phase, got, totals.MaterialTotal)
		}
		if got := BuildRental(rec, 1, phase).Total; !got.Equal(totals.RentalTotal) {
			t.Errorf("phase %d: rental %s != %s", phase, got, totals.RentalTotal)
		}
		if got := BuildLabor(rec, 1, phase).TotalPay.Add(laborExpenseSum(rec, phase)); !got.Equal(totals.LaborTotal) {
			t.Errorf("phase %d: payroll %s != labor total %s", phase, got, totals.LaborTotal)
		}
	}
}

func laborExpenseSum(rec core.ProjectRecord, phase int) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range rec.ExpensesForPhase(phase) {
		if e.Category == core.CategoryLaborCost {
			sum = sum.Add(e.TotalPrice)
		}
	}
	return sum
}

func TestBuildCostDetailRows(t *testing.T) {
	rec := sampleRecord()
	detail := BuildCostDetail(rec, 1, 1)

	// Asep gets a wage row and an overtime row; Ujang has no attendance
	// and no overtime, so no rows; the manual labor line appears once.
	if len(detail.LaborRows) != 3 {
		t.Fatalf("rows = %d, want 3: %+v", len(detail.LaborRows), detail.LaborRows)
	}
	wage := detail.LaborRows[0]
	if wage.Description != "Upah Asep (Foreman)" || wage.Unit != "OH" {
		t.Errorf("wage row = %+v", wage)
	}
	if !wage.Volume.Equal(d(9)) || !wage.Total.Equal(d(1_440_000)) {
		t.Errorf("wage row amounts = %s %s", wage.Volume, wage.Total)
	}
	ot := detail.LaborRows[1]
	if ot.Description != "Lembur Asep" || ot.Unit != "Jam" || !ot.Total.Equal(d(150_000)) {
		t.Errorf("overtime row = %+v", ot)
	}
	if detail.LaborRows[2].Description != "Upah borongan galian" {
		t.Errorf("manual row = %+v", detail.LaborRows[2])
	}
}

func TestBuildLabor(t *testing.T) {
	rec := sampleRecord()
	labor := BuildLabor(rec, 1, 1)

	if len(labor.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(labor.Rows))
	}
	asep := labor.Rows[0]
	if asep.Days != 9 || !asep.BasePay.Equal(d(1_440_000)) || !asep.TotalPay.Equal(d(1_590_000)) {
		t.Errorf("asep = %+v", asep)
	}
	// Workers with no attendance still appear on the sheet with zeros.
	ujang := labor.Rows[1]
	if ujang.Days != 0 || !ujang.TotalPay.IsZero() {
		t.Errorf("ujang = %+v", ujang)
	}
	if labor.TotalDays != 9 || !labor.TotalPay.Equal(d(1_590_000)) {
		t.Errorf("totals = %+v", labor)
	}
	if labor.TotalPayDisplay != "Rp 1.590.000" {
		t.Errorf("totalPayDisplay = %q, want Rp 1.590.000", labor.TotalPayDisplay)
	}
}

func TestBuildMaterialTotalDisplay(t *testing.T) {
	m := BuildMaterial(sampleRecord(), 1, 1)
	if m.TotalDisplay != "Rp 650.000" {
		t.Errorf("totalDisplay = %q, want Rp 650.000", m.TotalDisplay)
	}
}

func TestBuildEvidence(t *testing.T) {
	rec := sampleRecord()
	ev := BuildEvidence(rec, 1, 1)
	if len(ev.Items) != 1 || ev.Items[0].ID != "m1" {
		t.Errorf("evidence = %+v", ev.Items)
	}
}

func TestBuildersOnEmptyPhase(t *testing.T) {
	rec := core.NewProjectRecord(9)
	if r := BuildResume(rec, 9, 3); !r.GrandTotal.IsZero() {
		t.Errorf("resume grand = %s", r.GrandTotal)
	}
	if m := BuildMaterial(rec, 9, 3); len(m.Items) != 0 || !m.Total.IsZero() {
		t.Errorf("material = %+v", m)
	}
	if l := BuildLabor(rec, 9, 3); len(l.Rows) != 0 || l.TotalDays != 0 {
		t.Errorf("labor = %+v", l)
	}
}
