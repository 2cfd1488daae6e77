package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kopdes/internal/core"
	"kopdes/internal/recognize"
	"kopdes/internal/store"

	"github.com/shopspring/decimal"
)

type fakeRecognizer struct {
	receipts map[string]*recognize.Receipt
}

func (f *fakeRecognizer) Parse(_ context.Context, dataURI string) (*recognize.Receipt, error) {
	if r, ok := f.receipts[dataURI]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("no receipt for payload")
}

type fakeTableReader struct {
	rows [][]string
	err  error
}

func (f *fakeTableReader) ReadTable(_ context.Context, _ string) ([][]string, error) {
	return f.rows, f.err
}

func newTestServer(t *testing.T, opts Options) (*Server, *store.Store) {
	t.Helper()
	st := store.New()
	return NewServer(":0", st, opts), st
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestListLocations(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := doJSON(t, srv, http.MethodGet, "/api/locations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	locs := decodeBody[[]core.ProjectLocation](t, rec)
	if len(locs) != len(core.Locations) {
		t.Fatalf("got %d locations, want %d", len(locs), len(core.Locations))
	}
}

func TestGetProject(t *testing.T) {
	srv, st := newTestServer(t, Options{})
	st.AddExpenses(1, 2, []store.ExpensePartial{
		{Description: "Semen", Volume: decimal.NewFromInt(10), Unit: "sak", PricePerUnit: decimal.NewFromInt(65_000)},
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/projects/1?phase=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	view := decodeBody[projectView](t, rec)
	if view.Record.LocationID != 1 {
		t.Errorf("LocationID = %d, want 1", view.Record.LocationID)
	}
	if !view.Totals.GrandTotal.Equal(decimal.NewFromInt(650_000)) {
		t.Errorf("GrandTotal = %s, want 650000", view.Totals.GrandTotal)
	}
}

func TestGetProjectBadPhase(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	for _, q := range []string{"phase=0", "phase=6", "phase=abc"} {
		rec := doJSON(t, srv, http.MethodGet, "/api/projects/1?"+q, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestSetBudget(t *testing.T) {
	srv, st := newTestServer(t, Options{})

	rec := doJSON(t, srv, http.MethodPut, "/api/projects/3/budget", map[string]string{"amount": "500000000"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := st.Get(3).Budget; !got.Equal(decimal.NewFromInt(500_000_000)) {
		t.Errorf("Budget = %s, want 500000000", got)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/projects/3/budget", map[string]string{"amount": "-1"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative budget: status = %d, want 422", rec.Code)
	}
}

func TestAddAndUpdateExpense(t *testing.T) {
	srv, st := newTestServer(t, Options{})

	rec := doJSON(t, srv, http.MethodPost, "/api/projects/1/phases/1/expenses", map[string]any{
		"items": []map[string]any{
			{"description": "  Pasir\x00 ", "volume": "2", "unit": "m3", "pricePerUnit": "250000"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	items := decodeBody[[]core.ExpenseItem](t, rec)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Description != "Pasir" {
		t.Errorf("Description = %q, want sanitized %q", items[0].Description, "Pasir")
	}

	patch := doJSON(t, srv, http.MethodPatch, "/api/projects/1/expenses/"+items[0].ID,
		map[string]string{"volume": "4"})
	if patch.Code != http.StatusOK {
		t.Fatalf("patch status = %d, want 200: %s", patch.Code, patch.Body.String())
	}
	got := st.Get(1).Expenses[0]
	if !got.TotalPrice.Equal(decimal.NewFromInt(1_000_000)) {
		t.Errorf("TotalPrice after volume edit = %s, want 1000000", got.TotalPrice)
	}
}

func TestUpdateExpenseNoFields(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := doJSON(t, srv, http.MethodPatch, "/api/projects/1/expenses/x", map[string]string{})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestDeleteExpense(t *testing.T) {
	srv, st := newTestServer(t, Options{})
	st.AddExpenses(1, 1, []store.ExpensePartial{{Description: "Paku"}})
	id := st.Get(1).Expenses[0].ID

	rec := doJSON(t, srv, http.MethodDelete, "/api/projects/1/expenses/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(st.Get(1).Expenses) != 0 {
		t.Error("expense still present after delete")
	}
}

func TestUpdateWeek(t *testing.T) {
	srv, st := newTestServer(t, Options{})
	st.AddLaborers(1, 1, []store.LaborerPartial{{Name: "Ujang"}})
	id := st.Get(1).Laborers[0].ID

	tests := []struct {
		body string
		want int
	}{
		{`{"value":"5"}`, 5},
		{`{"value":9}`, 7},
		{`{"value":"abc"}`, 0},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPut, "/api/projects/1/laborers/"+id+"/weeks/0",
			strings.NewReader(tt.body))
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200", tt.body, rec.Code)
		}
		if got := st.Get(1).Laborers[0].WeeklyDays[0]; got != tt.want {
			t.Errorf("%s: WeeklyDays[0] = %d, want %d", tt.body, got, tt.want)
		}
	}

	rec := doJSON(t, srv, http.MethodPut, "/api/projects/1/laborers/"+id+"/weeks/16",
		map[string]string{"value": "3"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("week 16: status = %d, want 400", rec.Code)
	}
}

func TestCopyLaborers(t *testing.T) {
	srv, st := newTestServer(t, Options{})

	rec := doJSON(t, srv, http.MethodPost, "/api/projects/1/phases/2/copy-laborers", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty source: status = %d, want 422", rec.Code)
	}

	st.AddLaborers(1, 1, []store.LaborerPartial{{Name: "Asep", Position: "Mandor"}})
	rec = doJSON(t, srv, http.MethodPost, "/api/projects/1/phases/2/copy-laborers", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	copied := decodeBody[[]core.Laborer](t, rec)
	if len(copied) != 1 || copied[0].Name != "Asep" {
		t.Fatalf("copied = %+v, want one laborer Asep", copied)
	}
}

func TestResetPhase(t *testing.T) {
	srv, st := newTestServer(t, Options{})
	st.AddExpenses(1, 1, []store.ExpensePartial{{Description: "Batu"}})
	st.AddExpenses(1, 2, []store.ExpensePartial{{Description: "Bata"}})

	rec := doJSON(t, srv, http.MethodPost, "/api/projects/1/phases/1/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	r := st.Get(1)
	if len(r.ExpensesForPhase(1)) != 0 || len(r.ExpensesForPhase(2)) != 1 {
		t.Errorf("reset touched the wrong phase: p1=%d p2=%d",
			len(r.ExpensesForPhase(1)), len(r.ExpensesForPhase(2)))
	}
}

func TestImportCSV(t *testing.T) {
	srv, st := newTestServer(t, Options{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "belanja.csv")
	if err != nil {
		t.Fatal(err)
	}
	fmt.Fprintln(fw, "Tanggal,Uraian,Vol,Satuan,Harga")
	fmt.Fprintln(fw, "2025-08-01,Semen,10,sak,65000")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/projects/2/phases/1/import/expenses", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	items := st.Get(2).ExpensesForPhase(1)
	if len(items) != 1 || items[0].Description != "Semen" {
		t.Fatalf("imported = %+v, want one Semen item", items)
	}
	if !items[0].TotalPrice.Equal(decimal.NewFromInt(650_000)) {
		t.Errorf("TotalPrice = %s, want 650000", items[0].TotalPrice)
	}
}

func TestImportCSVUnknownMode(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := doJSON(t, srv, http.MethodPost, "/api/projects/1/phases/1/import/widgets", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestImportSheet(t *testing.T) {
	reader := &fakeTableReader{rows: [][]string{
		{"Nama", "Posisi"},
		{"Dedi", "Tukang Batu"},
	}}
	srv, st := newTestServer(t, Options{SheetReader: reader, ImportSheetName: "Import"})

	rec := doJSON(t, srv, http.MethodPost, "/api/projects/1/phases/1/import-sheet/laborers", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	roster := st.Get(1).LaborersForPhase(1)
	if len(roster) != 1 || roster[0].Position != core.PositionSkilled {
		t.Fatalf("roster = %+v, want one skilled laborer", roster)
	}
}

func TestImportSheetNotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := doJSON(t, srv, http.MethodPost, "/api/projects/1/phases/1/import-sheet/expenses", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestScanReceipts(t *testing.T) {
	uri := "data:image/jpeg;base64,aGVsbG8="
	rec := &fakeRecognizer{receipts: map[string]*recognize.Receipt{
		uri: {
			Date: "2025-08-20",
			Items: []recognize.ReceiptItem{
				{Description: "Cat Tembok", Volume: decimal.NewFromInt(2), Unit: "kaleng", PricePerUnit: decimal.NewFromInt(90_000), TotalPrice: decimal.NewFromInt(180_000)},
			},
		},
	}}
	srv, st := newTestServer(t, Options{Recognizer: rec, ScanConcurrency: 2})

	resp := doJSON(t, srv, http.MethodPost, "/api/projects/1/phases/1/scan", map[string]any{
		"images": []map[string]string{
			{"name": "nota1.jpg", "dataUri": uri},
			{"name": "rusak.jpg", "dataUri": "data:image/jpeg;base64,b3RoZXI="},
		},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", resp.Code, resp.Body.String())
	}

	items := st.Get(1).ExpensesForPhase(1)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	var haveCat, haveFallback bool
	for _, it := range items {
		switch {
		case it.Description == "Cat Tembok":
			haveCat = true
			if !it.TotalPrice.Equal(decimal.NewFromInt(180_000)) {
				t.Errorf("TotalPrice = %s, want 180000", it.TotalPrice)
			}
		case it.Description == "Nota Gagal Scan (rusak.jpg)":
			haveFallback = true
		}
	}
	if !haveCat || !haveFallback {
		t.Errorf("items = %+v, want recognized item and fallback", items)
	}
}

func TestScanReceiptsRentalCategory(t *testing.T) {
	uri := "data:image/jpeg;base64,c2V3YQ=="
	rec := &fakeRecognizer{receipts: map[string]*recognize.Receipt{
		uri: {
			Date: "2025-08-22",
			Items: []recognize.ReceiptItem{
				{Description: "Sewa Molen", Volume: decimal.NewFromInt(3), Unit: "hari", PricePerUnit: decimal.NewFromInt(150_000), TotalPrice: decimal.NewFromInt(450_000)},
			},
		},
	}}
	srv, st := newTestServer(t, Options{Recognizer: rec, ScanConcurrency: 2})

	resp := doJSON(t, srv, http.MethodPost, "/api/projects/1/phases/1/scan", map[string]any{
		"category": "PENYEWAAN",
		"images": []map[string]string{
			{"name": "kwitansi.jpg", "dataUri": uri},
			{"name": "rusak.jpg", "dataUri": "data:image/jpeg;base64,b3RoZXI="},
		},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", resp.Code, resp.Body.String())
	}

	record := st.Get(1)
	for i, it := range record.ExpensesForPhase(1) {
		if it.Category != core.CategoryRental {
			t.Errorf("item %d category = %q, want RENTAL", i, it.Category)
		}
	}
	totals := core.DeriveTotals(record, 1)
	if !totals.RentalTotal.Equal(decimal.NewFromInt(450_000)) {
		t.Errorf("RentalTotal = %s, want 450000", totals.RentalTotal)
	}
	if !totals.MaterialTotal.IsZero() {
		t.Errorf("MaterialTotal = %s, want 0", totals.MaterialTotal)
	}
}

func TestScanNotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := doJSON(t, srv, http.MethodPost, "/api/projects/1/phases/1/scan", map[string]any{
		"images": []map[string]string{{"name": "a", "dataUri": "x"}},
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestReports(t *testing.T) {
	srv, st := newTestServer(t, Options{})
	st.AddExpenses(1, 1, []store.ExpensePartial{
		{Description: "Besi", Volume: decimal.NewFromInt(5), Unit: "btg", PricePerUnit: decimal.NewFromInt(100_000)},
	})

	for _, name := range []string{"resume", "cost-detail", "material", "rental", "labor", "evidence"} {
		rec := doJSON(t, srv, http.MethodGet, "/api/projects/1/phases/1/reports/"+name, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", name, rec.Code)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/projects/1/phases/1/reports/bogus", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown report: status = %d, want 404", rec.Code)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"a\x00b\x1fc", "abc"},
		{"line1\nline2", "line1\nline2"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	for i := 0; i < rateLimitMax; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d denied inside the window", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request above the window limit allowed")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("other client denied")
	}
}
