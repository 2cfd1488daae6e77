package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"kopdes/internal/core"
	"kopdes/internal/ingest"
	"kopdes/internal/recognize"
	"kopdes/internal/reports"
	"kopdes/internal/store"

	"github.com/shopspring/decimal"
)

// maxUploadSize bounds CSV and receipt payloads (data URIs are large).
const maxUploadSize = 32 << 20

func (s *Server) handleListLocations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, core.Locations)
}

// projectView is the dashboard payload: the raw record plus the derived
// figures for the requested phase.
type projectView struct {
	Record core.ProjectRecord `json:"record"`
	Totals core.Totals        `json:"totals"`
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	locationID, ok := pathInt(r, "locationID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	phase := 1
	if v := r.URL.Query().Get("phase"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 || p > core.PhaseCount {
			writeError(w, http.StatusBadRequest, "invalid phase")
			return
		}
		phase = p
	}

	rec := s.store.Get(locationID)
	writeJSON(w, http.StatusOK, projectView{
		Record: rec,
		Totals: core.DeriveTotals(rec, phase),
	})
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	locationID, ok := pathInt(r, "locationID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	var body struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if body.Amount.IsNegative() {
		writeError(w, http.StatusUnprocessableEntity, "budget cannot be negative")
		return
	}

	s.store.SetBudget(locationID, body.Amount)
	writeJSON(w, http.StatusOK, s.store.Get(locationID))
}

func (s *Server) handleAddExpenses(w http.ResponseWriter, r *http.Request) {
	locationID, phase, err := locationAndPhase(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Items []store.ExpensePartial `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if len(body.Items) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no items to add")
		return
	}
	for i := range body.Items {
		body.Items[i].Description = sanitizeInput(body.Items[i].Description)
		body.Items[i].Unit = sanitizeInput(body.Items[i].Unit)
	}

	s.store.AddExpenses(locationID, phase, body.Items)
	writeJSON(w, http.StatusCreated, s.store.Get(locationID).ExpensesForPhase(phase))
}

// expenseUpdateRequest holds one-or-more field edits; only set fields are
// applied, each through its typed update command.
type expenseUpdateRequest struct {
	Date         *string          `json:"date"`
	Category     *string          `json:"category"`
	Description  *string          `json:"description"`
	Unit         *string          `json:"unit"`
	Volume       *decimal.Decimal `json:"volume"`
	PricePerUnit *decimal.Decimal `json:"pricePerUnit"`
}

func (u expenseUpdateRequest) commands() []store.ExpenseUpdate {
	var cmds []store.ExpenseUpdate
	if u.Date != nil {
		cmds = append(cmds, store.SetExpenseDate{Value: *u.Date})
	}
	if u.Category != nil {
		cmds = append(cmds, store.SetExpenseCategory{Value: core.Category(*u.Category)})
	}
	if u.Description != nil {
		cmds = append(cmds, store.SetExpenseDescription{Value: sanitizeInput(*u.Description)})
	}
	if u.Unit != nil {
		cmds = append(cmds, store.SetExpenseUnit{Value: sanitizeInput(*u.Unit)})
	}
	if u.Volume != nil {
		cmds = append(cmds, store.SetExpenseVolume{Value: *u.Volume})
	}
	if u.PricePerUnit != nil {
		cmds = append(cmds, store.SetExpensePrice{Value: *u.PricePerUnit})
	}
	return cmds
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	locationID, ok := pathInt(r, "locationID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}
	itemID := r.PathValue("itemID")

	var body expenseUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	cmds := body.commands()
	if len(cmds) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no fields to update")
		return
	}

	for _, cmd := range cmds {
		s.store.UpdateExpense(locationID, itemID, cmd)
	}
	writeJSON(w, http.StatusOK, s.store.Get(locationID))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	locationID, ok := pathInt(r, "locationID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}
	s.store.DeleteExpense(locationID, r.PathValue("itemID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddLaborers(w http.ResponseWriter, r *http.Request) {
	locationID, phase, err := locationAndPhase(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Laborers []store.LaborerPartial `json:"laborers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if len(body.Laborers) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no laborers to add")
		return
	}
	for i := range body.Laborers {
		body.Laborers[i].Name = sanitizeInput(body.Laborers[i].Name)
	}

	s.store.AddLaborers(locationID, phase, body.Laborers)
	writeJSON(w, http.StatusCreated, s.store.Get(locationID).LaborersForPhase(phase))
}

type laborerUpdateRequest struct {
	Name          *string          `json:"name"`
	Position      *string          `json:"position"`
	DailyRate     *decimal.Decimal `json:"dailyRate"`
	OvertimeRate  *decimal.Decimal `json:"overtimeRate"`
	OvertimeHours *decimal.Decimal `json:"overtimeHours"`
}

func (u laborerUpdateRequest) commands() []store.LaborerUpdate {
	var cmds []store.LaborerUpdate
	if u.Name != nil {
		cmds = append(cmds, store.SetLaborerName{Value: sanitizeInput(*u.Name)})
	}
	if u.Position != nil {
		cmds = append(cmds, store.SetLaborerPosition{Value: core.Position(*u.Position)})
	}
	if u.DailyRate != nil {
		cmds = append(cmds, store.SetLaborerDailyRate{Value: *u.DailyRate})
	}
	if u.OvertimeRate != nil {
		cmds = append(cmds, store.SetLaborerOvertimeRate{Value: *u.OvertimeRate})
	}
	if u.OvertimeHours != nil {
		cmds = append(cmds, store.SetLaborerOvertimeHours{Value: *u.OvertimeHours})
	}
	return cmds
}

func (s *Server) handleUpdateLaborer(w http.ResponseWriter, r *http.Request) {
	locationID, ok := pathInt(r, "locationID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}
	laborerID := r.PathValue("laborerID")

	var body laborerUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	cmds := body.commands()
	if len(cmds) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no fields to update")
		return
	}

	for _, cmd := range cmds {
		s.store.UpdateLaborer(locationID, laborerID, cmd)
	}
	writeJSON(w, http.StatusOK, s.store.Get(locationID))
}

func (s *Server) handleDeleteLaborer(w http.ResponseWriter, r *http.Request) {
	locationID, ok := pathInt(r, "locationID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}
	s.store.DeleteLaborer(locationID, r.PathValue("laborerID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateWeek(w http.ResponseWriter, r *http.Request) {
	locationID, ok := pathInt(r, "locationID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}
	laborerID := r.PathValue("laborerID")
	weekIndex, ok := pathInt(r, "weekIndex")
	if !ok || weekIndex < 0 || weekIndex >= core.WeeksPerProject {
		writeError(w, http.StatusBadRequest, "week index out of range")
		return
	}

	// The value arrives as whatever the spreadsheet-like grid sends,
	// string or number; the store coerces and clamps it.
	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	raw := string(body.Value)
	var unquoted string
	if json.Unmarshal(body.Value, &unquoted) == nil {
		raw = unquoted
	}

	s.store.UpdateWeek(locationID, laborerID, weekIndex, raw)
	writeJSON(w, http.StatusOK, s.store.Get(locationID))
}

func (s *Server) handleResetPhase(w http.ResponseWriter, r *http.Request) {
	locationID, phase, err := locationAndPhase(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.store.ResetPhase(locationID, phase)
	writeJSON(w, http.StatusOK, s.store.Get(locationID))
}

func (s *Server) handleCopyLaborers(w http.ResponseWriter, r *http.Request) {
	locationID, phase, err := locationAndPhase(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CopyLaborersFromPreviousPhase(locationID, phase); err != nil {
		if errors.Is(err, core.ErrNothingToCopy) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.store.Get(locationID).LaborersForPhase(phase))
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	locationID, phase, err := locationAndPhase(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode := r.PathValue("mode")
	if mode != "expenses" && mode != "laborers" {
		writeError(w, http.StatusNotFound, "unknown import mode "+mode)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload: "+err.Error())
		return
	}
	defer file.Close()

	rows, err := ingest.ReadCSVTable(file)
	if err != nil {
		// Unreadable file aborts the import; nothing is partially applied.
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.applyImport(w, r, locationID, phase, mode, rows)
}

func (s *Server) handleImportSheet(w http.ResponseWriter, r *http.Request) {
	if s.sheetReader == nil {
		writeError(w, http.StatusServiceUnavailable, "spreadsheet import is not configured")
		return
	}
	locationID, phase, err := locationAndPhase(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode := r.PathValue("mode")
	if mode != "expenses" && mode != "laborers" {
		writeError(w, http.StatusNotFound, "unknown import mode "+mode)
		return
	}

	sheetName := r.URL.Query().Get("sheet")
	if sheetName == "" {
		sheetName = s.importSheetName
	}

	rows, err := s.sheetReader.ReadTable(r.Context(), sheetName)
	if err != nil {
		slog.ErrorContext(r.Context(), "Sheet import failed", "sheet", sheetName, "error", err)
		writeError(w, http.StatusBadGateway, "read spreadsheet: "+err.Error())
		return
	}

	s.applyImport(w, r, locationID, phase, mode, rows)
}

func (s *Server) applyImport(w http.ResponseWriter, r *http.Request, locationID, phase int, mode string, rows [][]string) {
	switch mode {
	case "laborers":
		laborers := ingest.MapLaborerRows(rows)
		if len(laborers) == 0 {
			writeError(w, http.StatusUnprocessableEntity, "no importable rows")
			return
		}
		s.store.AddLaborers(locationID, phase, laborers)
		slog.InfoContext(r.Context(), "Laborers imported",
			"location_id", locationID, "phase", phase, "count", len(laborers))
		writeJSON(w, http.StatusCreated, map[string]int{"imported": len(laborers)})
	default:
		items := ingest.MapExpenseRows(rows)
		if len(items) == 0 {
			writeError(w, http.StatusUnprocessableEntity, "no importable rows")
			return
		}
		s.store.AddExpenses(locationID, phase, items)
		slog.InfoContext(r.Context(), "Expenses imported",
			"location_id", locationID, "phase", phase, "count", len(items))
		writeJSON(w, http.StatusCreated, map[string]int{"imported": len(items)})
	}
}

func (s *Server) handleScanReceipts(w http.ResponseWriter, r *http.Request) {
	if s.recognizer == nil {
		writeError(w, http.StatusServiceUnavailable, "receipt recognition is not configured")
		return
	}
	locationID, phase, err := locationAndPhase(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	var body struct {
		// Category is the caller's bucket for the whole batch: a rental
		// receipt scan must not land in materials. Unknown or missing
		// labels default to MATERIAL.
		Category string            `json:"category"`
		Images   []recognize.Image `json:"images"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if len(body.Images) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no images to scan")
		return
	}
	category := core.ParseCategory(body.Category)

	items := recognize.ScanBatch(r.Context(), s.recognizer, body.Images, category, s.scanConcurrency)
	s.store.AddExpenses(locationID, phase, items)
	slog.InfoContext(r.Context(), "Receipts scanned",
		"location_id", locationID, "phase", phase, "category", category,
		"images", len(body.Images), "items", len(items))
	writeJSON(w, http.StatusCreated, s.store.Get(locationID).ExpensesForPhase(phase))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	locationID, phase, err := locationAndPhase(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := s.store.Get(locationID)
	switch r.PathValue("report") {
	case "resume":
		writeJSON(w, http.StatusOK, reports.BuildResume(rec, locationID, phase))
	case "cost-detail":
		writeJSON(w, http.StatusOK, reports.BuildCostDetail(rec, locationID, phase))
	case "material":
		writeJSON(w, http.StatusOK, reports.BuildMaterial(rec, locationID, phase))
	case "rental":
		writeJSON(w, http.StatusOK, reports.BuildRental(rec, locationID, phase))
	case "labor":
		writeJSON(w, http.StatusOK, reports.BuildLabor(rec, locationID, phase))
	case "evidence":
		writeJSON(w, http.StatusOK, reports.BuildEvidence(rec, locationID, phase))
	default:
		writeError(w, http.StatusNotFound, "unknown report "+r.PathValue("report"))
	}
}
