// Package worker rebuilds the shared dashboard spreadsheet whenever a
// project snapshot changes. It runs as its own process and consumes
// change events from the queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"kopdes/internal/core"
	"kopdes/internal/events"
)

// SnapshotLoader reads the latest persisted snapshot.
type SnapshotLoader interface {
	Load(ctx context.Context) (map[int]core.ProjectRecord, bool, error)
}

// DashboardExporter writes the flattened dashboard rows to a sheet.
type DashboardExporter interface {
	ExportDashboard(ctx context.Context, sheetName string, rows [][]interface{}) error
}

type Worker struct {
	loader    SnapshotLoader
	exporter  DashboardExporter
	sheetName string
}

func New(loader SnapshotLoader, exporter DashboardExporter, sheetName string) *Worker {
	return &Worker{loader: loader, exporter: exporter, sheetName: sheetName}
}

// HandleProjectChanged exports the full dashboard on every event. The export
// is a complete rewrite, so it does not matter which location changed or
// whether events were coalesced.
func (w *Worker) HandleProjectChanged(ctx context.Context, msg *events.ProjectChangedMessage) error {
	projects, found, err := w.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if !found {
		slog.InfoContext(ctx, "No snapshot yet, skipping export",
			"location_id", msg.LocationID, "version", msg.Version)
		return nil
	}

	rows := BuildDashboardRows(projects)
	if err := w.exporter.ExportDashboard(ctx, w.sheetName, rows); err != nil {
		return fmt.Errorf("export dashboard: %w", err)
	}

	slog.InfoContext(ctx, "Dashboard exported",
		"location_id", msg.LocationID,
		"version", msg.Version,
		"rows", len(rows))
	return nil
}

// BuildDashboardRows flattens every location and phase into one row each,
// header first. Locations without stored data get zero rows.
func BuildDashboardRows(projects map[int]core.ProjectRecord) [][]interface{} {
	rows := [][]interface{}{{
		"ID", "Desa", "Kecamatan", "Termin",
		"Material", "Upah", "Sewa", "Lainnya", "Total", "Sisa Anggaran",
	}}
	for _, loc := range core.Locations {
		rec, ok := projects[loc.ID]
		if !ok {
			rec = core.NewProjectRecord(loc.ID)
		}
		for phase := 1; phase <= core.PhaseCount; phase++ {
			t := core.DeriveTotals(rec, phase)
			rows = append(rows, []interface{}{
				loc.ID, loc.Village, loc.District, phase,
				t.MaterialTotal.String(),
				t.LaborTotal.String(),
				t.RentalTotal.String(),
				t.OtherTotal.String(),
				t.GrandTotal.String(),
				t.Balance.String(),
			})
		}
	}
	return rows
}
