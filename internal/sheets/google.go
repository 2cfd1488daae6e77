// Package sheets is the Google Sheets adapter: a read side feeding the
// spreadsheet import flow and a write side the worker uses to publish the
// derived dashboard.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"kopdes/internal/config"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// New creates a Sheets client authenticated with service-account
// credentials from the config, either inline JSON or a file path.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	var credentialsJSON []byte
	switch {
	case cfg.GoogleCredentialsJSON != "":
		credentialsJSON = []byte(cfg.GoogleCredentialsJSON)
	case cfg.GoogleCredentialsFile != "":
		b, err := os.ReadFile(cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets client created", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return &Client{svc: svc, spreadsheetID: cfg.GoogleSpreadsheetID}, nil
}

// ReadTable fetches a whole sheet as a string matrix for the import
// mappers. Non-string cells are rendered the way the sheet displays them.
func (c *Client) ReadTable(ctx context.Context, sheetName string) ([][]string, error) {
	if strings.TrimSpace(sheetName) == "" {
		return nil, errors.New("sheet name is empty")
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheetName).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, fmt.Sprint(cell))
		}
		rows = append(rows, cells)
	}

	slog.InfoContext(ctx, "Sheet read", "sheet", sheetName, "rows", len(rows))
	return rows, nil
}

// ExportDashboard replaces the sheet contents with the given rows. The
// worker calls this with one row per location and phase.
func (c *Client) ExportDashboard(ctx context.Context, sheetName string, rows [][]interface{}) error {
	if strings.TrimSpace(sheetName) == "" {
		return errors.New("sheet name is empty")
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, sheetName, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %q: %w", sheetName, err)
	}

	vr := &gsheet.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, sheetName+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet %q: %w", sheetName, err)
	}

	slog.InfoContext(ctx, "Dashboard exported", "sheet", sheetName, "rows", len(rows))
	return nil
}
