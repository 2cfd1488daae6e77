// Package ingest turns tabular data (CSV uploads, Google Sheets ranges)
// into partial expense and laborer records. Column headers are matched
// against an ordered synonym table per target field so mixed Indonesian and
// English spreadsheets import without manual mapping.
package ingest

import "strings"

// Field names one target column of an import.
type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldVolume      Field = "volume"
	FieldUnit        Field = "unit"
	FieldPrice       Field = "price"
	FieldCategory    Field = "category"

	FieldName         Field = "name"
	FieldPosition     Field = "position"
	FieldDailyRate    Field = "dailyRate"
	FieldOvertimeRate Field = "overtimeRate"
)

// synonyms lists header fragments per field, in priority order. Matching is
// case-insensitive substring: the first synonym that occurs in any header
// wins, scanning headers left to right.
var synonyms = map[Field][]string{
	FieldDate:        {"tgl", "tanggal", "date"},
	FieldDescription: {"uraian", "barang", "item", "deskripsi"},
	FieldVolume:      {"vol", "qty", "jumlah"},
	FieldUnit:        {"satuan", "unit"},
	FieldPrice:       {"harga", "price"},
	FieldCategory:    {"kategori", "cat"},

	FieldName:         {"nama", "name", "pekerja"},
	FieldPosition:     {"posisi", "jabatan", "role"},
	FieldDailyRate:    {"harian", "gaji", "upah", "rate"},
	FieldOvertimeRate: {"lembur", "overtime", "ot"},
}

// MatchColumn returns the index of the header matching the field, or false
// when no header matches.
func MatchColumn(headers []string, field Field) (int, bool) {
	for _, syn := range synonyms[field] {
		for i, h := range headers {
			if strings.Contains(strings.ToLower(h), syn) {
				return i, true
			}
		}
	}
	return 0, false
}
