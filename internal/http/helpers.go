package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"kopdes/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// pathInt parses a numeric path segment; the second value is false when the
// segment is missing or not a number.
func pathInt(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, false
	}
	return v, true
}

// locationAndPhase extracts and validates the two identifiers nearly every
// route carries.
func locationAndPhase(r *http.Request) (locationID, phase int, err error) {
	locationID, ok := pathInt(r, "locationID")
	if !ok {
		return 0, 0, fmt.Errorf("invalid location id %q", r.PathValue("locationID"))
	}
	phase, ok = pathInt(r, "phase")
	if !ok {
		return 0, 0, fmt.Errorf("invalid phase %q", r.PathValue("phase"))
	}
	if phase < 1 || phase > core.PhaseCount {
		return 0, 0, fmt.Errorf("phase %d out of range 1-%d", phase, core.PhaseCount)
	}
	return locationID, phase, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
