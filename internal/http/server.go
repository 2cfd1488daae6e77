// Package http exposes the project tracker as a JSON API. All mutations go
// through the Store; reads derive their figures on the fly.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"kopdes/internal/recognize"
	"kopdes/internal/store"
)

// TableReader is the spreadsheet source for the sheet-import endpoint.
type TableReader interface {
	ReadTable(ctx context.Context, sheetName string) ([][]string, error)
}

type Server struct {
	http.Server

	store           *store.Store
	recognizer      recognize.Recognizer
	sheetReader     TableReader
	importSheetName string
	scanConcurrency int

	rateLimiter *rateLimiter
}

// Options carries the optional collaborators. A nil Recognizer disables the
// scan endpoint; a nil TableReader disables sheet import.
type Options struct {
	Recognizer      recognize.Recognizer
	SheetReader     TableReader
	ImportSheetName string
	ScanConcurrency int
}

// NewServer configures routes and returns a ready-to-run http.Server.
func NewServer(addr string, st *store.Store, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:           st,
		recognizer:      opts.Recognizer,
		sheetReader:     opts.SheetReader,
		importSheetName: opts.ImportSheetName,
		scanConcurrency: opts.ScanConcurrency,
		rateLimiter:     newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/locations", s.with(s.handleListLocations))
	mux.HandleFunc("GET /api/projects/{locationID}", s.with(s.handleGetProject))
	mux.HandleFunc("PUT /api/projects/{locationID}/budget", s.with(s.handleSetBudget))

	mux.HandleFunc("POST /api/projects/{locationID}/phases/{phase}/expenses", s.with(s.handleAddExpenses))
	mux.HandleFunc("PATCH /api/projects/{locationID}/expenses/{itemID}", s.with(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/projects/{locationID}/expenses/{itemID}", s.with(s.handleDeleteExpense))

	mux.HandleFunc("POST /api/projects/{locationID}/phases/{phase}/laborers", s.with(s.handleAddLaborers))
	mux.HandleFunc("PATCH /api/projects/{locationID}/laborers/{laborerID}", s.with(s.handleUpdateLaborer))
	mux.HandleFunc("DELETE /api/projects/{locationID}/laborers/{laborerID}", s.with(s.handleDeleteLaborer))
	mux.HandleFunc("PUT /api/projects/{locationID}/laborers/{laborerID}/weeks/{weekIndex}", s.with(s.handleUpdateWeek))

	mux.HandleFunc("POST /api/projects/{locationID}/phases/{phase}/reset", s.with(s.handleResetPhase))
	mux.HandleFunc("POST /api/projects/{locationID}/phases/{phase}/copy-laborers", s.with(s.handleCopyLaborers))

	mux.HandleFunc("POST /api/projects/{locationID}/phases/{phase}/import/{mode}", s.with(s.handleImportCSV))
	mux.HandleFunc("POST /api/projects/{locationID}/phases/{phase}/import-sheet/{mode}", s.with(s.handleImportSheet))
	mux.HandleFunc("POST /api/projects/{locationID}/phases/{phase}/scan", s.with(s.handleScanReceipts))

	mux.HandleFunc("GET /api/projects/{locationID}/phases/{phase}/reports/{report}", s.with(s.handleReport))

	return s
}

// with adds request logging, security headers, and POST rate limiting.
func (s *Server) with(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// rateLimiter is a small fixed-window counter per client IP, applied to
// POST requests only.
type rateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	start time.Time
	count int
}

const (
	rateLimitWindow = time.Minute
	rateLimitMax    = 120
)

func newRateLimiter() *rateLimiter {
	return &rateLimiter{windows: make(map[string]*window)}
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.start) > rateLimitWindow {
		rl.windows[clientIP] = &window{start: now, count: 1}
		// Opportunistic cleanup of stale windows.
		if len(rl.windows) > 1000 {
			for ip, win := range rl.windows {
				if now.Sub(win.start) > rateLimitWindow {
					delete(rl.windows, ip)
				}
			}
		}
		return true
	}
	w.count++
	return w.count <= rateLimitMax
}
