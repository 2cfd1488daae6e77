// Package store owns the in-memory map of location project records and is
// the only legal mutation surface over it. Every mutation bumps a version
// counter and notifies the change hook, which drives the debounced autosave
// and the project-changed event publisher.
package store

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"kopdes/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultLaborerName is assigned when a roster entry arrives without a name.
const DefaultLaborerName = "Pekerja Baru"

// Store holds all locations' project records. Handlers run concurrently, so
// access is mutex-guarded even though mutations are logically single-writer.
type Store struct {
	mu       sync.Mutex
	projects map[int]core.ProjectRecord
	version  uint64

	onChange func(locationID int, version uint64)
}

func New() *Store {
	return &Store{projects: make(map[int]core.ProjectRecord)}
}

// OnChange registers the hook invoked after every settled mutation, outside
// the store lock. Must be called before the store starts serving.
func (s *Store) OnChange(fn func(locationID int, version uint64)) {
	s.onChange = fn
}

// Install replaces the store contents with a loaded snapshot, sanitizing
// legacy data on the way in: zero phases default to 1, legacy category and
// position labels are mapped, and a zero budget falls back to the default
// contract value. This is the only schema-migration mechanism.
func (s *Store) Install(snapshot map[int]core.ProjectRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.projects = make(map[int]core.ProjectRecord, len(snapshot))
	for locationID, rec := range snapshot {
		rec.LocationID = locationID
		if rec.Budget.IsZero() {
			rec.Budget = core.DefaultContractBudget
		}
		for i := range rec.Expenses {
			e := &rec.Expenses[i]
			if e.Phase == 0 {
				e.Phase = 1
			}
			e.Category = core.ParseCategory(string(e.Category))
		}
		for i := range rec.Laborers {
			l := &rec.Laborers[i]
			if l.Phase == 0 {
				l.Phase = 1
			}
			l.Position = core.ParsePosition(string(l.Position))
			for w := range l.WeeklyDays {
				l.WeeklyDays[w] = clampDays(l.WeeklyDays[w])
			}
		}
		s.projects[locationID] = rec
	}
}

// Get returns the record for a location, lazily materializing the default
// record on first access. The default is not stored until a mutation lands.
func (s *Store) Get(locationID int) core.ProjectRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.projects[locationID]
	if !ok {
		return core.NewProjectRecord(locationID)
	}
	// Copy the slices so callers never share backing arrays with state
	// that delete and reset mutate in place.
	rec.Expenses = append([]core.ExpenseItem(nil), rec.Expenses...)
	rec.Laborers = append([]core.Laborer(nil), rec.Laborers...)
	return rec
}

// Version returns the current mutation counter.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Snapshot deep-copies the full map for persistence. Item structs are value
// types, so copying the slices is enough.
func (s *Store) Snapshot() map[int]core.ProjectRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]core.ProjectRecord, len(s.projects))
	for id, rec := range s.projects {
		rec.Expenses = append([]core.ExpenseItem(nil), rec.Expenses...)
		rec.Laborers = append([]core.Laborer(nil), rec.Laborers...)
		out[id] = rec
	}
	return out
}

// mutate runs fn against the location's record under the lock. fn reports
// whether it changed anything; only then is the record stored back, the
// version bumped, and the change hook fired.
func (s *Store) mutate(locationID int, fn func(r *core.ProjectRecord) bool) {
	s.mu.Lock()
	rec, ok := s.projects[locationID]
	if !ok {
		rec = core.NewProjectRecord(locationID)
	}
	changed := fn(&rec)
	var version uint64
	if changed {
		s.version++
		version = s.version
		s.projects[locationID] = rec
	}
	s.mu.Unlock()

	if changed && s.onChange != nil {
		s.onChange(locationID, version)
	}
}

// SetBudget replaces the contract budget. Negative amounts are rejected as
// a silent no-op.
func (s *Store) SetBudget(locationID int, amount decimal.Decimal) {
	if amount.IsNegative() {
		return
	}
	s.mutate(locationID, func(r *core.ProjectRecord) bool {
		if r.Budget.Equal(amount) {
			return false
		}
		r.Budget = amount
		return true
	})
}

// AddExpenses materializes partial items and prepends them, newest first.
// A caller-supplied total price is trusted; otherwise it is computed from
// volume and unit price.
func (s *Store) AddExpenses(locationID, phase int, items []ExpensePartial) {
	if len(items) == 0 {
		return
	}
	s.mutate(locationID, func(r *core.ProjectRecord) bool {
		added := make([]core.ExpenseItem, 0, len(items))
		for _, p := range items {
			e := core.ExpenseItem{
				ID:            uuid.NewString(),
				Date:          p.Date,
				Category:      p.Category,
				Description:   p.Description,
				Volume:        clampAmount(p.Volume),
				Unit:          p.Unit,
				PricePerUnit:  clampAmount(p.PricePerUnit),
				Phase:         phase,
				EvidenceImage: p.EvidenceImage,
			}
			if e.Date == "" {
				e.Date = time.Now().Format("2006-01-02")
			}
			if e.Category == "" {
				e.Category = core.CategoryMaterial
			}
			if p.TotalPrice != nil {
				e.TotalPrice = clampAmount(*p.TotalPrice)
			} else {
				e.TotalPrice = core.ExpenseTotal(e)
			}
			added = append(added, e)
		}
		r.Expenses = append(added, r.Expenses...)
		return true
	})
}

// AddLaborers materializes partial roster entries and appends them. Rates
// left unset default to the position's pay scale.
func (s *Store) AddLaborers(locationID, phase int, laborers []LaborerPartial) {
	if len(laborers) == 0 {
		return
	}
	s.mutate(locationID, func(r *core.ProjectRecord) bool {
		for _, p := range laborers {
			l := core.Laborer{
				ID:            uuid.NewString(),
				Name:          p.Name,
				Position:      p.Position,
				OvertimeHours: clampAmount(p.OvertimeHours),
				Phase:         phase,
			}
			if l.Name == "" {
				l.Name = DefaultLaborerName
			}
			if l.Position == "" {
				l.Position = core.PositionHelper
			}
			if p.DailyRate != nil {
				l.DailyRate = clampAmount(*p.DailyRate)
			} else {
				l.DailyRate = l.Position.DefaultDailyRate()
			}
			if p.OvertimeRate != nil {
				l.OvertimeRate = clampAmount(*p.OvertimeRate)
			} else {
				l.OvertimeRate = l.Position.DefaultOvertimeRate()
			}
			for i, d := range p.WeeklyDays {
				if i >= core.WeeksPerProject {
					break
				}
				l.WeeklyDays[i] = clampDays(d)
			}
			r.Laborers = append(r.Laborers, l)
		}
		return true
	})
}

// UpdateExpense applies one typed field update to the matching item. A miss
// on the item identifier is a silent no-op.
func (s *Store) UpdateExpense(locationID int, itemID string, update ExpenseUpdate) {
	s.mutate(locationID, func(r *core.ProjectRecord) bool {
		for i := range r.Expenses {
			if r.Expenses[i].ID == itemID {
				update.applyExpense(&r.Expenses[i])
				return true
			}
		}
		return false
	})
}

// UpdateLaborer applies one typed field update to the matching roster entry.
// Pay is always derived on read, so nothing needs recomputing here.
func (s *Store) UpdateLaborer(locationID int, laborerID string, update LaborerUpdate) {
	s.mutate(locationID, func(r *core.ProjectRecord) bool {
		for i := range r.Laborers {
			if r.Laborers[i].ID == laborerID {
				update.applyLaborer(&r.Laborers[i])
				return true
			}
		}
		return false
	})
}

// UpdateWeek writes an attendance slot. The raw value is coerced and clamped
// to [0,7]; a week index outside [0,15] is a no-op.
func (s *Store) UpdateWeek(locationID int, laborerID string, weekIndex int, rawValue string) {
	if weekIndex < 0 || weekIndex >= core.WeeksPerProject {
		return
	}
	days := ParseWeekValue(rawValue)
	s.mutate(locationID, func(r *core.ProjectRecord) bool {
		for i := range r.Laborers {
			if r.Laborers[i].ID == laborerID {
				if r.Laborers[i].WeeklyDays[weekIndex] == days {
					return false
				}
				r.Laborers[i].WeeklyDays[weekIndex] = days
				return true
			}
		}
		return false
	})
}

// DeleteExpense removes an item by identifier; absent is a no-op.
func (s *Store) DeleteExpense(locationID int, itemID string) {
	s.mutate(locationID, func(r *core.ProjectRecord) bool {
		for i := range r.Expenses {
			if r.Expenses[i].ID == itemID {
				r.Expenses = append(r.Expenses[:i], r.Expenses[i+1:]...)
				return true
			}
		}
		return false
	})
}

// DeleteLaborer removes a roster entry by identifier; absent is a no-op.
func (s *Store) DeleteLaborer(locationID int, laborerID string) {
	s.mutate(locationID, func(r *core.ProjectRecord) bool {
		for i := range r.Laborers {
			if r.Laborers[i].ID == laborerID {
				r.Laborers = append(r.Laborers[:i], r.Laborers[i+1:]...)
				return true
			}
		}
		return false
	})
}

// ResetPhase removes every expense and laborer of the given phase for one
// location. Other phases and locations are untouched.
func (s *Store) ResetPhase(locationID, phase int) {
	s.mutate(locationID, func(r *core.ProjectRecord) bool {
		changed := false
		kept := r.Expenses[:0]
		for _, e := range r.Expenses {
			if e.Phase == phase {
				changed = true
				continue
			}
			kept = append(kept, e)
		}
		r.Expenses = kept

		keptL := r.Laborers[:0]
		for _, l := range r.Laborers {
			if l.Phase == phase {
				changed = true
				continue
			}
			keptL = append(keptL, l)
		}
		r.Laborers = keptL
		return changed
	})
}

// CopyLaborersFromPreviousPhase copies the previous phase's roster into the
// target phase with fresh identifiers and zeroed attendance and overtime:
// only names, positions, and rates carry over. Phase 1 has no previous
// phase and is a no-op. Returns ErrNothingToCopy when the source roster is
// empty.
func (s *Store) CopyLaborersFromPreviousPhase(locationID, phase int) error {
	if phase <= 1 {
		return nil
	}
	err := core.ErrNothingToCopy
	s.mutate(locationID, func(r *core.ProjectRecord) bool {
		var copied []core.Laborer
		for _, l := range r.Laborers {
			if l.Phase != phase-1 {
				continue
			}
			copied = append(copied, core.Laborer{
				ID:            uuid.NewString(),
				Name:          l.Name,
				Position:      l.Position,
				DailyRate:     l.DailyRate,
				OvertimeRate:  l.OvertimeRate,
				OvertimeHours: decimal.Zero,
				Phase:         phase,
			})
		}
		if len(copied) == 0 {
			return false
		}
		err = nil
		r.Laborers = append(r.Laborers, copied...)
		return true
	})
	return err
}

// ParseWeekValue coerces a raw attendance input to a day count in [0,7].
// Non-numeric input becomes 0; fractional input truncates.
func ParseWeekValue(raw string) int {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return 0
		}
		n = int(f)
	}
	return clampDays(n)
}

func clampDays(n int) int {
	if n < 0 {
		return 0
	}
	if n > 7 {
		return 7
	}
	return n
}

// clampAmount coerces negative money and quantity inputs to zero at the
// mutation boundary, keeping the pure helpers total.
func clampAmount(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
