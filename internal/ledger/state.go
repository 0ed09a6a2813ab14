package ledger

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/saadjs/platelog/internal/model"
)

const (
	KeyProfile    = "profile"
	KeyDailyState = "dailyState"
	KeyLastMeal   = "lastMealTimestamp"
	KeyHistory    = "mealHistory"
)

type DailyState struct {
	Day               string                  `json:"day,omitempty"`
	DailyTotals       model.Totals            `json:"dailyTotals"`
	MealRecords       []model.MealRecord      `json:"mealRecords"`
	MealTypeTotals    map[string]model.Totals `json:"mealTypeTotals"`
	CalorieAlertFired bool                    `json:"calorieAlertFired,omitempty"`
}

// PersistedState is the full snapshot written to the store. LastMealTimestamp
// is epoch milliseconds, zero when no meal was ever logged.
type PersistedState struct {
	Profile           *model.Profile     `json:"profile,omitempty"`
	Daily             DailyState         `json:"dailyState"`
	History           []model.MealRecord `json:"mealHistory,omitempty"`
	LastMealTimestamp int64              `json:"lastMealTimestamp,omitempty"`
}

func (l *Ledger) Serialize() PersistedState {
	st := PersistedState{
		Profile: l.Profile(),
		Daily: DailyState{
			Day:               l.day,
			DailyTotals:       l.totals,
			MealRecords:       l.Meals(),
			MealTypeTotals:    make(map[string]model.Totals, len(l.buckets)),
			CalorieAlertFired: l.latch.fired(),
		},
		History: append([]model.MealRecord(nil), l.history...),
	}
	for mt, t := range l.buckets {
		st.Daily.MealTypeTotals[string(mt)] = t
	}
	if !l.lastMealAt.IsZero() {
		st.LastMealTimestamp = l.lastMealAt.UnixMilli()
	}
	return st
}

// Restore replaces the in-memory state with st. Absent profile fields fall
// back to the same defaults profile entry uses. A profile that is still
// invalid is dropped on its own; the day, history and last meal are kept.
func (l *Ledger) Restore(st PersistedState) error {
	l.restoreZero()
	var profileErr error
	if st.Profile != nil {
		p, t, err := restoreProfile(*st.Profile)
		if err != nil {
			profileErr = fmt.Errorf("restore profile: %w", err)
		} else {
			l.profile = &p
			l.target = &t
		}
	}
	if st.Daily.Day != "" {
		l.day = st.Daily.Day
	}
	l.totals = st.Daily.DailyTotals
	l.meals = append([]model.MealRecord(nil), st.Daily.MealRecords...)
	for tag, t := range st.Daily.MealTypeTotals {
		mt := model.ParseMealType(tag)
		bucket := l.buckets[mt]
		bucket.Calories += t.Calories
		bucket.ProteinG += t.ProteinG
		bucket.FatG += t.FatG
		bucket.CarbsG += t.CarbsG
		l.buckets[mt] = bucket
	}
	l.history = append([]model.MealRecord(nil), st.History...)
	if st.LastMealTimestamp > 0 {
		l.lastMealAt = time.UnixMilli(st.LastMealTimestamp)
	}
	l.latch.set(st.Daily.CalorieAlertFired)
	return profileErr
}

func restoreProfile(p model.Profile) (model.Profile, model.DailyTarget, error) {
	goal, ok := model.ParseGoal(string(p.Goal))
	if !ok {
		return p, model.DailyTarget{}, fmt.Errorf("%w: unknown goal %q (use maintain, loss or gain)", ErrInvalidProfile, p.Goal)
	}
	p.Goal = goal
	if p.ActivityMultiplier == 0 {
		p.ActivityMultiplier = DefaultActivityMultiplier
	}
	t, err := ComputeTarget(p)
	if err != nil {
		return p, model.DailyTarget{}, err
	}
	return p, t, nil
}

func (l *Ledger) restoreZero() {
	l.profile = nil
	l.target = nil
	l.history = nil
	l.lastMealAt = time.Time{}
	l.clearDay(dayKey(l.now()))
}

// Load reads the persisted keys back from the store. Any read or decode error
// abandons the whole restore and leaves the ledger at zero. An invalid profile
// only drops the profile.
func (l *Ledger) Load() error {
	if l.store == nil {
		return nil
	}
	st, err := l.readState()
	if err != nil {
		l.restoreZero()
		l.logger.Printf("WARN ledger: restore failed, starting empty: %v", err)
		return err
	}
	if err := l.Restore(st); err != nil {
		l.logger.Printf("WARN ledger: dropped stored profile: %v", err)
		return err
	}
	return nil
}

func (l *Ledger) readState() (PersistedState, error) {
	var st PersistedState
	if raw, ok, err := l.store.Get(KeyProfile); err != nil {
		return st, fmt.Errorf("read %s: %w", KeyProfile, err)
	} else if ok {
		var p model.Profile
		if err := json.Unmarshal(raw, &p); err != nil {
			return st, fmt.Errorf("decode %s: %w", KeyProfile, err)
		}
		st.Profile = &p
	}
	if raw, ok, err := l.store.Get(KeyDailyState); err != nil {
		return st, fmt.Errorf("read %s: %w", KeyDailyState, err)
	} else if ok {
		if err := json.Unmarshal(raw, &st.Daily); err != nil {
			return st, fmt.Errorf("decode %s: %w", KeyDailyState, err)
		}
	}
	if raw, ok, err := l.store.Get(KeyHistory); err != nil {
		return st, fmt.Errorf("read %s: %w", KeyHistory, err)
	} else if ok {
		if err := json.Unmarshal(raw, &st.History); err != nil {
			return st, fmt.Errorf("decode %s: %w", KeyHistory, err)
		}
	}
	if raw, ok, err := l.store.Get(KeyLastMeal); err != nil {
		return st, fmt.Errorf("read %s: %w", KeyLastMeal, err)
	} else if ok {
		if err := json.Unmarshal(raw, &st.LastMealTimestamp); err != nil {
			return st, fmt.Errorf("decode %s: %w", KeyLastMeal, err)
		}
	}
	return st, nil
}

// persist writes the full state. The first failure switches persistence off
// for the rest of the session; the ledger keeps working in memory.
func (l *Ledger) persist() {
	if l.store == nil || l.persistDisabled {
		return
	}
	if err := l.writeState(l.Serialize()); err != nil {
		l.persistDisabled = true
		l.logger.Printf("WARN ledger: persist failed, continuing in memory: %v", err)
	}
}

// writeState writes every key of st. Stores implementing TxStore apply the
// writes as one unit so a failure never leaves keys from mixed snapshots.
func (l *Ledger) writeState(st PersistedState) error {
	if tx, ok := l.store.(TxStore); ok {
		return tx.Update(func(s Store) error {
			return writeSnapshot(s, st)
		})
	}
	return writeSnapshot(l.store, st)
}

func writeSnapshot(s Store, st PersistedState) error {
	if st.Profile == nil {
		if err := s.Remove(KeyProfile); err != nil {
			return fmt.Errorf("remove %s: %w", KeyProfile, err)
		}
	} else if err := writeJSON(s, KeyProfile, st.Profile); err != nil {
		return err
	}
	if err := writeJSON(s, KeyDailyState, st.Daily); err != nil {
		return err
	}
	if err := writeJSON(s, KeyHistory, st.History); err != nil {
		return err
	}
	if st.LastMealTimestamp == 0 {
		if err := s.Remove(KeyLastMeal); err != nil {
			return fmt.Errorf("remove %s: %w", KeyLastMeal, err)
		}
		return nil
	}
	return writeJSON(s, KeyLastMeal, st.LastMealTimestamp)
}

func writeJSON(s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(key, b); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// MemoryStore is an in-process Store, used for tests and store-less sessions.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ TxStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Update runs fn against a staged copy and commits it only when fn succeeds.
func (s *MemoryStore) Update(fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := &MemoryStore{data: make(map[string][]byte, len(s.data))}
	for k, v := range s.data {
		staged.data[k] = v
	}
	if err := fn(staged); err != nil {
		return err
	}
	s.data = staged.data
	return nil
}
