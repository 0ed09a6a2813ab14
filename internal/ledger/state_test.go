package ledger_test

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/saadjs/platelog/internal/ledger"
	"github.com/saadjs/platelog/internal/model"
)

func TestSerializeRestoreRoundTrip(t *testing.T) {
	t.Parallel()
	tl := newTestLedger(t, ledger.RolloverMidnight)
	setCalorieTarget(t, tl.Ledger, 1500)
	tl.LogMeal(model.MealEstimate{Calories: 600, ProteinG: 30, FatG: 20, CarbsG: 70}, model.MealBreakfast)
	tl.clock.Advance(24 * time.Hour)
	tl.LogMeal(model.MealEstimate{Calories: 900, ProteinG: 50, FatG: 30, CarbsG: 90}, model.MealDinner)
	tl.LogMeal(model.MealEstimate{Calories: 700, ProteinG: 20, FatG: 25, CarbsG: 80}, "brunch")

	snapshot := tl.Serialize()

	other := newTestLedger(t, ledger.RolloverMidnight)
	other.clock.now = tl.clock.now
	if err := other.Restore(snapshot); err != nil {
		t.Fatalf("restore: %v", err)
	}
	assertSameLedger(t, tl.Ledger, other.Ledger)
}

func TestLoadFromStoreRoundTrip(t *testing.T) {
	t.Parallel()
	tl := newTestLedger(t, ledger.RolloverMidnight)
	if _, err := tl.SetProfile(referenceProfile()); err != nil {
		t.Fatalf("set profile: %v", err)
	}
	tl.LogMeal(model.MealEstimate{Calories: 3000, ProteinG: 10, FatG: 10, CarbsG: 10}, model.MealLunch)

	reloaded := ledger.New(ledger.Options{Store: tl.store, Now: tl.clock.Now})
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSameLedger(t, tl.Ledger, reloaded)
	if !reloaded.CalorieAlertFired() {
		t.Fatalf("expected latch state to survive reload")
	}
	if !reloaded.LastMealAt().Equal(tl.LastMealAt()) {
		t.Fatalf("expected last meal %v, got %v", tl.LastMealAt(), reloaded.LastMealAt())
	}
}

func TestLoadToleratesMissingFields(t *testing.T) {
	t.Parallel()
	store := ledger.NewMemoryStore()
	_ = store.Set(ledger.KeyDailyState, []byte(`{"dailyTotals":{"calories":250}}`))

	l := ledger.New(ledger.Options{Store: store})
	if err := l.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if l.Totals().Calories != 250 || l.Totals().ProteinG != 0 {
		t.Fatalf("expected partial totals, got %+v", l.Totals())
	}
	if l.Profile() != nil || len(l.Meals()) != 0 || len(l.MealTypeTotals()) != 0 {
		t.Fatalf("expected absent fields to stay zero")
	}
}

func TestLoadMalformedStartsEmpty(t *testing.T) {
	t.Parallel()
	store := ledger.NewMemoryStore()
	_ = store.Set(ledger.KeyProfile, []byte(`{"age":30,"weight":70,"height":175,"activityMultiplier":1.4,"goal":"maintain"}`))
	_ = store.Set(ledger.KeyDailyState, []byte(`{"dailyTotals":`))

	var logs bytes.Buffer
	l := ledger.New(ledger.Options{Store: store, Logger: log.New(&logs, "", 0)})
	if err := l.Load(); err == nil {
		t.Fatalf("expected malformed state to fail")
	}
	if l.Profile() != nil || l.Target() != nil {
		t.Fatalf("expected no partial restore of profile")
	}
	if !strings.Contains(logs.String(), "WARN") {
		t.Fatalf("expected restore warning, got %q", logs.String())
	}
}

func TestRestoreDropsOnlyInvalidProfile(t *testing.T) {
	t.Parallel()
	l := ledger.New(ledger.Options{})
	st := ledger.PersistedState{
		Profile: &model.Profile{Age: -3, WeightKg: 70, HeightCm: 170, ActivityMultiplier: 1.2, Goal: model.GoalMaintain},
		Daily:   ledger.DailyState{DailyTotals: model.Totals{Calories: 100}},
	}
	if err := l.Restore(st); !errors.Is(err, ledger.ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
	if l.Profile() != nil || l.Target() != nil {
		t.Fatalf("expected invalid profile to be dropped")
	}
	if l.Totals().Calories != 100 {
		t.Fatalf("expected daily totals to survive, got %+v", l.Totals())
	}
}

func TestLoadProfileMissingGoalKeepsMeals(t *testing.T) {
	t.Parallel()
	store := ledger.NewMemoryStore()
	_ = store.Set(ledger.KeyProfile, []byte(`{"age":30,"weight":70,"height":175}`))
	_ = store.Set(ledger.KeyDailyState, []byte(`{"dailyTotals":{"calories":500,"protein":30,"fat":20,"carbs":50},`+
		`"mealRecords":[{"id":"lunch-1","time":"2026-03-10T12:00:00Z","mealType":"lunch","calories":500,"protein":30,"fat":20,"carbs":50}],`+
		`"mealTypeTotals":{"lunch":{"calories":500,"protein":30,"fat":20,"carbs":50}}}`))
	_ = store.Set(ledger.KeyLastMeal, []byte(`1773144000000`))

	var logs bytes.Buffer
	l := ledger.New(ledger.Options{Store: store, Logger: log.New(&logs, "", 0)})
	if err := l.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	p := l.Profile()
	if p == nil || p.Goal != model.GoalMaintain || p.ActivityMultiplier != ledger.DefaultActivityMultiplier {
		t.Fatalf("expected defaults for missing profile fields, got %+v", p)
	}
	if l.Target() == nil {
		t.Fatalf("expected target computed from restored profile")
	}
	if len(l.Meals()) != 1 || l.Totals().Calories != 500 || l.LastMealAt().IsZero() {
		t.Fatalf("expected stored meal to survive, meals=%d totals=%+v", len(l.Meals()), l.Totals())
	}
	if logs.Len() != 0 {
		t.Fatalf("expected a clean load, got %q", logs.String())
	}

	l.LogMeal(model.MealEstimate{Calories: 100}, model.MealSnack)
	reloaded := ledger.New(ledger.Options{Store: store})
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.History()) != 2 || reloaded.Summary().TotalCaloriesAllTime != 600 {
		t.Fatalf("expected both meals persisted, got %+v", reloaded.History())
	}
}

func TestLoadInvalidProfileKeepsMeals(t *testing.T) {
	t.Parallel()
	store := ledger.NewMemoryStore()
	_ = store.Set(ledger.KeyProfile, []byte(`{"age":30,"weight":70,"height":175,"goal":"bulk"}`))
	_ = store.Set(ledger.KeyDailyState, []byte(`{"dailyTotals":{"calories":500},`+
		`"mealRecords":[{"id":"lunch-1","time":"2026-03-10T12:00:00Z","mealType":"lunch","calories":500}]}`))

	var logs bytes.Buffer
	l := ledger.New(ledger.Options{Store: store, Logger: log.New(&logs, "", 0)})
	if err := l.Load(); !errors.Is(err, ledger.ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
	if l.Profile() != nil {
		t.Fatalf("expected unknown goal to drop the profile")
	}
	if len(l.Meals()) != 1 || l.Totals().Calories != 500 {
		t.Fatalf("expected stored meal to survive, got %+v", l.Totals())
	}
	if !strings.Contains(logs.String(), "WARN") {
		t.Fatalf("expected warning, got %q", logs.String())
	}
}

type failingStore struct {
	writes int
}

func (s *failingStore) Get(string) ([]byte, bool, error) { return nil, false, nil }

func (s *failingStore) Set(string, []byte) error {
	s.writes++
	return errors.New("disk full")
}

func (s *failingStore) Remove(string) error { return nil }

func TestPersistFailureKeepsWorkingInMemory(t *testing.T) {
	t.Parallel()
	store := &failingStore{}
	var logs bytes.Buffer
	l := ledger.New(ledger.Options{Store: store, Logger: log.New(&logs, "", 0)})

	l.LogMeal(model.MealEstimate{Calories: 100}, model.MealLunch)
	l.LogMeal(model.MealEstimate{Calories: 200}, model.MealLunch)
	if l.Totals().Calories != 300 {
		t.Fatalf("expected in-memory totals to keep updating, got %v", l.Totals().Calories)
	}
	if store.writes != 1 {
		t.Fatalf("expected a single write attempt without retry, got %d", store.writes)
	}
	if strings.Count(logs.String(), "WARN") != 1 {
		t.Fatalf("expected one warning, got %q", logs.String())
	}
}

func assertSameLedger(t *testing.T, want, got *ledger.Ledger) {
	t.Helper()
	if want.Totals() != got.Totals() {
		t.Fatalf("totals: want %+v, got %+v", want.Totals(), got.Totals())
	}
	if want.Day() != got.Day() {
		t.Fatalf("day: want %s, got %s", want.Day(), got.Day())
	}
	wm, gm := want.History(), got.History()
	if len(wm) != len(gm) {
		t.Fatalf("history length: want %d, got %d", len(wm), len(gm))
	}
	for i := range wm {
		if wm[i].ID != gm[i].ID || !wm[i].Timestamp.Equal(gm[i].Timestamp) || wm[i].MealType != gm[i].MealType || wm[i].Estimate() != gm[i].Estimate() {
			t.Fatalf("record %d: want %+v, got %+v", i, wm[i], gm[i])
		}
	}
	if len(want.Meals()) != len(got.Meals()) {
		t.Fatalf("today's meals: want %d, got %d", len(want.Meals()), len(got.Meals()))
	}
	wb, gb := want.MealTypeTotals(), got.MealTypeTotals()
	if len(wb) != len(gb) {
		t.Fatalf("buckets: want %+v, got %+v", wb, gb)
	}
	for i := range wb {
		if wb[i] != gb[i] {
			t.Fatalf("bucket %d: want %+v, got %+v", i, wb[i], gb[i])
		}
	}
	if (want.Target() == nil) != (got.Target() == nil) {
		t.Fatalf("target presence differs")
	}
	if want.Target() != nil && *want.Target() != *got.Target() {
		t.Fatalf("target: want %+v, got %+v", *want.Target(), *got.Target())
	}
}

// faultyTxStore fails writes to failKey inside Update.
type faultyTxStore struct {
	*ledger.MemoryStore
	failKey string
}

func (s *faultyTxStore) Update(fn func(ledger.Store) error) error {
	return s.MemoryStore.Update(func(tx ledger.Store) error {
		return fn(faultyWrites{Store: tx, failKey: s.failKey})
	})
}

type faultyWrites struct {
	ledger.Store
	failKey string
}

func (w faultyWrites) Set(key string, value []byte) error {
	if key == w.failKey {
		return errors.New("disk full")
	}
	return w.Store.Set(key, value)
}

func TestPersistRollsBackPartialWrites(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	mem := ledger.NewMemoryStore()
	store := &faultyTxStore{MemoryStore: mem}
	l := ledger.New(ledger.Options{Store: store, Now: clock.Now, Rollover: ledger.RolloverManual, Logger: log.New(&bytes.Buffer{}, "", 0)})
	l.LogMeal(model.MealEstimate{Calories: 450}, model.MealLunch)

	store.failKey = ledger.KeyHistory
	l.CloseDay()
	if len(l.Meals()) != 0 || len(l.History()) != 1 {
		t.Fatalf("expected in-memory close to succeed, meals=%d history=%d", len(l.Meals()), len(l.History()))
	}

	reloaded := ledger.New(ledger.Options{Store: mem, Now: clock.Now, Rollover: ledger.RolloverManual})
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(reloaded.Meals()) != 1 || reloaded.Totals().Calories != 450 {
		t.Fatalf("expected stored day untouched by the failed write, got %+v", reloaded.Totals())
	}
}
