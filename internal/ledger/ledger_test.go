package ledger_test

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/saadjs/platelog/internal/ledger"
	"github.com/saadjs/platelog/internal/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingNotifier struct {
	granted  bool
	messages []string
}

func (n *recordingNotifier) Notify(message string) { n.messages = append(n.messages, message) }

func (n *recordingNotifier) Granted() bool { return n.granted }

type testLedger struct {
	*ledger.Ledger
	clock    *fakeClock
	notifier *recordingNotifier
	store    *ledger.MemoryStore
}

func newTestLedger(t *testing.T, policy ledger.RolloverPolicy) *testLedger {
	t.Helper()
	tl := &testLedger{
		clock:    &fakeClock{now: time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)},
		notifier: &recordingNotifier{granted: true},
		store:    ledger.NewMemoryStore(),
	}
	seq := 0
	tl.Ledger = ledger.New(ledger.Options{
		Store:    tl.store,
		Notifier: tl.notifier,
		Now:      tl.clock.Now,
		NewID: func() string {
			seq++
			return fmt.Sprintf("meal-%d", seq)
		},
		Rollover: policy,
	})
	return tl
}

func setCalorieTarget(t *testing.T, l *ledger.Ledger, calories float64) {
	t.Helper()
	// Scale the activity multiplier so the energy target lands on calories.
	p := model.Profile{Age: 30, WeightKg: 70, HeightCm: 175, ActivityMultiplier: 1, Goal: model.GoalMaintain}
	base := 10*p.WeightKg + 6.25*p.HeightCm - 5*p.Age + 5
	p.ActivityMultiplier = calories / base
	if _, err := l.SetProfile(p); err != nil {
		t.Fatalf("set profile: %v", err)
	}
}

func TestLogMealKeepsTotalsInSync(t *testing.T) {
	t.Parallel()
	tl := newTestLedger(t, ledger.RolloverMidnight)

	meals := []struct {
		est model.MealEstimate
		typ model.MealType
	}{
		{model.MealEstimate{Calories: 420.5, ProteinG: 25, FatG: 12.2, CarbsG: 50}, model.MealBreakfast},
		{model.MealEstimate{Calories: 710, ProteinG: 40.1, FatG: 22, CarbsG: 80.3}, model.MealLunch},
		{model.MealEstimate{Calories: 150, ProteinG: 3, FatG: 7, CarbsG: 20}, "snacks"},
		{model.MealEstimate{Calories: 90, ProteinG: 1, FatG: 0.5, CarbsG: 22}, "midnight-feast"},
		{model.MealEstimate{Calories: 300, ProteinG: 10, FatG: 10, CarbsG: 30}, ""},
	}
	for i, m := range meals {
		tl.clock.Advance(time.Hour)
		rec := tl.LogMeal(m.est, m.typ)
		if !rec.Timestamp.Equal(tl.clock.now) {
			t.Fatalf("meal %d: expected timestamp %v, got %v", i, tl.clock.now, rec.Timestamp)
		}

		var sum model.Totals
		for _, r := range tl.Meals() {
			sum.AddRecord(r)
		}
		if sum != tl.Totals() {
			t.Fatalf("after meal %d: totals %+v differ from record sum %+v", i, tl.Totals(), sum)
		}

		var buckets model.Totals
		for _, b := range tl.MealTypeTotals() {
			buckets.AddEstimate(model.MealEstimate(b.Totals))
		}
		if math.Abs(buckets.Calories-sum.Calories) > 1e-9 || math.Abs(buckets.ProteinG-sum.ProteinG) > 1e-9 ||
			math.Abs(buckets.FatG-sum.FatG) > 1e-9 || math.Abs(buckets.CarbsG-sum.CarbsG) > 1e-9 {
			t.Fatalf("after meal %d: bucket sum %+v differs from totals %+v", i, buckets, sum)
		}
	}

	got := tl.MealTypeTotals()
	wantOrder := []model.MealType{model.MealBreakfast, model.MealLunch, model.MealSnack, model.MealUnknown, model.MealOther}
	if len(got) != len(wantOrder) {
		t.Fatalf("expected %d buckets, got %+v", len(wantOrder), got)
	}
	for i, mt := range wantOrder {
		if got[i].MealType != mt {
			t.Fatalf("bucket %d: expected %s, got %s", i, mt, got[i].MealType)
		}
	}
	if tl.Meals()[0].ID != "meal-1" {
		t.Fatalf("expected injected id, got %q", tl.Meals()[0].ID)
	}
}

func TestLogMealPropagatesAnomalies(t *testing.T) {
	t.Parallel()
	tl := newTestLedger(t, ledger.RolloverMidnight)
	tl.LogMeal(model.MealEstimate{Calories: -50, ProteinG: 1}, model.MealDinner)
	if tl.Totals().Calories != -50 {
		t.Fatalf("expected negative calories to propagate, got %v", tl.Totals().Calories)
	}
}

func TestCalorieLatchFiresOnceOnThirdMeal(t *testing.T) {
	t.Parallel()
	tl := newTestLedger(t, ledger.RolloverMidnight)
	setCalorieTarget(t, tl.Ledger, 2000)

	for i, kcal := range []float64{500, 700, 900} {
		tl.LogMeal(model.MealEstimate{Calories: kcal}, model.MealLunch)
		want := 0
		if i == 2 {
			want = 1
		}
		if len(tl.notifier.messages) != want {
			t.Fatalf("after meal %d: expected %d notifications, got %v", i+1, want, tl.notifier.messages)
		}
	}
	for i := 0; i < 5; i++ {
		tl.LogMeal(model.MealEstimate{Calories: 100}, model.MealSnack)
	}
	if len(tl.notifier.messages) != 1 {
		t.Fatalf("expected latch to suppress repeats, got %v", tl.notifier.messages)
	}
	if !tl.CalorieAlertFired() {
		t.Fatalf("expected latch to report fired")
	}
}

func TestCalorieLatchRearmsOnProfileChangeAndReset(t *testing.T) {
	t.Parallel()
	tl := newTestLedger(t, ledger.RolloverMidnight)
	setCalorieTarget(t, tl.Ledger, 1000)
	tl.LogMeal(model.MealEstimate{Calories: 1200}, model.MealLunch)
	if len(tl.notifier.messages) != 1 {
		t.Fatalf("expected first notification, got %v", tl.notifier.messages)
	}

	setCalorieTarget(t, tl.Ledger, 1100)
	tl.LogMeal(model.MealEstimate{Calories: 10}, model.MealSnack)
	if len(tl.notifier.messages) != 2 {
		t.Fatalf("expected re-armed latch to fire after profile change, got %v", tl.notifier.messages)
	}

	tl.Reset()
	if tl.CalorieAlertFired() {
		t.Fatalf("expected reset to re-arm latch")
	}
	tl.LogMeal(model.MealEstimate{Calories: 1500}, model.MealDinner)
	if len(tl.notifier.messages) != 3 {
		t.Fatalf("expected notification after reset, got %v", tl.notifier.messages)
	}
}

func TestCalorieLatchSilentWithoutTarget(t *testing.T) {
	t.Parallel()
	tl := newTestLedger(t, ledger.RolloverMidnight)
	tl.LogMeal(model.MealEstimate{Calories: 9000}, model.MealDinner)
	if len(tl.notifier.messages) != 0 {
		t.Fatalf("expected no notification without target, got %v", tl.notifier.messages)
	}
}

func TestSetProfileRejectsInvalidAndKeepsState(t *testing.T) {
	t.Parallel()
	tl := newTestLedger(t, ledger.RolloverMidnight)
	if _, err := tl.SetProfile(referenceProfile()); err != nil {
		t.Fatalf("set profile: %v", err)
	}
	before := tl.Target()

	_, err := tl.SetProfile(model.Profile{Age: 30, WeightKg: 0, HeightCm: 170, ActivityMultiplier: 1.2, Goal: model.GoalLoss})
	if !errors.Is(err, ledger.ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
	if *tl.Target() != *before || tl.Profile().WeightKg != 70 {
		t.Fatalf("expected state untouched after invalid profile")
	}
}

func TestMidnightRolloverArchivesDay(t *testing.T) {
	t.Parallel()
	tl := newTestLedger(t, ledger.RolloverMidnight)
	setCalorieTarget(t, tl.Ledger, 1000)
	tl.LogMeal(model.MealEstimate{Calories: 1200}, model.MealDinner)

	tl.clock.Advance(20 * time.Hour)
	tl.LogMeal(model.MealEstimate{Calories: 300}, model.MealBreakfast)

	if tl.Day() != "2026-03-11" {
		t.Fatalf("expected rollover to 2026-03-11, got %s", tl.Day())
	}
	if tl.Totals().Calories != 300 || len(tl.Meals()) != 1 {
		t.Fatalf("expected only the new day's meal in totals, got %+v (%d meals)", tl.Totals(), len(tl.Meals()))
	}
	if len(tl.History()) != 2 {
		t.Fatalf("expected history to retain both meals, got %d", len(tl.History()))
	}
	if tl.CalorieAlertFired() {
		t.Fatalf("expected latch to re-arm on rollover")
	}
}

func TestManualRolloverNeverResets(t *testing.T) {
	t.Parallel()
	tl := newTestLedger(t, ledger.RolloverManual)
	tl.LogMeal(model.MealEstimate{Calories: 400}, model.MealLunch)
	tl.clock.Advance(72 * time.Hour)
	if tl.RolloverIfDue() {
		t.Fatalf("manual policy must not roll over")
	}
	tl.LogMeal(model.MealEstimate{Calories: 100}, model.MealLunch)
	if tl.Totals().Calories != 500 {
		t.Fatalf("expected accumulated totals under manual policy, got %v", tl.Totals().Calories)
	}
}

func TestCloseDayArchivesUnderManualPolicy(t *testing.T) {
	t.Parallel()
	tl := newTestLedger(t, ledger.RolloverManual)
	setCalorieTarget(t, tl.Ledger, 300)
	tl.LogMeal(model.MealEstimate{Calories: 400}, model.MealDinner)
	if !tl.CalorieAlertFired() {
		t.Fatalf("expected latch to fire before closing the day")
	}
	tl.clock.Advance(30 * time.Hour)

	tl.CloseDay()
	if tl.Day() != "2026-03-11" || len(tl.Meals()) != 0 || tl.Totals() != (model.Totals{}) {
		t.Fatalf("expected a fresh day, got %s with %d meals", tl.Day(), len(tl.Meals()))
	}
	if len(tl.History()) != 1 || tl.CalorieAlertFired() {
		t.Fatalf("expected archived meal and re-armed latch")
	}
}

func TestResetClearsHistoryKeepsProfile(t *testing.T) {
	t.Parallel()
	tl := newTestLedger(t, ledger.RolloverMidnight)
	setCalorieTarget(t, tl.Ledger, 2000)
	tl.LogMeal(model.MealEstimate{Calories: 400}, model.MealLunch)
	tl.clock.Advance(24 * time.Hour)
	tl.LogMeal(model.MealEstimate{Calories: 100}, model.MealLunch)

	tl.Reset()
	if len(tl.History()) != 0 || tl.Totals() != (model.Totals{}) || len(tl.MealTypeTotals()) != 0 {
		t.Fatalf("expected empty ledger after reset")
	}
	if tl.Target() == nil {
		t.Fatalf("expected profile and target to survive reset")
	}
}

func TestCheckIdle(t *testing.T) {
	t.Parallel()
	tl := newTestLedger(t, ledger.RolloverManual)
	if tl.CheckIdle() {
		t.Fatalf("expected no reminder without a logged meal")
	}
	tl.LogMeal(model.MealEstimate{Calories: 400}, model.MealLunch)

	tl.clock.Advance(4 * time.Hour)
	if tl.CheckIdle() {
		t.Fatalf("expected no reminder at exactly the threshold")
	}
	tl.clock.Advance(time.Minute)
	if !tl.CheckIdle() || len(tl.notifier.messages) != 1 {
		t.Fatalf("expected one idle reminder, got %v", tl.notifier.messages)
	}

	tl.notifier.granted = false
	tl.notifier.messages = nil
	if tl.CheckIdle() || len(tl.notifier.messages) != 0 {
		t.Fatalf("expected no reminder without permission")
	}
}

func TestStatusRemaining(t *testing.T) {
	t.Parallel()
	tl := newTestLedger(t, ledger.RolloverMidnight)
	st := tl.Status()
	if st.Target != nil || st.Remaining != nil || len(st.Tips) != 0 {
		t.Fatalf("expected empty status without profile, got %+v", st)
	}

	if _, err := tl.SetProfile(referenceProfile()); err != nil {
		t.Fatalf("set profile: %v", err)
	}
	tl.LogMeal(model.MealEstimate{Calories: 555.5625, ProteinG: 26, FatG: 13, CarbsG: 71}, model.MealLunch)
	st = tl.Status()
	if st.Remaining == nil || math.Abs(st.Remaining.Calories-2000) > 1e-6 || st.Remaining.ProteinG != 100 {
		t.Fatalf("unexpected remaining budget: %+v", st.Remaining)
	}
	if st.MealCount != 1 || st.LastMealAt == nil {
		t.Fatalf("unexpected meal bookkeeping: %+v", st)
	}
}
