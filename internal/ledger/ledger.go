package ledger

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saadjs/platelog/internal/model"
)

// Store is the key/value persistence the ledger serializes itself into.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// TxStore is a Store that can apply several writes atomically. Update commits
// the writes fn makes through its argument only when fn returns nil.
type TxStore interface {
	Store
	Update(fn func(Store) error) error
}

// Notifier delivers local alerts. Notify must never block on user input and
// may drop the message when permission is missing.
type Notifier interface {
	Notify(message string)
	Granted() bool
}

type Logger interface {
	Printf(format string, v ...any)
}

type RolloverPolicy string

const (
	RolloverMidnight RolloverPolicy = "midnight"
	RolloverManual   RolloverPolicy = "manual"
)

func ParseRolloverPolicy(value string) (RolloverPolicy, error) {
	switch p := RolloverPolicy(strings.TrimSpace(strings.ToLower(value))); p {
	case "":
		return RolloverMidnight, nil
	case RolloverMidnight, RolloverManual:
		return p, nil
	}
	return "", fmt.Errorf("invalid rollover policy %q (use midnight or manual)", value)
}

const DefaultIdleThreshold = 4 * time.Hour

type Options struct {
	Store         Store
	Notifier      Notifier
	Logger        Logger
	Now           func() time.Time
	NewID         func() string
	Rollover      RolloverPolicy
	IdleThreshold time.Duration
}

type BucketTotals struct {
	MealType model.MealType `json:"meal_type"`
	model.Totals
}

// Ledger owns the profile, today's meals and running totals. It is not safe
// for concurrent use; every method runs to completion synchronously.
type Ledger struct {
	store         Store
	notifier      Notifier
	logger        Logger
	now           func() time.Time
	newID         func() string
	rollover      RolloverPolicy
	idleThreshold time.Duration

	profile    *model.Profile
	target     *model.DailyTarget
	day        string
	totals     model.Totals
	meals      []model.MealRecord
	buckets    map[model.MealType]model.Totals
	history    []model.MealRecord
	lastMealAt time.Time
	latch      calorieLatch

	persistDisabled bool
}

func New(opts Options) *Ledger {
	l := &Ledger{
		store:         opts.Store,
		notifier:      opts.Notifier,
		logger:        opts.Logger,
		now:           opts.Now,
		newID:         opts.NewID,
		rollover:      opts.Rollover,
		idleThreshold: opts.IdleThreshold,
		buckets:       map[model.MealType]model.Totals{},
	}
	if l.notifier == nil {
		l.notifier = nopNotifier{}
	}
	if l.logger == nil {
		l.logger = log.New(io.Discard, "", 0)
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.newID == nil {
		l.newID = uuid.NewString
	}
	if l.rollover == "" {
		l.rollover = RolloverMidnight
	}
	if l.idleThreshold <= 0 {
		l.idleThreshold = DefaultIdleThreshold
	}
	l.day = dayKey(l.now())
	return l
}

// StartSession runs the once-per-session boundary checks: day rollover and
// the idle-meal reminder. It reports whether a reminder was sent.
func (l *Ledger) StartSession() bool {
	l.RolloverIfDue()
	return l.CheckIdle()
}

// SetProfile replaces the profile and recomputes the target. The calorie
// latch re-arms because the threshold it guards has moved.
func (l *Ledger) SetProfile(p model.Profile) (model.DailyTarget, error) {
	p.Name = strings.TrimSpace(p.Name)
	target, err := ComputeTarget(p)
	if err != nil {
		return model.DailyTarget{}, err
	}
	l.profile = &p
	l.target = &target
	l.latch.reset()
	l.persist()
	return target, nil
}

// LogMeal records one predicted meal and updates every running sum. Estimates
// are taken as-is, including negative or NaN values.
func (l *Ledger) LogMeal(est model.MealEstimate, mealType model.MealType) model.MealRecord {
	l.RolloverIfDue()
	now := l.now()
	mt := model.ParseMealType(string(mealType))
	rec := model.MealRecord{
		ID:        l.newID(),
		Timestamp: now,
		MealType:  mt,
		Calories:  est.Calories,
		ProteinG:  est.ProteinG,
		FatG:      est.FatG,
		CarbsG:    est.CarbsG,
	}
	l.meals = append(l.meals, rec)
	l.totals.AddEstimate(est)
	bucket := l.buckets[mt]
	bucket.AddEstimate(est)
	l.buckets[mt] = bucket
	l.lastMealAt = now

	if l.latch.observe(l.totals, l.target) {
		l.notifier.Notify(fmt.Sprintf("Daily calorie limit exceeded: %.0f / %.0f kcal", l.totals.Calories, l.target.Calories))
	}
	l.persist()
	return rec
}

// RolloverIfDue closes the current day when the clock has moved past it and
// the policy is midnight. Closed-day meals move into the retained history.
func (l *Ledger) RolloverIfDue() bool {
	if l.rollover != RolloverMidnight || dayKey(l.now()) == l.day {
		return false
	}
	l.CloseDay()
	return true
}

// CloseDay archives the current day's meals into history and opens a fresh
// day. Under the manual policy this is the only way a day ends without
// discarding its meals.
func (l *Ledger) CloseDay() {
	l.history = append(l.history, l.meals...)
	l.clearDay(dayKey(l.now()))
	l.persist()
}

// Reset clears today's totals and the whole retained history. The profile and
// last-meal timestamp survive.
func (l *Ledger) Reset() {
	l.history = nil
	l.clearDay(dayKey(l.now()))
	l.persist()
}

func (l *Ledger) clearDay(day string) {
	l.day = day
	l.totals = model.Totals{}
	l.meals = nil
	l.buckets = map[model.MealType]model.Totals{}
	l.latch.reset()
}

// CheckIdle fires a reminder when the last logged meal is older than the idle
// threshold. Reminders are only sent when permission was already granted.
func (l *Ledger) CheckIdle() bool {
	if l.lastMealAt.IsZero() || !l.notifier.Granted() {
		return false
	}
	gap := l.now().Sub(l.lastMealAt)
	if gap <= l.idleThreshold {
		return false
	}
	l.notifier.Notify(fmt.Sprintf("No meal logged for %s. Time to eat?", gap.Truncate(time.Minute)))
	return true
}

func (l *Ledger) Profile() *model.Profile {
	if l.profile == nil {
		return nil
	}
	p := *l.profile
	return &p
}

func (l *Ledger) Target() *model.DailyTarget {
	if l.target == nil {
		return nil
	}
	t := *l.target
	return &t
}

func (l *Ledger) Day() string { return l.day }

func (l *Ledger) Totals() model.Totals { return l.totals }

func (l *Ledger) LastMealAt() time.Time { return l.lastMealAt }

func (l *Ledger) CalorieAlertFired() bool { return l.latch.fired() }

// Meals returns today's records in logging order.
func (l *Ledger) Meals() []model.MealRecord {
	return append([]model.MealRecord(nil), l.meals...)
}

// History returns every retained record, closed days first, then today.
func (l *Ledger) History() []model.MealRecord {
	out := make([]model.MealRecord, 0, len(l.history)+len(l.meals))
	out = append(out, l.history...)
	return append(out, l.meals...)
}

// MealTypeTotals lists the buckets used today in canonical order.
func (l *Ledger) MealTypeTotals() []BucketTotals {
	out := make([]BucketTotals, 0, len(l.buckets))
	for _, mt := range model.MealTypes {
		if t, ok := l.buckets[mt]; ok {
			out = append(out, BucketTotals{MealType: mt, Totals: t})
		}
	}
	return out
}

func (l *Ledger) Tips() []model.Tip {
	return AdviseTips(l.totals, l.target)
}

func (l *Ledger) Summary() model.Summary {
	return Summarize(l.History())
}

type Status struct {
	Day        string             `json:"day"`
	Profile    *model.Profile     `json:"profile,omitempty"`
	Target     *model.DailyTarget `json:"target,omitempty"`
	Totals     model.Totals       `json:"totals"`
	Remaining  *model.Totals      `json:"remaining,omitempty"`
	ByMealType []BucketTotals     `json:"by_meal_type"`
	MealCount  int                `json:"meal_count"`
	Tips       []model.Tip        `json:"tips"`
	LastMealAt *time.Time         `json:"last_meal_at,omitempty"`
}

func (l *Ledger) Status() Status {
	st := Status{
		Day:        l.day,
		Profile:    l.Profile(),
		Target:     l.Target(),
		Totals:     l.totals,
		ByMealType: l.MealTypeTotals(),
		MealCount:  len(l.meals),
		Tips:       l.Tips(),
	}
	if l.target != nil {
		st.Remaining = &model.Totals{
			Calories: l.target.Calories - l.totals.Calories,
			ProteinG: l.target.ProteinG - l.totals.ProteinG,
			FatG:     l.target.FatG - l.totals.FatG,
			CarbsG:   l.target.CarbsG - l.totals.CarbsG,
		}
	}
	if !l.lastMealAt.IsZero() {
		t := l.lastMealAt
		st.LastMealAt = &t
	}
	return st
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

func (nopNotifier) Granted() bool { return false }
