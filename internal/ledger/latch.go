package ledger

import "github.com/saadjs/platelog/internal/model"

type latchState int

const (
	latchArmed latchState = iota
	latchFired
)

// calorieLatch fires at most once between resets, on the first observation of
// totals above the calorie target. Dropping back under target does not re-arm.
type calorieLatch struct {
	state latchState
}

// observe reports whether this observation transitions armed -> fired.
func (l *calorieLatch) observe(totals model.Totals, target *model.DailyTarget) bool {
	if target == nil || l.state == latchFired {
		return false
	}
	if totals.Calories > target.Calories {
		l.state = latchFired
		return true
	}
	return false
}

func (l *calorieLatch) reset() {
	l.state = latchArmed
}

func (l *calorieLatch) fired() bool {
	return l.state == latchFired
}

func (l *calorieLatch) set(fired bool) {
	if fired {
		l.state = latchFired
		return
	}
	l.state = latchArmed
}
