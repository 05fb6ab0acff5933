package desk

import (
	"golang.org/x/sync/semaphore"

	"github.com/max00189xp/homework/internal/config"
)

// flightGuard lets at most one request per scope run. A shared guard puts
// both forms in one scope.
type flightGuard struct {
	slots map[Form]*semaphore.Weighted
}

func newFlightGuard(scope string) *flightGuard {
	if scope == config.GuardPerForm {
		return &flightGuard{slots: map[Form]*semaphore.Weighted{
			FormSubmit: semaphore.NewWeighted(1),
			FormQuery:  semaphore.NewWeighted(1),
		}}
	}
	shared := semaphore.NewWeighted(1)
	return &flightGuard{slots: map[Form]*semaphore.Weighted{
		FormSubmit: shared,
		FormQuery:  shared,
	}}
}

// tryAcquire never waits: a busy scope means the event is dropped.
func (g *flightGuard) tryAcquire(form Form) bool {
	return g.slots[form].TryAcquire(1)
}

func (g *flightGuard) release(form Form) {
	g.slots[form].Release(1)
}
