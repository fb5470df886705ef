// ABOUTME: Bounded task group for long-running tool calls within one pass.
// ABOUTME: Units are queued during the pass and launched together at the join.

package agent

import (
	"golang.org/x/sync/errgroup"

	"github.com/2389/coven-swarm/internal/tools"
)

// backgroundOutcome is the result of one unit of background work.
type backgroundOutcome struct {
	origin Origin
	call   tools.ToolCall
	result tools.ToolCallResult
}

// backgroundUnit is queued work and the slot it writes.
type backgroundUnit struct {
	outcome *backgroundOutcome
	run     func() tools.ToolCallResult
}

// backgroundGroup collects units during a pass and runs them concurrently
// at the join point. It is scoped to a single pass.
type backgroundGroup struct {
	group errgroup.Group
	units []backgroundUnit
}

// newBackgroundGroup creates a group running at most limit units at once.
// limit <= 0 means unbounded.
func newBackgroundGroup(limit int) *backgroundGroup {
	bg := &backgroundGroup{}
	if limit > 0 {
		bg.group.SetLimit(limit)
	}
	return bg
}

// queue records run for call. Nothing executes until wait.
func (bg *backgroundGroup) queue(origin Origin, call tools.ToolCall, run func() tools.ToolCallResult) {
	bg.units = append(bg.units, backgroundUnit{
		outcome: &backgroundOutcome{origin: origin, call: call},
		run:     run,
	})
}

// size is the number of units queued.
func (bg *backgroundGroup) size() int {
	return len(bg.units)
}

// wait launches every queued unit, blocks until all have finished and
// returns their outcomes in queue order.
func (bg *backgroundGroup) wait() []*backgroundOutcome {
	outcomes := make([]*backgroundOutcome, 0, len(bg.units))
	for _, unit := range bg.units {
		unit := unit
		outcomes = append(outcomes, unit.outcome)
		bg.group.Go(func() error {
			unit.outcome.result = unit.run()
			return nil
		})
	}
	_ = bg.group.Wait()
	return outcomes
}
