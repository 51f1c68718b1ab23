package dashboard

// GuardState is the phase of the pause confirmation guard.
type GuardState int

// Guard phases. There is no transition from GuardIdle straight to GuardExecuting.
const (
	GuardIdle GuardState = iota
	GuardPending
	GuardExecuting
)

func (s GuardState) String() string {
	switch s {
	case GuardPending:
		return "pending"
	case GuardExecuting:
		return "executing"
	default:
		return "idle"
	}
}

// PauseGuard holds at most one pause target waiting for confirmation.
type PauseGuard struct {
	state  GuardState
	target string
}

// State returns the current phase.
func (g *PauseGuard) State() GuardState { return g.state }

// Target returns the adset id that is pending or executing, or "".
func (g *PauseGuard) Target() string { return g.target }

// Pending reports whether a target is waiting for confirmation.
func (g *PauseGuard) Pending() bool { return g.state == GuardPending }

// Select marks id for pausing and asks for confirmation. A later Select
// replaces an earlier pending target. Returns false while a pause is executing
// or when id is empty.
func (g *PauseGuard) Select(id string) bool {
	if id == "" || g.state == GuardExecuting {
		return false
	}
	g.state = GuardPending
	g.target = id
	return true
}

// Cancel drops the pending target.
func (g *PauseGuard) Cancel() {
	if g.state != GuardPending {
		return
	}
	g.state = GuardIdle
	g.target = ""
}

// Confirm moves a pending target to executing and returns it. The caller
// sends the pause command for the returned id and then calls Finish.
func (g *PauseGuard) Confirm() (string, bool) {
	if g.state != GuardPending {
		return "", false
	}
	g.state = GuardExecuting
	return g.target, true
}

// Finish returns to idle after the pause call, whatever its outcome.
func (g *PauseGuard) Finish() {
	if g.state != GuardExecuting {
		return
	}
	g.state = GuardIdle
	g.target = ""
}
