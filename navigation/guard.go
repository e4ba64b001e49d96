package navigation

import (
	"context"
	"fmt"
)

// State is the outcome of a guard evaluation
type State int

const (
	Allowed State = iota
	Redirected
)

func (s State) String() string {
	switch s {
	case Allowed:
		return "allowed"
	case Redirected:
		return "redirected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SessionChecker reports whether a session record is present
type SessionChecker interface {
	Check(ctx context.Context) (bool, error)
}

// Decision is what the guard decided for one navigation attempt
type Decision struct {
	State  State
	Target string // Where navigation ends up: the resolved path or the fallback
	Match  Match  // The requested route, as resolved
}

// Guard gates navigation on session presence
type Guard struct {
	table *Table
}

func NewGuard(table *Table) *Guard {
	return &Guard{table: table}
}

func (g *Guard) Table() *Table {
	return g.table
}

// Evaluate decides a single navigation attempt. Nothing is cached between calls. The session is
// only consulted when the resolved route, or one of its ancestors, requires authentication; a nil
// session counts as signed out.
func (g *Guard) Evaluate(ctx context.Context, path string, session SessionChecker) (Decision, error) {
	match, err := g.table.Resolve(path)
	if err != nil {
		return Decision{}, err
	}

	if match.RequiresAuth() {
		authenticated := false
		if session != nil {
			authenticated, err = session.Check(ctx)
			if err != nil {
				return Decision{}, fmt.Errorf("[Guard Evaluate] session check: %w", err)
			}
		}
		if !authenticated {
			return Decision{State: Redirected, Target: g.table.Fallback(), Match: match}, nil
		}
	}

	return Decision{State: Allowed, Target: match.Path, Match: match}, nil
}
