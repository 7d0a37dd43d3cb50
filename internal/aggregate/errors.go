package aggregate

import "fmt"

// ValidationError reports malformed or contradictory input, such as an equal
// score combined with a decisive finish type. Never retried automatically.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InvalidStateError reports an operation attempted on a match in the wrong
// lifecycle state.
type InvalidStateError struct {
	MatchID string
	Status  string
	Message string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("match %s in status %s: %s", e.MatchID, e.Status, e.Message)
}

// RosterConsistencyError reports a score or penalty event referencing a
// player missing from the roster. This is upstream data corruption; the
// owning write must surface it, bulk aggregation downgrades it to a skip.
type RosterConsistencyError struct {
	MatchID  string
	Side     Side
	PlayerID string
	EventID  string
	Event    string
}

func (e *RosterConsistencyError) Error() string {
	return fmt.Sprintf("match %s %s: %s event %s references player %s not in roster",
		e.MatchID, e.Side, e.Event, e.EventID, e.PlayerID)
}

// ConfigurationError reports a missing required points-table entry. A setup
// bug, not a data bug; always a hard failure.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("standings settings %s: %s", e.Setting, e.Message)
}
