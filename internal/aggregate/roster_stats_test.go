package aggregate

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mstrueby/bishl-backend/internal/assert"
)

func player(id string) EventPlayer {
	return EventPlayer{PlayerID: id, FirstName: "First" + id, LastName: "Last" + id}
}

func rosterMatch() *Match {
	assist := player("p2")
	return &Match{
		ID:          "m1",
		MatchStatus: KeyValue{Key: StatusInProgress},
		Home: MatchTeam{
			TeamAlias: "wolves-1",
			Roster: []RosterPlayer{
				{Player: player("p1"), Goals: 99, Assists: 99, Points: 99, PenaltyMinutes: 99},
				{Player: player("p2")},
				{Player: player("p3")},
			},
			Scores: []ScoreEvent{
				{ID: "s1", GoalPlayer: player("p1"), AssistPlayer: &assist},
				{ID: "s2", GoalPlayer: player("p1")},
				{ID: "s3", GoalPlayer: player("p2")},
			},
			Penalties: []PenaltyEvent{
				{ID: "pen1", PenaltyPlayer: player("p3"), PenaltyMinutes: 2},
				{ID: "pen2", PenaltyPlayer: player("p3"), PenaltyMinutes: 10},
			},
		},
	}
}

func TestRecomputeRosterStats(t *testing.T) {
	m := rosterMatch()
	roster, err := RecomputeRosterStats(m, SideHome)
	assert.NilError(t, err)

	byID := make(map[string]RosterPlayer)
	for _, entry := range roster {
		byID[entry.Player.PlayerID] = entry
	}

	// stale values reset from scratch
	assert.Equal(t, byID["p1"].Goals, 2)
	assert.Equal(t, byID["p1"].Assists, 0)
	assert.Equal(t, byID["p1"].Points, 2)
	assert.Equal(t, byID["p1"].PenaltyMinutes, 0)

	assert.Equal(t, byID["p2"].Goals, 1)
	assert.Equal(t, byID["p2"].Assists, 1)
	assert.Equal(t, byID["p2"].Points, 2)

	assert.Equal(t, byID["p3"].Goals, 0)
	assert.Equal(t, byID["p3"].PenaltyMinutes, 12)
}

func TestRecomputeRosterStatsIdempotent(t *testing.T) {
	m := rosterMatch()
	first, err := RecomputeRosterStats(m, SideHome)
	assert.NilError(t, err)
	second, err := RecomputeRosterStats(m, SideHome)
	assert.NilError(t, err)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated recomputation drifted: %+v vs %+v", first, second)
	}
}

func TestRecomputeRosterStatsDoesNotMutateInput(t *testing.T) {
	m := rosterMatch()
	_, err := RecomputeRosterStats(m, SideHome)
	assert.NilError(t, err)

	// the stale stats on the original roster stay untouched
	assert.Equal(t, m.Home.Roster[0].Goals, 99)
}

func TestRecomputeRosterStatsUnknownPlayers(t *testing.T) {
	t.Run("unknown scorer", func(t *testing.T) {
		m := rosterMatch()
		m.Home.Scores = append(m.Home.Scores, ScoreEvent{ID: "s4", GoalPlayer: player("ghost")})

		_, err := RecomputeRosterStats(m, SideHome)
		var consistency *RosterConsistencyError
		assert.True(t, errors.As(err, &consistency))
		assert.Equal(t, consistency.PlayerID, "ghost")
		assert.Equal(t, consistency.Event, "score")
		assert.Equal(t, consistency.EventID, "s4")
	})

	t.Run("unknown assister", func(t *testing.T) {
		m := rosterMatch()
		ghost := player("ghost")
		m.Home.Scores = append(m.Home.Scores, ScoreEvent{ID: "s4", GoalPlayer: player("p1"), AssistPlayer: &ghost})

		_, err := RecomputeRosterStats(m, SideHome)
		var consistency *RosterConsistencyError
		assert.True(t, errors.As(err, &consistency))
		assert.Equal(t, consistency.Event, "assist")
	})

	t.Run("unknown penalty player", func(t *testing.T) {
		m := rosterMatch()
		m.Home.Penalties = append(m.Home.Penalties, PenaltyEvent{ID: "pen3", PenaltyPlayer: player("ghost"), PenaltyMinutes: 2})

		_, err := RecomputeRosterStats(m, SideHome)
		var consistency *RosterConsistencyError
		assert.True(t, errors.As(err, &consistency))
		assert.Equal(t, consistency.Event, "penalty")
	})
}

func TestRecomputeRosterStatsEmptySide(t *testing.T) {
	m := rosterMatch()
	roster, err := RecomputeRosterStats(m, SideAway)
	assert.NilError(t, err)
	assert.Equal(t, len(roster), 0)
}
