package aggregate

// RecomputeRosterStats rebuilds every roster player's goals, assists, points
// and penalty minutes for one side of a match from that side's score and
// penalty sheets. It always recomputes from scratch rather than patching, so
// repeated invocation cannot drift.
//
// The input match is not modified; the rebuilt roster is returned for the
// caller to persist. An event referencing a player missing from the roster
// fails with RosterConsistencyError naming the player and event.
func RecomputeRosterStats(m *Match, side Side) ([]RosterPlayer, error) {
	team := m.Team(side)

	roster := make([]RosterPlayer, len(team.Roster))
	copy(roster, team.Roster)

	index := make(map[string]*RosterPlayer, len(roster))
	for i := range roster {
		roster[i].Goals = 0
		roster[i].Assists = 0
		roster[i].Points = 0
		roster[i].PenaltyMinutes = 0
		index[roster[i].Player.PlayerID] = &roster[i]
	}

	for _, score := range team.Scores {
		scorer, ok := index[score.GoalPlayer.PlayerID]
		if !ok {
			return nil, &RosterConsistencyError{
				MatchID:  m.ID,
				Side:     side,
				PlayerID: score.GoalPlayer.PlayerID,
				EventID:  score.ID,
				Event:    "score",
			}
		}
		scorer.Goals++

		if score.AssistPlayer != nil && score.AssistPlayer.PlayerID != "" {
			assister, ok := index[score.AssistPlayer.PlayerID]
			if !ok {
				return nil, &RosterConsistencyError{
					MatchID:  m.ID,
					Side:     side,
					PlayerID: score.AssistPlayer.PlayerID,
					EventID:  score.ID,
					Event:    "assist",
				}
			}
			assister.Assists++
		}
	}

	for _, penalty := range team.Penalties {
		offender, ok := index[penalty.PenaltyPlayer.PlayerID]
		if !ok {
			return nil, &RosterConsistencyError{
				MatchID:  m.ID,
				Side:     side,
				PlayerID: penalty.PenaltyPlayer.PlayerID,
				EventID:  penalty.ID,
				Event:    "penalty",
			}
		}
		offender.PenaltyMinutes += penalty.PenaltyMinutes
	}

	for i := range roster {
		roster[i].Points = roster[i].Goals + roster[i].Assists
	}

	return roster, nil
}
