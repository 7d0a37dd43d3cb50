package aggregate

import "slices"

// AggregatePlayerCardStats walks all final matches in scope for a set of
// players and accumulates season totals, a per-round breakdown and play-up
// trackings for called-up appearances.
//
// The aggregation is a full recomputation from the given match set, so
// running it twice over the same input yields identical output: occurrences
// are deduplicated by match ID and counted in match-date order. The prior
// cards carry the promotion state of earlier runs; a pair already promoted
// never emits a second PromotionEvent. Applying a promotion (changing the
// player's team assignment) is the caller's job, never done here.
//
// A player with no matches in scope yields a zero-valued card. A match with
// malformed roster data is skipped for that player and reported in the skip
// list.
func AggregatePlayerCardStats(playerIDs []string, matches []*Match, scope Scope, prior map[string]*PlayerCardStats) (map[string]*PlayerCardStats, []PromotionEvent, []SkippedItem) {
	cards := make(map[string]*PlayerCardStats, len(playerIDs))
	var promotions []PromotionEvent
	var skipped []SkippedItem

	inScope := filterFinalMatches(matches, scope)

	for _, playerID := range playerIDs {
		if _, ok := cards[playerID]; ok {
			continue
		}
		card := NewPlayerCardStats(playerID)
		cards[playerID] = card

		seen := make(map[string]bool)

		for _, m := range inScope {
			if seen[m.ID] {
				continue
			}

			entry, team := findRosterEntry(m, playerID)
			if entry == nil {
				continue
			}
			seen[m.ID] = true

			if m.Round.Alias == "" {
				skipped = append(skipped, SkippedItem{
					MatchID:  m.ID,
					PlayerID: playerID,
					Reason:   "match has no round alias",
				})
				continue
			}
			if entry.Called && entry.CalledFromTeam == nil {
				skipped = append(skipped, SkippedItem{
					MatchID:  m.ID,
					PlayerID: playerID,
					Reason:   "called roster entry without calledFromTeam",
				})
				continue
			}

			accumulate(&card.Season, entry)
			round, ok := card.Rounds[m.Round.Alias]
			if !ok {
				round = &StatLine{}
				card.Rounds[m.Round.Alias] = round
			}
			accumulate(round, entry)

			if entry.Called {
				recordPlayUp(card, m, entry, team)
			}
		}

		promotions = append(promotions, settlePlayUps(card, prior[playerID])...)
	}

	return cards, promotions, skipped
}

func accumulate(line *StatLine, entry *RosterPlayer) {
	line.GamesPlayed++
	line.Goals += entry.Goals
	line.Assists += entry.Assists
	line.Points += entry.Points
	line.PenaltyMinutes += entry.PenaltyMinutes
}

// findRosterEntry locates the player on either roster of the match.
func findRosterEntry(m *Match, playerID string) (*RosterPlayer, *MatchTeam) {
	for _, side := range []Side{SideHome, SideAway} {
		team := m.Team(side)
		for i := range team.Roster {
			if team.Roster[i].Player.PlayerID == playerID {
				return &team.Roster[i], team
			}
		}
	}
	return nil, nil
}

// recordPlayUp appends one called-up occurrence to the (fromTeam, toTeam)
// tracking. Matches arrive in start-date order, so occurrence order is
// deterministic; the counted flags are settled afterwards in settlePlayUps.
func recordPlayUp(card *PlayerCardStats, m *Match, entry *RosterPlayer, team *MatchTeam) {
	toTeam := TeamRef{TeamID: team.TeamID, TeamAlias: team.TeamAlias, Name: team.Name}
	key := entry.CalledFromTeam.TeamAlias + ":" + toTeam.TeamAlias

	tracking, ok := card.PlayUpTracking[key]
	if !ok {
		tracking = &PlayUpTrackingRecord{
			FromTeam: *entry.CalledFromTeam,
			ToTeam:   toTeam,
			State:    PlayUpStateTracking,
		}
		card.PlayUpTracking[key] = tracking
	}

	for _, occ := range tracking.Occurrences {
		if occ.MatchID == m.ID {
			return
		}
	}
	tracking.Occurrences = append(tracking.Occurrences, PlayUpOccurrence{
		MatchID:   m.ID,
		StartDate: m.StartDate,
	})
}

// settlePlayUps assigns counted flags, fixes the counter and state, and emits
// a promotion event for every pair crossing the threshold for the first time.
// Occurrences past the threshold are kept but not counted, so they can never
// re-trigger a promotion.
func settlePlayUps(card *PlayerCardStats, prior *PlayerCardStats) []PromotionEvent {
	var events []PromotionEvent

	keys := make([]string, 0, len(card.PlayUpTracking))
	for key := range card.PlayUpTracking {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		tracking := card.PlayUpTracking[key]
		alreadyPromoted := false
		if prior != nil {
			if pt, ok := prior.PlayUpTracking[key]; ok && pt.State == PlayUpStatePromoted {
				alreadyPromoted = true
			}
		}

		counted := 0
		thresholdMatch := ""
		for i := range tracking.Occurrences {
			if counted < PlayUpThreshold {
				tracking.Occurrences[i].Counted = true
				counted++
				if counted == PlayUpThreshold {
					thresholdMatch = tracking.Occurrences[i].MatchID
				}
			} else {
				tracking.Occurrences[i].Counted = false
			}
		}
		tracking.CountedTotal = counted

		if counted >= PlayUpThreshold || alreadyPromoted {
			tracking.State = PlayUpStatePromoted
		} else {
			tracking.State = PlayUpStateTracking
		}

		if counted >= PlayUpThreshold && !alreadyPromoted {
			events = append(events, PromotionEvent{
				PlayerID: card.PlayerID,
				FromTeam: tracking.FromTeam,
				ToTeam:   tracking.ToTeam,
				MatchID:  thresholdMatch,
			})
		}
	}

	return events
}
