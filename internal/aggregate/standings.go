package aggregate

import (
	"cmp"
	"fmt"
	"slices"
)

// AggregateStandings folds all final matches in scope into a sorted standings
// table. One bad match never aborts the whole table: it is skipped and
// reported in the returned skip list for the caller to log.
//
// Ordering is total: points, then goal difference, then goals for, then the
// head-to-head result when exactly two teams are tied, then team full name.
func AggregateStandings(matches []*Match, scope Scope, table *StandingsSettings) ([]StandingsRow, []SkippedItem) {
	rows := make(map[string]*StandingsRow)
	var order []string
	var skipped []SkippedItem

	// head-to-head net wins per team pair, keyed "winner|loser"
	headToHead := make(map[string]int)

	inScope := filterFinalMatches(matches, scope)

	for _, m := range inScope {
		outcome, err := matchOutcome(m, table)
		if err != nil {
			skipped = append(skipped, SkippedItem{MatchID: m.ID, Reason: err.Error()})
			continue
		}
		if m.Home.FullName == "" || m.Away.FullName == "" {
			skipped = append(skipped, SkippedItem{MatchID: m.ID, Reason: "missing team names"})
			continue
		}

		homeKey := teamKey(&m.Home)
		awayKey := teamKey(&m.Away)
		if _, ok := rows[homeKey]; !ok {
			rows[homeKey] = newStandingsRow(&m.Home)
			order = append(order, homeKey)
		}
		if _, ok := rows[awayKey]; !ok {
			rows[awayKey] = newStandingsRow(&m.Away)
			order = append(order, awayKey)
		}

		foldOutcome(rows[homeKey], &outcome.Home)
		foldOutcome(rows[awayKey], &outcome.Away)

		switch {
		case outcome.Home.GoalsFor > outcome.Away.GoalsFor:
			headToHead[homeKey+"|"+awayKey]++
		case outcome.Away.GoalsFor > outcome.Home.GoalsFor:
			headToHead[awayKey+"|"+homeKey]++
		}
	}

	result := make([]StandingsRow, 0, len(rows))
	for _, key := range order {
		result = append(result, *rows[key])
	}

	sortStandings(result, headToHead)
	return result, skipped
}

// filterFinalMatches keeps FINISHED and FORFEITED matches inside the scope,
// ordered by start date so streaks read oldest to newest.
func filterFinalMatches(matches []*Match, scope Scope) []*Match {
	var final []*Match
	for _, m := range matches {
		if m.Final() && scope.Contains(m) {
			final = append(final, m)
		}
	}
	slices.SortStableFunc(final, func(a, b *Match) int {
		switch {
		case a.StartDate == nil && b.StartDate == nil:
			return cmp.Compare(a.ID, b.ID)
		case a.StartDate == nil:
			return -1
		case b.StartDate == nil:
			return 1
		}
		if c := a.StartDate.Compare(*b.StartDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return final
}

// matchOutcome returns the stored per-side stats if present, computing them
// from the match score otherwise. GamePlayed doubles as the computed marker:
// stats with GamePlayed zero have never been through ComputeMatchStats.
func matchOutcome(m *Match, table *StandingsSettings) (*MatchOutcome, error) {
	if m.Home.Stats.GamePlayed > 0 && m.Away.Stats.GamePlayed > 0 {
		return &MatchOutcome{Home: m.Home.Stats, Away: m.Away.Stats}, nil
	}
	outcome, err := ComputeMatchStats(
		m.MatchStatus.Key, m.FinishType.Key, table,
		m.Home.Stats.GoalsFor, m.Away.Stats.GoalsFor)
	if err != nil {
		return nil, fmt.Errorf("compute stats: %w", err)
	}
	return outcome, nil
}

func teamKey(team *MatchTeam) string {
	if team.TeamAlias != "" {
		return team.TeamAlias
	}
	return team.FullName
}

func newStandingsRow(team *MatchTeam) *StandingsRow {
	return &StandingsRow{
		TeamAlias: team.TeamAlias,
		FullName:  team.FullName,
		ShortName: team.ShortName,
		TinyName:  team.TinyName,
		Logo:      team.Logo,
		Streak:    []string{},
	}
}

func foldOutcome(row *StandingsRow, stats *TeamStats) {
	row.GamesPlayed += stats.GamePlayed
	row.GoalsFor += stats.GoalsFor
	row.GoalsAgainst += stats.GoalsAgainst
	row.Points += stats.Points
	row.Wins += stats.Win
	row.Losses += stats.Loss
	row.Draws += stats.Draw
	row.OTWins += stats.OTWin
	row.OTLosses += stats.OTLoss
	row.SOWins += stats.SOWin
	row.SOLosses += stats.SOLoss

	updateStreak(row, stats)
}

// updateStreak appends the match result letter and keeps the last five.
// Overtime and shootout decisions count as wins and losses here.
func updateStreak(row *StandingsRow, stats *TeamStats) {
	var result string
	switch {
	case stats.Win == 1 || stats.OTWin == 1 || stats.SOWin == 1:
		result = "W"
	case stats.Loss == 1 || stats.OTLoss == 1 || stats.SOLoss == 1:
		result = "L"
	case stats.Draw == 1:
		result = "D"
	default:
		return
	}
	row.Streak = append(row.Streak, result)
	if len(row.Streak) > StreakLength {
		row.Streak = row.Streak[1:]
	}
}

// sortStandings orders rows by points, goal difference and goals for, then
// resolves two-way ties by head-to-head wins and finally by full name. The
// name fallback keeps the order total so the table is reproducible.
func sortStandings(rows []StandingsRow, headToHead map[string]int) {
	slices.SortFunc(rows, func(a, b StandingsRow) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		if c := cmp.Compare(b.GoalDifference(), a.GoalDifference()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.GoalsFor, a.GoalsFor); c != 0 {
			return c
		}
		return cmp.Compare(a.FullName, b.FullName)
	})

	// Head-to-head only applies when exactly two teams share points, goal
	// difference and goals for.
	for i := 0; i+1 < len(rows); i++ {
		a, b := &rows[i], &rows[i+1]
		if !tied(a, b) {
			continue
		}
		if i+2 < len(rows) && tied(b, &rows[i+2]) {
			continue
		}
		if i > 0 && tied(&rows[i-1], a) {
			continue
		}
		aKey, bKey := rowKey(a), rowKey(b)
		if headToHead[bKey+"|"+aKey] > headToHead[aKey+"|"+bKey] {
			rows[i], rows[i+1] = rows[i+1], rows[i]
		}
	}
}

func tied(a, b *StandingsRow) bool {
	return a.Points == b.Points &&
		a.GoalDifference() == b.GoalDifference() &&
		a.GoalsFor == b.GoalsFor
}

func rowKey(r *StandingsRow) string {
	if r.TeamAlias != "" {
		return r.TeamAlias
	}
	return r.FullName
}
