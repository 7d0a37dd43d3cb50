package aggregate

// ComputeMatchStats computes the mirrored per-side outcome stats for a final
// match from its finish type, score and the configured points table.
//
// The status must be FINISHED or FORFEITED; computing stats for a non-final
// match is a caller bug and fails with InvalidStateError. An equal score with
// a decisive finish type (OVERTIME, SHOOTOUT) fails with ValidationError.
// FORFEITED matches are scored from the recorded technical result using the
// table's forfeit entries; a table without them fails with ConfigurationError.
func ComputeMatchStats(status, finishType string, table *StandingsSettings, homeScore, awayScore int) (*MatchOutcome, error) {
	if table == nil {
		return nil, &ConfigurationError{Setting: "standingsSettings", Message: "points table is required"}
	}
	if homeScore < 0 || awayScore < 0 {
		return nil, &ValidationError{Field: "score", Message: "scores must be non-negative"}
	}
	if status != StatusFinished && status != StatusForfeited {
		return nil, &InvalidStateError{
			Status:  status,
			Message: "match stats require status FINISHED or FORFEITED",
		}
	}

	out := &MatchOutcome{
		Home: TeamStats{GamePlayed: 1, GoalsFor: homeScore, GoalsAgainst: awayScore},
		Away: TeamStats{GamePlayed: 1, GoalsFor: awayScore, GoalsAgainst: homeScore},
	}

	if status == StatusForfeited {
		if table.PointsWinForfeit == nil || table.PointsLossForfeit == nil {
			return nil, &ConfigurationError{
				Setting: "pointsWinForfeit/pointsLossForfeit",
				Message: "no forfeit entry configured",
			}
		}
		if homeScore == awayScore {
			return nil, &ValidationError{
				Field:   "score",
				Message: "forfeited match requires a technical result with a winner",
			}
		}
		if homeScore > awayScore {
			out.Home.Win = 1
			out.Home.Points = *table.PointsWinForfeit
			out.Away.Loss = 1
			out.Away.Points = *table.PointsLossForfeit
		} else {
			out.Away.Win = 1
			out.Away.Points = *table.PointsWinForfeit
			out.Home.Loss = 1
			out.Home.Points = *table.PointsLossForfeit
		}
		return out, nil
	}

	switch finishType {
	case FinishRegular:
		switch {
		case homeScore > awayScore:
			out.Home.Win = 1
			out.Home.Points = table.PointsWinReg
			out.Away.Loss = 1
			out.Away.Points = table.PointsLossReg
		case homeScore < awayScore:
			out.Away.Win = 1
			out.Away.Points = table.PointsWinReg
			out.Home.Loss = 1
			out.Home.Points = table.PointsLossReg
		default:
			out.Home.Draw = 1
			out.Home.Points = table.PointsDrawReg
			out.Away.Draw = 1
			out.Away.Points = table.PointsDrawReg
		}
	case FinishOvertime:
		if homeScore == awayScore {
			return nil, &ValidationError{
				Field:   "finishType",
				Message: "equal score with finish type OVERTIME",
			}
		}
		if homeScore > awayScore {
			out.Home.OTWin = 1
			out.Home.Points = table.PointsWinOvertime
			out.Away.OTLoss = 1
			out.Away.Points = table.PointsLossOvertime
		} else {
			out.Away.OTWin = 1
			out.Away.Points = table.PointsWinOvertime
			out.Home.OTLoss = 1
			out.Home.Points = table.PointsLossOvertime
		}
	case FinishShootout:
		if homeScore == awayScore {
			return nil, &ValidationError{
				Field:   "finishType",
				Message: "equal score with finish type SHOOTOUT",
			}
		}
		if homeScore > awayScore {
			out.Home.SOWin = 1
			out.Home.Points = table.PointsWinShootout
			out.Away.SOLoss = 1
			out.Away.Points = table.PointsLossShootout
		} else {
			out.Away.SOWin = 1
			out.Away.Points = table.PointsWinShootout
			out.Home.SOLoss = 1
			out.Home.Points = table.PointsLossShootout
		}
	default:
		return nil, &ValidationError{
			Field:   "finishType",
			Message: "unknown finish type " + finishType,
		}
	}

	return out, nil
}
