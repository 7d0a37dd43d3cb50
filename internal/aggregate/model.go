package aggregate

import (
	"time"
)

// Match lifecycle states. Stats are only ever computed for FINISHED and
// FORFEITED matches; everything else is a caller error.
const (
	StatusScheduled  = "SCHEDULED"
	StatusInProgress = "INPROGRESS"
	StatusFinished   = "FINISHED"
	StatusForfeited  = "FORFEITED"
	StatusCancelled  = "CANCELLED"
)

// Finish types describe how a decided match ended.
const (
	FinishRegular  = "REGULAR"
	FinishOvertime = "OVERTIME"
	FinishShootout = "SHOOTOUT"
)

const (
	// PlayUpThreshold is the number of counted called-up appearances for the
	// same (fromTeam, toTeam) pair that triggers a one-time promotion.
	PlayUpThreshold = 5

	// StreakLength caps the W/L/D streak kept per standings row.
	StreakLength = 5
)

// KeyValue is the key/display pair the match documents use for enumerated
// fields (matchStatus, finishType).
type KeyValue struct {
	Key   string `bson:"key" json:"key"`
	Value string `bson:"value" json:"value"`
}

// Ref is a name/alias pair referencing a tournament, season, round or
// matchday from a match document.
type Ref struct {
	Name  string `bson:"name" json:"name"`
	Alias string `bson:"alias" json:"alias"`
}

// TeamRef identifies a team inside roster play-up bookkeeping.
type TeamRef struct {
	TeamID    string `bson:"teamId,omitempty" json:"teamId,omitempty"`
	TeamAlias string `bson:"teamAlias" json:"teamAlias"`
	Name      string `bson:"name" json:"name"`
}

// EventPlayer identifies a player inside a score, penalty or roster entry.
type EventPlayer struct {
	PlayerID     string `bson:"playerId" json:"playerId"`
	FirstName    string `bson:"firstName" json:"firstName"`
	LastName     string `bson:"lastName" json:"lastName"`
	JerseyNumber int    `bson:"jerseyNumber" json:"jerseyNumber"`
}

// RosterPlayer is one entry of a team's match roster, carrying the per-match
// scoring line plus the called-up flag for players borrowed from a lower team.
type RosterPlayer struct {
	Player         EventPlayer `bson:"player" json:"player"`
	PassNumber     string      `bson:"passNumber" json:"passNumber"`
	Goals          int         `bson:"goals" json:"goals"`
	Assists        int         `bson:"assists" json:"assists"`
	Points         int         `bson:"points" json:"points"`
	PenaltyMinutes int         `bson:"penaltyMinutes" json:"penaltyMinutes"`
	Called         bool        `bson:"called" json:"called"`
	CalledFromTeam *TeamRef    `bson:"calledFromTeam,omitempty" json:"calledFromTeam,omitempty"`
}

// ScoreEvent is one goal: scorer, optional assister, match time in seconds.
type ScoreEvent struct {
	ID           string       `bson:"_id" json:"id"`
	MatchSeconds int          `bson:"matchSeconds" json:"matchSeconds"`
	GoalPlayer   EventPlayer  `bson:"goalPlayer" json:"goalPlayer"`
	AssistPlayer *EventPlayer `bson:"assistPlayer,omitempty" json:"assistPlayer,omitempty"`
}

// PenaltyEvent is one infraction with its penalty minutes.
type PenaltyEvent struct {
	ID                string      `bson:"_id" json:"id"`
	MatchSecondsStart int         `bson:"matchSecondsStart" json:"matchSecondsStart"`
	MatchSecondsEnd   *int        `bson:"matchSecondsEnd,omitempty" json:"matchSecondsEnd,omitempty"`
	PenaltyPlayer     EventPlayer `bson:"penaltyPlayer" json:"penaltyPlayer"`
	PenaltyCode       KeyValue    `bson:"penaltyCode" json:"penaltyCode"`
	PenaltyMinutes    int         `bson:"penaltyMinutes" json:"penaltyMinutes"`
	IsGM              bool        `bson:"isGM" json:"isGM"`
	IsMP              bool        `bson:"isMP" json:"isMP"`
}

// TeamStats is one side's outcome figures for a single match. Home and away
// stats are mirror images (one side's goalsFor is the other's goalsAgainst)
// and are always recomputed together.
type TeamStats struct {
	GamePlayed   int `bson:"gamePlayed" json:"gamePlayed"`
	GoalsFor     int `bson:"goalsFor" json:"goalsFor"`
	GoalsAgainst int `bson:"goalsAgainst" json:"goalsAgainst"`
	Points       int `bson:"points" json:"points"`
	Win          int `bson:"win" json:"win"`
	Loss         int `bson:"loss" json:"loss"`
	Draw         int `bson:"draw" json:"draw"`
	OTWin        int `bson:"otWin" json:"otWin"`
	OTLoss       int `bson:"otLoss" json:"otLoss"`
	SOWin        int `bson:"soWin" json:"soWin"`
	SOLoss       int `bson:"soLoss" json:"soLoss"`
}

// MatchTeam is one side of a match document.
type MatchTeam struct {
	TeamID    string         `bson:"teamId,omitempty" json:"teamId,omitempty"`
	TeamAlias string         `bson:"teamAlias" json:"teamAlias"`
	Name      string         `bson:"name" json:"name"`
	FullName  string         `bson:"fullName" json:"fullName"`
	ShortName string         `bson:"shortName" json:"shortName"`
	TinyName  string         `bson:"tinyName" json:"tinyName"`
	Logo      string         `bson:"logo,omitempty" json:"logo,omitempty"`
	Roster    []RosterPlayer `bson:"roster" json:"roster"`
	Scores    []ScoreEvent   `bson:"scores" json:"scores"`
	Penalties []PenaltyEvent `bson:"penalties" json:"penalties"`
	Stats     TeamStats      `bson:"stats" json:"stats"`
}

// Match is the match document as stored, with the two symmetric sides.
type Match struct {
	ID          string     `bson:"_id" json:"id"`
	MatchID     int        `bson:"matchId" json:"matchId"`
	Tournament  Ref        `bson:"tournament" json:"tournament"`
	Season      Ref        `bson:"season" json:"season"`
	Round       Ref        `bson:"round" json:"round"`
	Matchday    Ref        `bson:"matchday" json:"matchday"`
	Home        MatchTeam  `bson:"home" json:"home"`
	Away        MatchTeam  `bson:"away" json:"away"`
	MatchStatus KeyValue   `bson:"matchStatus" json:"matchStatus"`
	FinishType  KeyValue   `bson:"finishType" json:"finishType"`
	StartDate   *time.Time `bson:"startDate,omitempty" json:"startDate,omitempty"`
}

// Side selects one of the two teams of a match.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Team returns the selected side's team.
func (m *Match) Team(side Side) *MatchTeam {
	if side == SideAway {
		return &m.Away
	}
	return &m.Home
}

// Final reports whether the match contributes to standings and player stats.
func (m *Match) Final() bool {
	return m.MatchStatus.Key == StatusFinished || m.MatchStatus.Key == StatusForfeited
}

// MatchOutcome is the pair of mirrored per-side stats produced by
// ComputeMatchStats.
type MatchOutcome struct {
	Home TeamStats
	Away TeamStats
}

// StandingsRow is one team's aggregate across all final matches in a round or
// matchday scope. Rows are recomputed on demand, never patched.
type StandingsRow struct {
	TeamAlias    string   `bson:"teamAlias" json:"teamAlias"`
	FullName     string   `bson:"fullName" json:"fullName"`
	ShortName    string   `bson:"shortName" json:"shortName"`
	TinyName     string   `bson:"tinyName" json:"tinyName"`
	Logo         string   `bson:"logo,omitempty" json:"logo,omitempty"`
	GamesPlayed  int      `bson:"gamesPlayed" json:"gamesPlayed"`
	GoalsFor     int      `bson:"goalsFor" json:"goalsFor"`
	GoalsAgainst int      `bson:"goalsAgainst" json:"goalsAgainst"`
	Points       int      `bson:"points" json:"points"`
	Wins         int      `bson:"wins" json:"wins"`
	Losses       int      `bson:"losses" json:"losses"`
	Draws        int      `bson:"draws" json:"draws"`
	OTWins       int      `bson:"otWins" json:"otWins"`
	OTLosses     int      `bson:"otLosses" json:"otLosses"`
	SOWins       int      `bson:"soWins" json:"soWins"`
	SOLosses     int      `bson:"soLosses" json:"soLosses"`
	Streak       []string `bson:"streak" json:"streak"`
}

// GoalDifference returns goals for minus goals against.
func (r *StandingsRow) GoalDifference() int {
	return r.GoalsFor - r.GoalsAgainst
}

// StatLine is a plain games/goals/assists/points/penalty-minutes accumulator.
type StatLine struct {
	GamesPlayed    int `bson:"gamesPlayed" json:"gamesPlayed"`
	Goals          int `bson:"goals" json:"goals"`
	Assists        int `bson:"assists" json:"assists"`
	Points         int `bson:"points" json:"points"`
	PenaltyMinutes int `bson:"penaltyMinutes" json:"penaltyMinutes"`
}

// PlayUpState is the lifecycle of one (player, fromTeam, toTeam) tracking.
type PlayUpState string

const (
	PlayUpStateTracking PlayUpState = "tracking"
	PlayUpStatePromoted PlayUpState = "promoted"
)

// PlayUpOccurrence marks one called-up appearance. Counted occurrences
// advance the promotion counter; occurrences past the threshold are recorded
// but no longer counted.
type PlayUpOccurrence struct {
	MatchID   string     `bson:"matchId" json:"matchId"`
	Counted   bool       `bson:"counted" json:"counted"`
	StartDate *time.Time `bson:"startDate,omitempty" json:"startDate,omitempty"`
}

// PlayUpTrackingRecord tracks a player's called-up appearances from one team
// to a higher one. Occurrences are keyed by match ID and never duplicated; the
// state flips to promoted exactly once when CountedTotal reaches
// PlayUpThreshold.
type PlayUpTrackingRecord struct {
	FromTeam     TeamRef            `bson:"fromTeam" json:"fromTeam"`
	ToTeam       TeamRef            `bson:"toTeam" json:"toTeam"`
	Occurrences  []PlayUpOccurrence `bson:"occurrences" json:"occurrences"`
	CountedTotal int                `bson:"countedTotal" json:"countedTotal"`
	State        PlayUpState        `bson:"state" json:"state"`
}

// PlayerCardStats is one player's accumulation for a season scope: season
// totals, a per-round breakdown keyed by round alias, and play-up trackings
// keyed by "fromAlias:toAlias".
type PlayerCardStats struct {
	PlayerID       string                           `bson:"playerId" json:"playerId"`
	Season         StatLine                         `bson:"season" json:"season"`
	Rounds         map[string]*StatLine             `bson:"rounds" json:"rounds"`
	PlayUpTracking map[string]*PlayUpTrackingRecord `bson:"playUpTrackings" json:"playUpTrackings"`
}

// NewPlayerCardStats returns a zero-valued card for a player, which is also
// the valid result for a player with no matches in scope.
func NewPlayerCardStats(playerID string) *PlayerCardStats {
	return &PlayerCardStats{
		PlayerID:       playerID,
		Rounds:         make(map[string]*StatLine),
		PlayUpTracking: make(map[string]*PlayUpTrackingRecord),
	}
}

// PromotionEvent signals that a player crossed the play-up threshold. The
// aggregator emits it once per (player, fromTeam, toTeam) transition; applying
// the team reassignment is the caller's job.
type PromotionEvent struct {
	PlayerID string  `json:"playerId"`
	FromTeam TeamRef `json:"fromTeam"`
	ToTeam   TeamRef `json:"toTeam"`
	MatchID  string  `json:"matchId"`
}

// StandingsSettings is the configured points table for a tournament season.
// Forfeit points are optional: a league without them cannot score forfeited
// matches and gets a ConfigurationError instead of a guessed value.
type StandingsSettings struct {
	PointsWinReg       int  `bson:"pointsWinReg" json:"pointsWinReg"`
	PointsLossReg      int  `bson:"pointsLossReg" json:"pointsLossReg"`
	PointsDrawReg      int  `bson:"pointsDrawReg" json:"pointsDrawReg"`
	PointsWinOvertime  int  `bson:"pointsWinOvertime" json:"pointsWinOvertime"`
	PointsLossOvertime int  `bson:"pointsLossOvertime" json:"pointsLossOvertime"`
	PointsWinShootout  int  `bson:"pointsWinShootout" json:"pointsWinShootout"`
	PointsLossShootout int  `bson:"pointsLossShootout" json:"pointsLossShootout"`
	PointsWinForfeit   *int `bson:"pointsWinForfeit,omitempty" json:"pointsWinForfeit,omitempty"`
	PointsLossForfeit  *int `bson:"pointsLossForfeit,omitempty" json:"pointsLossForfeit,omitempty"`
}

// Scope selects the matches an aggregation runs over. Round and matchday are
// optional narrowing filters.
type Scope struct {
	TournamentAlias string
	SeasonAlias     string
	RoundAlias      string
	MatchdayAlias   string
}

// Contains reports whether a match falls inside the scope.
func (s Scope) Contains(m *Match) bool {
	if s.TournamentAlias != "" && m.Tournament.Alias != s.TournamentAlias {
		return false
	}
	if s.SeasonAlias != "" && m.Season.Alias != s.SeasonAlias {
		return false
	}
	if s.RoundAlias != "" && m.Round.Alias != s.RoundAlias {
		return false
	}
	if s.MatchdayAlias != "" && m.Matchday.Alias != s.MatchdayAlias {
		return false
	}
	return true
}

// SkippedItem records one match or player a bulk aggregation left out, with
// the reason. Bulk aggregators return these alongside results so callers can
// report partial failures instead of silently dropping them.
type SkippedItem struct {
	MatchID  string `json:"matchId,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	Reason   string `json:"reason"`
}
