// Package settings models the tournament configuration hierarchy and
// resolves the match-format and points-table settings a match inherits.
package settings

import (
	"github.com/mstrueby/bishl-backend/internal/aggregate"
)

// MatchSettings is the match-format configuration: periods, overtime and
// shootout rules.
type MatchSettings struct {
	NumPeriods        int  `bson:"numPeriods" json:"numPeriods"`
	PeriodLengthMin   int  `bson:"periodLengthMin" json:"periodLengthMin"`
	Overtime          bool `bson:"overtime" json:"overtime"`
	OvertimeLengthMin int  `bson:"overtimeLengthMin,omitempty" json:"overtimeLengthMin,omitempty"`
	Shootout          bool `bson:"shootout" json:"shootout"`
}

// Matchday sits below a round and may carry its own settings and standings.
type Matchday struct {
	Name            string                   `bson:"name" json:"name"`
	Alias           string                   `bson:"alias" json:"alias"`
	CreateStandings bool                     `bson:"createStandings" json:"createStandings"`
	MatchSettings   *MatchSettings           `bson:"matchSettings,omitempty" json:"matchSettings,omitempty"`
	Standings       []aggregate.StandingsRow `bson:"standings,omitempty" json:"standings,omitempty"`
}

// Round sits below a season.
type Round struct {
	Name            string                   `bson:"name" json:"name"`
	Alias           string                   `bson:"alias" json:"alias"`
	CreateStandings bool                     `bson:"createStandings" json:"createStandings"`
	CreateStats     bool                     `bson:"createStats" json:"createStats"`
	MatchSettings   *MatchSettings           `bson:"matchSettings,omitempty" json:"matchSettings,omitempty"`
	Matchdays       []Matchday               `bson:"matchdays" json:"matchdays"`
	Standings       []aggregate.StandingsRow `bson:"standings,omitempty" json:"standings,omitempty"`
}

// Season owns the standings points table for everything beneath it.
type Season struct {
	Name              string                       `bson:"name" json:"name"`
	Alias             string                       `bson:"alias" json:"alias"`
	StandingsSettings *aggregate.StandingsSettings `bson:"standingsSettings,omitempty" json:"standingsSettings,omitempty"`
	MatchSettings     *MatchSettings               `bson:"matchSettings,omitempty" json:"matchSettings,omitempty"`
	Rounds            []Round                      `bson:"rounds" json:"rounds"`
}

// Tournament is the top of the hierarchy as stored.
type Tournament struct {
	ID      string   `bson:"_id" json:"id"`
	Name    string   `bson:"name" json:"name"`
	Alias   string   `bson:"alias" json:"alias"`
	Seasons []Season `bson:"seasons" json:"seasons"`
}

// Season returns the season with the given alias, or nil.
func (t *Tournament) Season(alias string) *Season {
	for i := range t.Seasons {
		if t.Seasons[i].Alias == alias {
			return &t.Seasons[i]
		}
	}
	return nil
}

// Round returns the round with the given alias, or nil.
func (s *Season) Round(alias string) *Round {
	for i := range s.Rounds {
		if s.Rounds[i].Alias == alias {
			return &s.Rounds[i]
		}
	}
	return nil
}

// Matchday returns the matchday with the given alias, or nil.
func (r *Round) Matchday(alias string) *Matchday {
	for i := range r.Matchdays {
		if r.Matchdays[i].Alias == alias {
			return &r.Matchdays[i]
		}
	}
	return nil
}

// Source tags where in the hierarchy a resolved setting came from.
type Source string

const (
	SourceMatch    Source = "match"
	SourceMatchday Source = "matchday"
	SourceRound    Source = "round"
	SourceSeason   Source = "season"
	SourceNone     Source = ""
)

// ResolveMatchSettings walks match, matchday, round, season in that order and
// returns the first settings present plus its source tag. A match-level
// override always wins.
func ResolveMatchSettings(t *Tournament, seasonAlias, roundAlias, matchdayAlias string, override *MatchSettings) (*MatchSettings, Source) {
	if override != nil {
		return override, SourceMatch
	}
	if t == nil {
		return nil, SourceNone
	}
	season := t.Season(seasonAlias)
	if season == nil {
		return nil, SourceNone
	}

	if roundAlias != "" {
		round := season.Round(roundAlias)
		if round != nil && matchdayAlias != "" {
			if matchday := round.Matchday(matchdayAlias); matchday != nil && matchday.MatchSettings != nil {
				return matchday.MatchSettings, SourceMatchday
			}
		}
		if round != nil && round.MatchSettings != nil {
			return round.MatchSettings, SourceRound
		}
	}

	if season.MatchSettings != nil {
		return season.MatchSettings, SourceSeason
	}
	return nil, SourceNone
}

// ResolveStandingsSettings returns the season's points table. A season
// without one cannot have its matches scored, which is a setup bug.
func ResolveStandingsSettings(t *Tournament, seasonAlias string) (*aggregate.StandingsSettings, error) {
	if t == nil {
		return nil, &aggregate.ConfigurationError{
			Setting: "standingsSettings",
			Message: "tournament not found",
		}
	}
	season := t.Season(seasonAlias)
	if season == nil || season.StandingsSettings == nil {
		return nil, &aggregate.ConfigurationError{
			Setting: "standingsSettings",
			Message: "no points table configured for " + t.Alias + "/" + seasonAlias,
		}
	}
	return season.StandingsSettings, nil
}

// CreateStandingsForRound reports whether the round publishes a standings
// table.
func CreateStandingsForRound(t *Tournament, seasonAlias, roundAlias string) bool {
	if t == nil {
		return false
	}
	season := t.Season(seasonAlias)
	if season == nil {
		return false
	}
	round := season.Round(roundAlias)
	return round != nil && round.CreateStandings
}

// CreateStandingsForMatchday reports whether the matchday publishes a
// standings table.
func CreateStandingsForMatchday(t *Tournament, seasonAlias, roundAlias, matchdayAlias string) bool {
	if t == nil {
		return false
	}
	season := t.Season(seasonAlias)
	if season == nil {
		return false
	}
	round := season.Round(roundAlias)
	if round == nil {
		return false
	}
	matchday := round.Matchday(matchdayAlias)
	return matchday != nil && matchday.CreateStandings
}
