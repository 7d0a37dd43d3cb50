package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mstrueby/bishl-backend/internal/aggregate"
)

// DerivedWriter persists everything the aggregation core derives: per-match
// stats and rosters, standings tables on the tournament document, and player
// card stats. Writes that belong to one logical operation go out as a single
// update so a concurrent reader never sees a roster without its stats.
type DerivedWriter struct {
	matches     *mongo.Collection
	tournaments *mongo.Collection
	players     *mongo.Collection
}

// NewDerivedWriter creates a writer over the given database.
func NewDerivedWriter(database *mongo.Database) *DerivedWriter {
	return &DerivedWriter{
		matches:     database.Collection(collMatches),
		tournaments: database.Collection(collTournaments),
		players:     database.Collection(collPlayers),
	}
}

// PersistMatchDerived writes both rosters and both sides' stats of a match in
// one update. Home and away stats are mirror images and must never be
// persisted independently; a nil outcome leaves the stored stats untouched.
func (w *DerivedWriter) PersistMatchDerived(ctx context.Context, matchID string, homeRoster, awayRoster []aggregate.RosterPlayer, outcome *aggregate.MatchOutcome) error {
	set := bson.M{}
	if outcome != nil {
		set["home.stats"] = outcome.Home
		set["away.stats"] = outcome.Away
	}
	if homeRoster != nil {
		set["home.roster"] = homeRoster
	}
	if awayRoster != nil {
		set["away.roster"] = awayRoster
	}
	if len(set) == 0 {
		return nil
	}

	result, err := w.matches.UpdateOne(ctx, bson.M{"_id": matchID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("persist match derived %s: %w", matchID, err)
	}
	if result.MatchedCount == 0 {
		return &NotFoundError{Resource: "match", ID: matchID}
	}
	return nil
}

// PersistRoster writes one side's recomputed roster.
func (w *DerivedWriter) PersistRoster(ctx context.Context, matchID string, side aggregate.Side, roster []aggregate.RosterPlayer) error {
	result, err := w.matches.UpdateOne(ctx,
		bson.M{"_id": matchID},
		bson.M{"$set": bson.M{string(side) + ".roster": roster}})
	if err != nil {
		return fmt.Errorf("persist roster %s/%s: %w", matchID, side, err)
	}
	if result.MatchedCount == 0 {
		return &NotFoundError{Resource: "match", ID: matchID}
	}
	return nil
}

// PersistRoundStandings caches a round's standings table inside the
// tournament document.
func (w *DerivedWriter) PersistRoundStandings(ctx context.Context, scope aggregate.Scope, rows []aggregate.StandingsRow) error {
	filter := bson.M{
		"alias":                scope.TournamentAlias,
		"seasons.alias":        scope.SeasonAlias,
		"seasons.rounds.alias": scope.RoundAlias,
	}
	update := bson.M{"$set": bson.M{
		"seasons.$[season].rounds.$[round].standings": rows,
	}}
	opts := arrayFilters(
		bson.M{"season.alias": scope.SeasonAlias},
		bson.M{"round.alias": scope.RoundAlias},
	)

	result, err := w.tournaments.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("persist round standings %s/%s/%s: %w",
			scope.TournamentAlias, scope.SeasonAlias, scope.RoundAlias, err)
	}
	if result.MatchedCount == 0 {
		return &NotFoundError{Resource: "round", ID: scope.RoundAlias}
	}
	return nil
}

// PersistMatchdayStandings caches a matchday's standings table inside the
// tournament document.
func (w *DerivedWriter) PersistMatchdayStandings(ctx context.Context, scope aggregate.Scope, rows []aggregate.StandingsRow) error {
	filter := bson.M{
		"alias":                          scope.TournamentAlias,
		"seasons.alias":                  scope.SeasonAlias,
		"seasons.rounds.alias":           scope.RoundAlias,
		"seasons.rounds.matchdays.alias": scope.MatchdayAlias,
	}
	update := bson.M{"$set": bson.M{
		"seasons.$[season].rounds.$[round].matchdays.$[matchday].standings": rows,
	}}
	opts := arrayFilters(
		bson.M{"season.alias": scope.SeasonAlias},
		bson.M{"round.alias": scope.RoundAlias},
		bson.M{"matchday.alias": scope.MatchdayAlias},
	)

	result, err := w.tournaments.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("persist matchday standings %s/%s/%s/%s: %w",
			scope.TournamentAlias, scope.SeasonAlias, scope.RoundAlias, scope.MatchdayAlias, err)
	}
	if result.MatchedCount == 0 {
		return &NotFoundError{Resource: "matchday", ID: scope.MatchdayAlias}
	}
	return nil
}

// PersistPlayerCardStats writes one player's card for a season scope onto the
// player document, keyed by tournament and season alias.
func (w *DerivedWriter) PersistPlayerCardStats(ctx context.Context, playerID string, scope aggregate.Scope, card *aggregate.PlayerCardStats) error {
	key := "cardStats." + scopeKey(scope)
	result, err := w.players.UpdateOne(ctx,
		bson.M{"_id": playerID},
		bson.M{"$set": bson.M{key: card}})
	if err != nil {
		return fmt.Errorf("persist player card %s: %w", playerID, err)
	}
	if result.MatchedCount == 0 {
		return &NotFoundError{Resource: "player", ID: playerID}
	}
	return nil
}

// FetchPlayerCardStats loads a player's previously persisted card for a
// season scope, or nil if none exists yet. The prior card carries the
// promotion state of earlier runs.
func (w *DerivedWriter) FetchPlayerCardStats(ctx context.Context, playerID string, scope aggregate.Scope) (*aggregate.PlayerCardStats, error) {
	var doc struct {
		CardStats map[string]*aggregate.PlayerCardStats `bson:"cardStats"`
	}
	err := w.players.FindOne(ctx, bson.M{"_id": playerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch player card %s: %w", playerID, err)
	}
	return doc.CardStats[scopeKey(scope)], nil
}

func scopeKey(scope aggregate.Scope) string {
	return scope.TournamentAlias + "_" + scope.SeasonAlias
}

// ApplyPromotion changes a player's permanent team assignment after the
// play-up threshold is reached. Called exactly once per promotion event.
func (w *DerivedWriter) ApplyPromotion(ctx context.Context, event aggregate.PromotionEvent) error {
	result, err := w.players.UpdateOne(ctx,
		bson.M{"_id": event.PlayerID},
		bson.M{
			"$set": bson.M{"assignedTeam": event.ToTeam},
			"$push": bson.M{"promotionLog": bson.M{
				"fromTeam": event.FromTeam,
				"toTeam":   event.ToTeam,
				"matchId":  event.MatchID,
			}},
		})
	if err != nil {
		return fmt.Errorf("apply promotion for player %s: %w", event.PlayerID, err)
	}
	if result.MatchedCount == 0 {
		return &NotFoundError{Resource: "player", ID: event.PlayerID}
	}
	return nil
}

func arrayFilters(filters ...interface{}) *options.UpdateOptions {
	return options.Update().SetArrayFilters(options.ArrayFilters{Filters: filters})
}
