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

// MatchReader provides read-only access to the match collection.
type MatchReader struct {
	matches *mongo.Collection
}

// NewMatchReader creates a reader over the given database.
func NewMatchReader(database *mongo.Database) *MatchReader {
	return &MatchReader{matches: database.Collection(collMatches)}
}

// MatchExists reports whether a match document exists.
func (r *MatchReader) MatchExists(ctx context.Context, matchID string) (bool, error) {
	count, err := r.matches.CountDocuments(ctx, bson.M{"_id": matchID})
	if err != nil {
		return false, fmt.Errorf("count match %s: %w", matchID, err)
	}
	return count > 0, nil
}

// FetchMatch loads one match document.
func (r *MatchReader) FetchMatch(ctx context.Context, matchID string) (*aggregate.Match, error) {
	var match aggregate.Match
	err := r.matches.FindOne(ctx, bson.M{"_id": matchID}).Decode(&match)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{Resource: "match", ID: matchID}
	}
	if err != nil {
		return nil, fmt.Errorf("fetch match %s: %w", matchID, err)
	}
	return &match, nil
}

// FetchMatchesInScope loads all matches of a tournament season, optionally
// narrowed to a round and matchday, ordered by start date.
func (r *MatchReader) FetchMatchesInScope(ctx context.Context, scope aggregate.Scope) ([]*aggregate.Match, error) {
	filter := bson.M{
		"tournament.alias": scope.TournamentAlias,
		"season.alias":     scope.SeasonAlias,
	}
	if scope.RoundAlias != "" {
		filter["round.alias"] = scope.RoundAlias
	}
	if scope.MatchdayAlias != "" {
		filter["matchday.alias"] = scope.MatchdayAlias
	}

	cursor, err := r.matches.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find matches in scope: %w", err)
	}
	defer cursor.Close(ctx)

	var matches []*aggregate.Match
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, fmt.Errorf("decode matches: %w", err)
	}
	return matches, nil
}
