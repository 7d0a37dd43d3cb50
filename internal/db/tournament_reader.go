package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mstrueby/bishl-backend/internal/aggregate"
	"github.com/mstrueby/bishl-backend/internal/settings"
)

// TournamentReader provides read-only access to the tournament hierarchy.
// The hierarchy is configuration from the aggregation's point of view; it is
// never written here except for the cached standings tables.
type TournamentReader struct {
	tournaments *mongo.Collection
}

// NewTournamentReader creates a reader over the given database.
func NewTournamentReader(database *mongo.Database) *TournamentReader {
	return &TournamentReader{tournaments: database.Collection(collTournaments)}
}

// FetchTournament loads one tournament document by alias.
func (r *TournamentReader) FetchTournament(ctx context.Context, alias string) (*settings.Tournament, error) {
	var tournament settings.Tournament
	err := r.tournaments.FindOne(ctx, bson.M{"alias": alias}).Decode(&tournament)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{Resource: "tournament", ID: alias}
	}
	if err != nil {
		return nil, fmt.Errorf("fetch tournament %s: %w", alias, err)
	}
	return &tournament, nil
}

// ResolvePointsTable fetches the tournament and resolves the season's points
// table through the settings hierarchy.
func (r *TournamentReader) ResolvePointsTable(ctx context.Context, tournamentAlias, seasonAlias string) (*aggregate.StandingsSettings, error) {
	tournament, err := r.FetchTournament(ctx, tournamentAlias)
	if err != nil {
		return nil, err
	}
	return settings.ResolveStandingsSettings(tournament, seasonAlias)
}
