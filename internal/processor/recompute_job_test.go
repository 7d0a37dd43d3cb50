package processor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mstrueby/bishl-backend/internal/aggregate"
	"github.com/mstrueby/bishl-backend/internal/assert"
	"github.com/mstrueby/bishl-backend/internal/db"
	"github.com/mstrueby/bishl-backend/internal/settings"
)

type fakeMatchStore struct {
	match    *aggregate.Match
	fetchErr error
	scoped   []*aggregate.Match
}

func (f *fakeMatchStore) FetchMatch(_ context.Context, matchID string) (*aggregate.Match, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.match, nil
}

func (f *fakeMatchStore) FetchMatchesInScope(_ context.Context, scope aggregate.Scope) ([]*aggregate.Match, error) {
	return f.scoped, nil
}

type fakeTournamentStore struct {
	tournament *settings.Tournament
}

func (f *fakeTournamentStore) FetchTournament(_ context.Context, alias string) (*settings.Tournament, error) {
	return f.tournament, nil
}

type fakeDerivedStore struct {
	derivedMatchID    string
	derivedOutcome    *aggregate.MatchOutcome
	derivedHomeRoster []aggregate.RosterPlayer
	roundRows         []aggregate.StandingsRow
	matchdayRows      []aggregate.StandingsRow
	matchdayCalled    bool
	cards             map[string]*aggregate.PlayerCardStats
	prior             map[string]*aggregate.PlayerCardStats
	promotions        []aggregate.PromotionEvent
}

func newFakeDerivedStore() *fakeDerivedStore {
	return &fakeDerivedStore{
		cards: make(map[string]*aggregate.PlayerCardStats),
		prior: make(map[string]*aggregate.PlayerCardStats),
	}
}

func (f *fakeDerivedStore) PersistMatchDerived(_ context.Context, matchID string, homeRoster, awayRoster []aggregate.RosterPlayer, outcome *aggregate.MatchOutcome) error {
	f.derivedMatchID = matchID
	f.derivedHomeRoster = homeRoster
	f.derivedOutcome = outcome
	return nil
}

func (f *fakeDerivedStore) PersistRoundStandings(_ context.Context, scope aggregate.Scope, rows []aggregate.StandingsRow) error {
	f.roundRows = rows
	return nil
}

func (f *fakeDerivedStore) PersistMatchdayStandings(_ context.Context, scope aggregate.Scope, rows []aggregate.StandingsRow) error {
	f.matchdayCalled = true
	f.matchdayRows = rows
	return nil
}

func (f *fakeDerivedStore) FetchPlayerCardStats(_ context.Context, playerID string, scope aggregate.Scope) (*aggregate.PlayerCardStats, error) {
	return f.prior[playerID], nil
}

func (f *fakeDerivedStore) PersistPlayerCardStats(_ context.Context, playerID string, scope aggregate.Scope, card *aggregate.PlayerCardStats) error {
	f.cards[playerID] = card
	return nil
}

func (f *fakeDerivedStore) ApplyPromotion(_ context.Context, event aggregate.PromotionEvent) error {
	f.promotions = append(f.promotions, event)
	return nil
}

func jobTournament() *settings.Tournament {
	winForfeit, lossForfeit := 2, 0
	return &settings.Tournament{
		Alias: "regio-cup",
		Seasons: []settings.Season{
			{
				Alias: "2024-25",
				StandingsSettings: &aggregate.StandingsSettings{
					PointsWinReg:       3,
					PointsDrawReg:      1,
					PointsWinOvertime:  2,
					PointsLossOvertime: 1,
					PointsWinShootout:  2,
					PointsLossShootout: 1,
					PointsWinForfeit:   &winForfeit,
					PointsLossForfeit:  &lossForfeit,
				},
				Rounds: []settings.Round{
					{Alias: "hauptrunde", CreateStandings: true, CreateStats: true},
				},
			},
		},
	}
}

func jobMatch() *aggregate.Match {
	start := time.Date(2024, 10, 5, 19, 0, 0, 0, time.UTC)
	return &aggregate.Match{
		ID:         "m1",
		Tournament: aggregate.Ref{Alias: "regio-cup"},
		Season:     aggregate.Ref{Alias: "2024-25"},
		Round:      aggregate.Ref{Alias: "hauptrunde"},
		Home: aggregate.MatchTeam{
			TeamAlias: "wolves", Name: "Wolves", FullName: "Wolves",
			Roster: []aggregate.RosterPlayer{
				{Player: aggregate.EventPlayer{PlayerID: "p1"}},
			},
			Scores: []aggregate.ScoreEvent{
				{ID: "s1", GoalPlayer: aggregate.EventPlayer{PlayerID: "p1"}},
				{ID: "s2", GoalPlayer: aggregate.EventPlayer{PlayerID: "p1"}},
			},
			Stats: aggregate.TeamStats{GoalsFor: 2, GoalsAgainst: 1},
		},
		Away: aggregate.MatchTeam{
			TeamAlias: "bears", Name: "Bears", FullName: "Bears",
			Roster: []aggregate.RosterPlayer{
				{Player: aggregate.EventPlayer{PlayerID: "p2"}},
			},
			Scores: []aggregate.ScoreEvent{
				{ID: "s3", GoalPlayer: aggregate.EventPlayer{PlayerID: "p2"}},
			},
			Stats: aggregate.TeamStats{GoalsFor: 1, GoalsAgainst: 2},
		},
		MatchStatus: aggregate.KeyValue{Key: aggregate.StatusFinished},
		FinishType:  aggregate.KeyValue{Key: aggregate.FinishRegular},
		StartDate:   &start,
	}
}

func payloadBytes(t *testing.T, matchID string) []byte {
	t.Helper()
	raw, err := json.Marshal(NewJobPayload(matchID, "test"))
	assert.NilError(t, err)
	return raw
}

func TestHandleFinishedMatch(t *testing.T) {
	match := jobMatch()
	matches := &fakeMatchStore{match: match, scoped: []*aggregate.Match{match}}
	writer := newFakeDerivedStore()
	p := NewRecomputeProcessor(context.Background(), matches, &fakeTournamentStore{tournament: jobTournament()}, writer)

	err := p.Handle(payloadBytes(t, "m1"))
	assert.NilError(t, err)

	assert.Equal(t, writer.derivedMatchID, "m1")
	if writer.derivedOutcome == nil {
		t.Fatal("expected computed outcome")
	}
	assert.Equal(t, writer.derivedOutcome.Home.Win, 1)
	assert.Equal(t, writer.derivedOutcome.Home.Points, 3)
	assert.Equal(t, writer.derivedOutcome.Away.Loss, 1)
	assert.Equal(t, writer.derivedHomeRoster[0].Goals, 2)
	assert.Equal(t, writer.derivedHomeRoster[0].Points, 2)

	assert.Equal(t, len(writer.roundRows), 2)
	assert.Equal(t, writer.roundRows[0].FullName, "Wolves")
	assert.True(t, !writer.matchdayCalled)

	assert.Equal(t, len(writer.cards), 2)
	assert.Equal(t, writer.cards["p1"].Season.Goals, 2)
	assert.Equal(t, writer.cards["p2"].Season.Goals, 1)
	assert.Equal(t, len(writer.promotions), 0)
}

func TestHandleScheduledMatch(t *testing.T) {
	match := jobMatch()
	match.MatchStatus = aggregate.KeyValue{Key: aggregate.StatusScheduled}
	writer := newFakeDerivedStore()
	p := NewRecomputeProcessor(context.Background(),
		&fakeMatchStore{match: match}, &fakeTournamentStore{tournament: jobTournament()}, writer)

	err := p.Handle(payloadBytes(t, "m1"))
	assert.NilError(t, err)

	// rosters are rebuilt, but no outcome, standings or cards
	assert.Equal(t, writer.derivedMatchID, "m1")
	assert.True(t, writer.derivedOutcome == nil)
	assert.Equal(t, len(writer.roundRows), 0)
	assert.Equal(t, len(writer.cards), 0)
}

func TestHandleMatchNotFound(t *testing.T) {
	matches := &fakeMatchStore{fetchErr: &db.NotFoundError{Resource: "match", ID: "gone"}}
	writer := newFakeDerivedStore()
	p := NewRecomputeProcessor(context.Background(), matches, &fakeTournamentStore{}, writer)

	// a vanished match is not a job failure
	err := p.Handle(payloadBytes(t, "gone"))
	assert.NilError(t, err)
	assert.Equal(t, writer.derivedMatchID, "")
}

func TestHandleBadPayload(t *testing.T) {
	p := NewRecomputeProcessor(context.Background(),
		&fakeMatchStore{}, &fakeTournamentStore{}, newFakeDerivedStore())

	if err := p.Handle([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if err := p.Handle([]byte(`{"job_id":"j1"}`)); err == nil {
		t.Fatal("expected error for missing match_id")
	}
}

func TestHandlePromotesCalledUpPlayer(t *testing.T) {
	fromTeam := &aggregate.TeamRef{TeamAlias: "wolves-2", Name: "Wolves II"}

	var season []*aggregate.Match
	for i := 0; i < aggregate.PlayUpThreshold; i++ {
		m := jobMatch()
		m.ID = "m" + string(rune('1'+i))
		start := time.Date(2024, 10, i+1, 19, 0, 0, 0, time.UTC)
		m.StartDate = &start
		m.Home.Roster[0].Called = true
		m.Home.Roster[0].CalledFromTeam = fromTeam
		season = append(season, m)
	}
	last := season[len(season)-1]

	matches := &fakeMatchStore{match: last, scoped: season}
	writer := newFakeDerivedStore()
	p := NewRecomputeProcessor(context.Background(), matches, &fakeTournamentStore{tournament: jobTournament()}, writer)

	err := p.Handle(payloadBytes(t, last.ID))
	assert.NilError(t, err)

	assert.Equal(t, len(writer.promotions), 1)
	assert.Equal(t, writer.promotions[0].PlayerID, "p1")
	assert.Equal(t, writer.promotions[0].FromTeam.TeamAlias, "wolves-2")
	assert.Equal(t, writer.promotions[0].ToTeam.TeamAlias, "wolves")

	tracking := writer.cards["p1"].PlayUpTracking["wolves-2:wolves"]
	assert.Equal(t, tracking.CountedTotal, aggregate.PlayUpThreshold)
	assert.Equal(t, tracking.State, aggregate.PlayUpStatePromoted)

	// rerun with the promoted card as prior state: no second event
	writer.prior["p1"] = writer.cards["p1"]
	writer.promotions = nil
	err = p.Handle(payloadBytes(t, last.ID))
	assert.NilError(t, err)
	assert.Equal(t, len(writer.promotions), 0)
}
