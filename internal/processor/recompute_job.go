package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mstrueby/bishl-backend/internal/aggregate"
	"github.com/mstrueby/bishl-backend/internal/db"
	"github.com/mstrueby/bishl-backend/internal/logging"
	"github.com/mstrueby/bishl-backend/internal/settings"
)

// JobPayload represents an incoming recompute job from the Redis queue. The
// router publishing the job sets the trigger for log correlation only; the
// recomputation itself is always full, never incremental.
type JobPayload struct {
	JobID   string `json:"job_id"`
	MatchID string `json:"match_id"`
	Trigger string `json:"trigger,omitempty"`
}

// NewJobPayload builds a payload with a fresh correlation ID.
func NewJobPayload(matchID, trigger string) JobPayload {
	return JobPayload{JobID: uuid.NewString(), MatchID: matchID, Trigger: trigger}
}

// MatchStore is the reader contract the processor consumes.
type MatchStore interface {
	FetchMatch(ctx context.Context, matchID string) (*aggregate.Match, error)
	FetchMatchesInScope(ctx context.Context, scope aggregate.Scope) ([]*aggregate.Match, error)
}

// TournamentStore supplies the settings hierarchy.
type TournamentStore interface {
	FetchTournament(ctx context.Context, alias string) (*settings.Tournament, error)
}

// DerivedStore is the writer contract for everything the processor derives.
type DerivedStore interface {
	PersistMatchDerived(ctx context.Context, matchID string, homeRoster, awayRoster []aggregate.RosterPlayer, outcome *aggregate.MatchOutcome) error
	PersistRoundStandings(ctx context.Context, scope aggregate.Scope, rows []aggregate.StandingsRow) error
	PersistMatchdayStandings(ctx context.Context, scope aggregate.Scope, rows []aggregate.StandingsRow) error
	FetchPlayerCardStats(ctx context.Context, playerID string, scope aggregate.Scope) (*aggregate.PlayerCardStats, error)
	PersistPlayerCardStats(ctx context.Context, playerID string, scope aggregate.Scope, card *aggregate.PlayerCardStats) error
	ApplyPromotion(ctx context.Context, event aggregate.PromotionEvent) error
}

// RecomputeProcessor handles match recompute jobs: roster stats, match
// outcome stats, standings tables and player cards, in that order.
type RecomputeProcessor struct {
	ctx         context.Context
	matches     MatchStore
	tournaments TournamentStore
	writer      DerivedStore
}

// NewRecomputeProcessor creates a processor bound to its stores.
func NewRecomputeProcessor(ctx context.Context, matches MatchStore, tournaments TournamentStore, writer DerivedStore) *RecomputeProcessor {
	return &RecomputeProcessor{
		ctx:         ctx,
		matches:     matches,
		tournaments: tournaments,
		writer:      writer,
	}
}

// Handle processes a single recompute job from the queue.
func (p *RecomputeProcessor) Handle(payload []byte) error {
	logger := logging.Logger()
	startTime := time.Now()

	var job JobPayload
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("unmarshal job payload: %w", err)
	}
	if job.MatchID == "" {
		return fmt.Errorf("job %s: empty match_id", job.JobID)
	}

	logger.Infof("job %s: recompute for match %s (trigger=%s)", job.JobID, job.MatchID, job.Trigger)

	match, err := p.matches.FetchMatch(p.ctx, job.MatchID)
	if err != nil {
		var notFound *db.NotFoundError
		if errors.As(err, &notFound) {
			logger.Warnf("job %s: match %s not found, skipping", job.JobID, job.MatchID)
			return nil
		}
		return fmt.Errorf("fetch match: %w", err)
	}

	if err := p.recomputeMatch(match); err != nil {
		return err
	}

	if match.Final() {
		if err := p.recomputeStandings(match); err != nil {
			return err
		}
		if err := p.recomputePlayerCards(match); err != nil {
			return err
		}
	}

	logger.Infof("job %s: completed for match %s in %v", job.JobID, job.MatchID, time.Since(startTime))
	return nil
}

// recomputeMatch rebuilds both rosters and, for final matches, the mirrored
// outcome stats, persisting everything as one atomic match update. A roster
// consistency fault here belongs to the owning operation and fails the job.
func (p *RecomputeProcessor) recomputeMatch(match *aggregate.Match) error {
	homeRoster, err := aggregate.RecomputeRosterStats(match, aggregate.SideHome)
	if err != nil {
		return fmt.Errorf("recompute home roster: %w", err)
	}
	awayRoster, err := aggregate.RecomputeRosterStats(match, aggregate.SideAway)
	if err != nil {
		return fmt.Errorf("recompute away roster: %w", err)
	}

	var outcome *aggregate.MatchOutcome
	if match.Final() {
		table, err := p.pointsTable(match)
		if err != nil {
			return err
		}
		outcome, err = aggregate.ComputeMatchStats(
			match.MatchStatus.Key, match.FinishType.Key, table,
			match.Home.Stats.GoalsFor, match.Away.Stats.GoalsFor)
		if err != nil {
			return fmt.Errorf("compute match stats: %w", err)
		}
		match.Home.Stats = outcome.Home
		match.Away.Stats = outcome.Away
	}

	match.Home.Roster = homeRoster
	match.Away.Roster = awayRoster

	return p.writer.PersistMatchDerived(p.ctx, match.ID, homeRoster, awayRoster, outcome)
}

// recomputeStandings rebuilds the round and matchday tables the match belongs
// to, where the hierarchy asks for them.
func (p *RecomputeProcessor) recomputeStandings(match *aggregate.Match) error {
	logger := logging.Logger()

	tournament, err := p.tournaments.FetchTournament(p.ctx, match.Tournament.Alias)
	if err != nil {
		return fmt.Errorf("fetch tournament: %w", err)
	}
	table, err := settings.ResolveStandingsSettings(tournament, match.Season.Alias)
	if err != nil {
		return err
	}

	roundScope := aggregate.Scope{
		TournamentAlias: match.Tournament.Alias,
		SeasonAlias:     match.Season.Alias,
		RoundAlias:      match.Round.Alias,
	}

	if settings.CreateStandingsForRound(tournament, match.Season.Alias, match.Round.Alias) {
		matches, err := p.matches.FetchMatchesInScope(p.ctx, roundScope)
		if err != nil {
			return fmt.Errorf("fetch round matches: %w", err)
		}
		rows, skipped := aggregate.AggregateStandings(matches, roundScope, table)
		logSkipped(logger, "round standings", skipped)
		if err := p.writer.PersistRoundStandings(p.ctx, roundScope, rows); err != nil {
			return err
		}
		logger.Infof("round %s: %d standings rows", match.Round.Alias, len(rows))
	}

	if match.Matchday.Alias == "" {
		return nil
	}
	if !settings.CreateStandingsForMatchday(tournament, match.Season.Alias, match.Round.Alias, match.Matchday.Alias) {
		return nil
	}

	matchdayScope := roundScope
	matchdayScope.MatchdayAlias = match.Matchday.Alias

	matches, err := p.matches.FetchMatchesInScope(p.ctx, matchdayScope)
	if err != nil {
		return fmt.Errorf("fetch matchday matches: %w", err)
	}
	rows, skipped := aggregate.AggregateStandings(matches, matchdayScope, table)
	logSkipped(logger, "matchday standings", skipped)
	if err := p.writer.PersistMatchdayStandings(p.ctx, matchdayScope, rows); err != nil {
		return err
	}
	logger.Infof("matchday %s: %d standings rows", match.Matchday.Alias, len(rows))
	return nil
}

// recomputePlayerCards rebuilds season cards for every player on either
// roster of the match and applies any promotion the rebuild produced.
func (p *RecomputeProcessor) recomputePlayerCards(match *aggregate.Match) error {
	logger := logging.Logger()

	playerIDs := rosterPlayerIDs(match)
	if len(playerIDs) == 0 {
		return nil
	}

	seasonScope := aggregate.Scope{
		TournamentAlias: match.Tournament.Alias,
		SeasonAlias:     match.Season.Alias,
	}

	matches, err := p.matches.FetchMatchesInScope(p.ctx, seasonScope)
	if err != nil {
		return fmt.Errorf("fetch season matches: %w", err)
	}

	prior := make(map[string]*aggregate.PlayerCardStats, len(playerIDs))
	for _, playerID := range playerIDs {
		card, err := p.writer.FetchPlayerCardStats(p.ctx, playerID, seasonScope)
		if err != nil {
			return err
		}
		if card != nil {
			prior[playerID] = card
		}
	}

	cards, promotions, skipped := aggregate.AggregatePlayerCardStats(playerIDs, matches, seasonScope, prior)
	logSkipped(logger, "player cards", skipped)

	for _, playerID := range playerIDs {
		if err := p.writer.PersistPlayerCardStats(p.ctx, playerID, seasonScope, cards[playerID]); err != nil {
			return err
		}
	}
	for _, event := range promotions {
		logger.Infof("player %s promoted from %s to %s (match %s)",
			event.PlayerID, event.FromTeam.TeamAlias, event.ToTeam.TeamAlias, event.MatchID)
		if err := p.writer.ApplyPromotion(p.ctx, event); err != nil {
			return err
		}
	}

	logger.Infof("match %s: %d player cards, %d promotions", match.ID, len(cards), len(promotions))
	return nil
}

func (p *RecomputeProcessor) pointsTable(match *aggregate.Match) (*aggregate.StandingsSettings, error) {
	tournament, err := p.tournaments.FetchTournament(p.ctx, match.Tournament.Alias)
	if err != nil {
		return nil, fmt.Errorf("fetch tournament: %w", err)
	}
	return settings.ResolveStandingsSettings(tournament, match.Season.Alias)
}

func rosterPlayerIDs(match *aggregate.Match) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, side := range []aggregate.Side{aggregate.SideHome, aggregate.SideAway} {
		for _, entry := range match.Team(side).Roster {
			if entry.Player.PlayerID == "" || seen[entry.Player.PlayerID] {
				continue
			}
			seen[entry.Player.PlayerID] = true
			ids = append(ids, entry.Player.PlayerID)
		}
	}
	return ids
}

func logSkipped(logger logging.Interface, stage string, skipped []aggregate.SkippedItem) {
	for _, item := range skipped {
		logger.Warnf("%s: skipped match=%s player=%s: %s", stage, item.MatchID, item.PlayerID, item.Reason)
	}
}
