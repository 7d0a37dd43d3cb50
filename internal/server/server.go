// Package server exposes the worker's small operational HTTP surface:
// a health check, a recompute trigger and cached standings reads. The
// league's CRUD API lives elsewhere; this is not it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mstrueby/bishl-backend/internal/db"
	"github.com/mstrueby/bishl-backend/internal/logging"
	"github.com/mstrueby/bishl-backend/internal/processor"
	"github.com/mstrueby/bishl-backend/internal/settings"
)

// Publisher pushes job payloads onto the recompute queue.
type Publisher interface {
	Publish(ctx context.Context, queueName string, payload []byte) error
}

// TournamentStore reads the tournament hierarchy with its cached standings.
type TournamentStore interface {
	FetchTournament(ctx context.Context, alias string) (*settings.Tournament, error)
}

// Server wires the worker's HTTP routes.
type Server struct {
	queue       Publisher
	queueName   string
	tournaments TournamentStore
}

// New builds a server publishing to the given queue.
func New(queue Publisher, queueName string, tournaments TournamentStore) *Server {
	return &Server{queue: queue, queueName: queueName, tournaments: tournaments}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/matches/{matchID}/recompute", s.handleRecompute)
	r.Get("/tournaments/{tournamentAlias}/seasons/{seasonAlias}/rounds/{roundAlias}/standings", s.handleRoundStandings)
	r.Get("/tournaments/{tournamentAlias}/seasons/{seasonAlias}/rounds/{roundAlias}/matchdays/{matchdayAlias}/standings", s.handleMatchdayStandings)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRecompute enqueues a full recompute job for a match. The work itself
// runs on the queue consumer, so the response is a 202 with the job ID.
func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if matchID == "" {
		writeError(w, http.StatusBadRequest, "match id is required")
		return
	}

	trigger := r.URL.Query().Get("trigger")
	if trigger == "" {
		trigger = "manual"
	}

	job := processor.NewJobPayload(matchID, trigger)
	payload, err := json.Marshal(job)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode job")
		return
	}
	if err := s.queue.Publish(r.Context(), s.queueName, payload); err != nil {
		logging.Logger().Errorf("publish recompute job for match %s: %v", matchID, err)
		writeError(w, http.StatusBadGateway, "enqueue job")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"jobId":   job.JobID,
		"matchId": job.MatchID,
	})
}

func (s *Server) handleRoundStandings(w http.ResponseWriter, r *http.Request) {
	round, _, ok := s.findRound(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, round.Standings)
}

func (s *Server) handleMatchdayStandings(w http.ResponseWriter, r *http.Request) {
	round, matchdayAlias, ok := s.findRound(w, r)
	if !ok {
		return
	}
	matchday := round.Matchday(matchdayAlias)
	if matchday == nil {
		writeError(w, http.StatusNotFound, "matchday not found")
		return
	}
	writeJSON(w, http.StatusOK, matchday.Standings)
}

// findRound resolves the round from the URL, writing the error response
// itself when the path leads nowhere.
func (s *Server) findRound(w http.ResponseWriter, r *http.Request) (*settings.Round, string, bool) {
	tournamentAlias := chi.URLParam(r, "tournamentAlias")
	seasonAlias := chi.URLParam(r, "seasonAlias")
	roundAlias := chi.URLParam(r, "roundAlias")
	matchdayAlias := chi.URLParam(r, "matchdayAlias")

	tournament, err := s.tournaments.FetchTournament(r.Context(), tournamentAlias)
	if err != nil {
		var notFound *db.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, notFound.Error())
			return nil, "", false
		}
		logging.Logger().Errorf("fetch tournament %s: %v", tournamentAlias, err)
		writeError(w, http.StatusInternalServerError, "fetch tournament")
		return nil, "", false
	}

	season := tournament.Season(seasonAlias)
	if season == nil {
		writeError(w, http.StatusNotFound, "season not found")
		return nil, "", false
	}
	round := season.Round(roundAlias)
	if round == nil {
		writeError(w, http.StatusNotFound, "round not found")
		return nil, "", false
	}
	return round, matchdayAlias, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
