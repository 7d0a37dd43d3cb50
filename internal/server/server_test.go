package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mstrueby/bishl-backend/internal/aggregate"
	"github.com/mstrueby/bishl-backend/internal/assert"
	"github.com/mstrueby/bishl-backend/internal/db"
	"github.com/mstrueby/bishl-backend/internal/processor"
	"github.com/mstrueby/bishl-backend/internal/settings"
)

type fakePublisher struct {
	queueName string
	payload   []byte
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, queueName string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.queueName = queueName
	f.payload = payload
	return nil
}

type fakeTournaments struct {
	tournament *settings.Tournament
	err        error
}

func (f *fakeTournaments) FetchTournament(_ context.Context, alias string) (*settings.Tournament, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tournament, nil
}

func serverTournament() *settings.Tournament {
	return &settings.Tournament{
		Alias: "regio-cup",
		Seasons: []settings.Season{
			{
				Alias: "2024-25",
				Rounds: []settings.Round{
					{
						Alias: "hauptrunde",
						Standings: []aggregate.StandingsRow{
							{TeamAlias: "wolves", FullName: "Wolves", Points: 6},
							{TeamAlias: "bears", FullName: "Bears", Points: 3},
						},
						Matchdays: []settings.Matchday{
							{
								Alias: "finaltag",
								Standings: []aggregate.StandingsRow{
									{TeamAlias: "wolves", FullName: "Wolves", Points: 3},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestHealth(t *testing.T) {
	srv := New(&fakePublisher{}, "recompute_matches", &fakeTournaments{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, rec.Code, http.StatusOK)
	assert.StringContains(t, rec.Body.String(), "ok")
}

func TestRecomputeEnqueues(t *testing.T) {
	publisher := &fakePublisher{}
	srv := New(publisher, "recompute_matches", &fakeTournaments{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/matches/m42/recompute?trigger=rescore", nil))

	assert.Equal(t, rec.Code, http.StatusAccepted)
	assert.Equal(t, publisher.queueName, "recompute_matches")

	var job processor.JobPayload
	assert.NilError(t, json.Unmarshal(publisher.payload, &job))
	assert.Equal(t, job.MatchID, "m42")
	assert.Equal(t, job.Trigger, "rescore")
	assert.True(t, job.JobID != "")

	var body map[string]string
	assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, body["jobId"], job.JobID)
	assert.Equal(t, body["matchId"], "m42")
}

func TestRecomputePublishFailure(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("redis down")}
	srv := New(publisher, "recompute_matches", &fakeTournaments{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/matches/m42/recompute", nil))

	assert.Equal(t, rec.Code, http.StatusBadGateway)
}

func TestRoundStandings(t *testing.T) {
	srv := New(&fakePublisher{}, "recompute_matches", &fakeTournaments{tournament: serverTournament()})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/tournaments/regio-cup/seasons/2024-25/rounds/hauptrunde/standings", nil))

	assert.Equal(t, rec.Code, http.StatusOK)

	var rows []aggregate.StandingsRow
	assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Equal(t, len(rows), 2)
	assert.Equal(t, rows[0].FullName, "Wolves")
	assert.Equal(t, rows[0].Points, 6)
}

func TestMatchdayStandings(t *testing.T) {
	srv := New(&fakePublisher{}, "recompute_matches", &fakeTournaments{tournament: serverTournament()})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/tournaments/regio-cup/seasons/2024-25/rounds/hauptrunde/matchdays/finaltag/standings", nil))

	assert.Equal(t, rec.Code, http.StatusOK)

	var rows []aggregate.StandingsRow
	assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Equal(t, len(rows), 1)
}

func TestStandingsNotFound(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeTournaments
		path  string
	}{
		{
			"unknown tournament",
			&fakeTournaments{err: &db.NotFoundError{Resource: "tournament", ID: "nope"}},
			"/tournaments/nope/seasons/2024-25/rounds/hauptrunde/standings",
		},
		{
			"unknown season",
			&fakeTournaments{tournament: serverTournament()},
			"/tournaments/regio-cup/seasons/1999-00/rounds/hauptrunde/standings",
		},
		{
			"unknown round",
			&fakeTournaments{tournament: serverTournament()},
			"/tournaments/regio-cup/seasons/2024-25/rounds/nope/standings",
		},
		{
			"unknown matchday",
			&fakeTournaments{tournament: serverTournament()},
			"/tournaments/regio-cup/seasons/2024-25/rounds/hauptrunde/matchdays/nope/standings",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := New(&fakePublisher{}, "recompute_matches", tc.store)
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, rec.Code, http.StatusNotFound)
		})
	}
}
