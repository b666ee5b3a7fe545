package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mmadness/spread-pool/internal/config"
	"github.com/mmadness/spread-pool/internal/fetch"
	"github.com/mmadness/spread-pool/internal/httputil"
	"github.com/mmadness/spread-pool/internal/middleware"
	"github.com/mmadness/spread-pool/internal/pool"
	"github.com/mmadness/spread-pool/internal/provider"
	"github.com/mmadness/spread-pool/internal/service"
	"github.com/mmadness/spread-pool/internal/store"
)

func newRouter(cfg config.Config, sessionManager *scs.SessionManager, database *sqlx.DB) http.Handler {
	poolStore := store.NewPoolStore(database)
	gameService := service.NewGameService(database, poolStore)
	bracketService := service.NewBracketService(database, poolStore)
	draftService := service.NewDraftService(database, poolStore)
	scoreUpdater := fetch.NewScoreUpdater(database, poolStore, gameService)
	spreadUpdater := fetch.NewSpreadUpdater(database, poolStore)
	espn := provider.NewESPNScores()
	odds := provider.NewOddsAPISpreads(cfg.OddsAPIKey)
	espnBracket := provider.NewESPNBracket()

	yearParam := func(r *http.Request) int {
		if s := r.URL.Query().Get("year"); s != "" {
			if y, err := strconv.Atoi(s); err == nil {
				return y
			}
		}
		return cfg.Year
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(sessionManager.LoadAndSave)

	r.Get("/bracket", func(w http.ResponseWriter, r *http.Request) {
		view, err := buildBracketView(r.Context(), poolStore, yearParam(r))
		if err != nil {
			httputil.InternalServerError(w, "Failed to load bracket", err)
			return
		}
		httputil.JSON(w, http.StatusOK, view)
	})

	r.Get("/standings", func(w http.ResponseWriter, r *http.Request) {
		rosters, err := buildStandings(r.Context(), poolStore, yearParam(r))
		if err != nil {
			httputil.InternalServerError(w, "Failed to load standings", err)
			return
		}
		httputil.JSON(w, http.StatusOK, rosters)
	})

	r.Post("/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Secret string `json:"secret"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		if !middleware.LoginAdmin(r, sessionManager, cfg.AdminSecret, body.Secret) {
			httputil.Unauthorized(w, "invalid admin secret")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/admin/logout", func(w http.ResponseWriter, r *http.Request) {
		middleware.LogoutAdmin(r, sessionManager)
		w.WriteHeader(http.StatusNoContent)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(sessionManager))

		r.Get("/admin/participants", func(w http.ResponseWriter, r *http.Request) {
			participants, err := draftService.ListParticipants(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to list participants", err)
				return
			}
			httputil.JSON(w, http.StatusOK, participants)
		})

		r.Post("/admin/participants", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Name  string `json:"name"`
				Email string `json:"email"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			p, err := draftService.CreateParticipant(r.Context(), body.Name, body.Email)
			if err != nil {
				httputil.BadRequest(w, "Failed to create participant", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, p)
		})

		r.Post("/admin/draft", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				TeamID        uuid.UUID `json:"team_id"`
				ParticipantID uuid.UUID `json:"participant_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			if err := draftService.AssignTeam(r.Context(), body.TeamID, body.ParticipantID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					httputil.NotFound(w, "Team not found", err)
					return
				}
				httputil.BadRequest(w, err.Error(), err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/admin/bracket", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Year  int `json:"year"`
				Teams []struct {
					Name    string     `json:"name"`
					Seed    int        `json:"seed"`
					Region  string     `json:"region"`
					OwnerID *uuid.UUID `json:"owner_id"`
				} `json:"teams"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			if body.Year == 0 {
				body.Year = cfg.Year
			}
			seeds := make([]service.TeamSeed, 0, len(body.Teams))
			for _, t := range body.Teams {
				seeds = append(seeds, service.TeamSeed{
					Name:           t.Name,
					Seed:           t.Seed,
					Region:         t.Region,
					InitialOwnerID: t.OwnerID,
				})
			}
			if err := bracketService.BuildBracket(r.Context(), body.Year, seeds); err != nil {
				httputil.BadRequest(w, err.Error(), err)
				return
			}
			w.WriteHeader(http.StatusCreated)
		})

		r.Post("/admin/bracket/fetch", func(w http.ResponseWriter, r *http.Request) {
			year := yearParam(r)
			seeds := espnBracket.FetchBracket(r.Context(), year)
			if len(seeds) == 0 {
				httputil.BadRequest(w, "Bracket feed returned no teams", nil)
				return
			}
			if err := bracketService.BuildBracket(r.Context(), year, seeds); err != nil {
				httputil.BadRequest(w, err.Error(), err)
				return
			}
			httputil.JSON(w, http.StatusCreated, map[string]int{"teams": len(seeds)})
		})

		r.Post("/admin/games/{id}/score", func(w http.ResponseWriter, r *http.Request) {
			gameID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid game ID", err)
				return
			}
			var body struct {
				Team1Score int             `json:"team1_score"`
				Team2Score int             `json:"team2_score"`
				Status     pool.GameStatus `json:"status"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			if err := gameService.SetScore(r.Context(), gameID, body.Team1Score, body.Team2Score, body.Status); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					httputil.NotFound(w, "Game not found", err)
					return
				}
				httputil.BadRequest(w, err.Error(), err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/admin/games/{id}/spread", func(w http.ResponseWriter, r *http.Request) {
			gameID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid game ID", err)
				return
			}
			var body struct {
				Spread         float64   `json:"spread"`
				FavoriteTeamID uuid.UUID `json:"favorite_team_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			if err := gameService.SetSpread(r.Context(), gameID, body.Spread, body.FavoriteTeamID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					httputil.NotFound(w, "Game not found", err)
					return
				}
				httputil.BadRequest(w, err.Error(), err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/admin/games/{id}/finalize", func(w http.ResponseWriter, r *http.Request) {
			gameID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid game ID", err)
				return
			}
			teamWinner, ownerWinner, err := gameService.FinalizeGame(r.Context(), gameID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					httputil.NotFound(w, "Game not found", err)
					return
				}
				var spreadErr *pool.SpreadEvaluationError
				if errors.As(err, &spreadErr) {
					httputil.BadRequest(w, spreadErr.Error(), err)
					return
				}
				httputil.InternalServerError(w, "Failed to finalize game", err)
				return
			}
			resp := map[string]any{"team_winner": teamWinner.Name}
			if ownerWinner != nil {
				resp["owner_winner"] = ownerWinner.Name
			}
			httputil.JSON(w, http.StatusOK, resp)
		})

		r.Post("/admin/refresh/scores", func(w http.ResponseWriter, r *http.Request) {
			date := r.URL.Query().Get("date")
			if date == "" {
				date = time.Now().UTC().Format("2006-01-02")
			}
			entries := espn.FetchScores(r.Context(), date)
			result, err := scoreUpdater.Apply(r.Context(), yearParam(r), entries)
			if err != nil {
				httputil.InternalServerError(w, "Failed to apply scores", err)
				return
			}
			httputil.JSON(w, http.StatusOK, result)
		})

		r.Post("/admin/refresh/spreads", func(w http.ResponseWriter, r *http.Request) {
			entries := odds.FetchSpreads(r.Context())
			updated, err := spreadUpdater.Apply(r.Context(), yearParam(r), entries)
			if err != nil {
				httputil.InternalServerError(w, "Failed to apply spreads", err)
				return
			}
			httputil.JSON(w, http.StatusOK, map[string]int{"updated": updated})
		})
	})

	return r
}
