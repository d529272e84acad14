// internal/httpserver/routes_game.go
//
// Game endpoints under /api/game:
//   - POST /start                   → new session, anonymous or owned by the caller
//   - POST /guess                   → classify one guess
//   - GET  /state?gameId=           → replay the session
//   - GET  /dictionary/check/{word} → is this an accepted guess?
//   - GET  /leaderboard             → top players
//   - GET  /history                 → caller's latest finished games
//
// revealedWord is null until the session is over.

package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/epiwordle/internal/game"
	"github.com/robalobadob/epiwordle/internal/user"
	"github.com/robalobadob/epiwordle/internal/words"
)

func (s *Server) mountGame(r chi.Router) {
	r.Post("/start", s.handleStart)
	r.Post("/guess", s.handleGuess)
	r.Get("/state", s.handleState)
	r.Get("/dictionary/check/{word}", s.handleDictionaryCheck)
	r.Get("/leaderboard", s.handleLeaderboard)
	r.Get("/history", s.handleHistory)
}

type guessRequest struct {
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
}

type guessResponse struct {
	Result       game.Result `json:"result"`
	IsWin        bool        `json:"isWin"`
	IsGameOver   bool        `json:"isGameOver"`
	GuessCount   int         `json:"guessCount"`
	RevealedWord *string     `json:"revealedWord"`
}

type stateResponse struct {
	GameID       string             `json:"gameId"`
	Guesses      []game.GuessRecord `json:"guesses"`
	IsGameOver   bool               `json:"isGameOver"`
	RevealedWord *string            `json:"revealedWord"`
}

// revealed maps the empty string to JSON null.
func revealed(word string) *string {
	if word == "" {
		return nil
	}
	return &word
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Games.StartGame(r.Context(), ownerOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var body guessRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.GameID == "" || strings.TrimSpace(body.Guess) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("gameId and guess are required"))
		return
	}

	out, err := s.deps.Games.SubmitGuess(r.Context(), body.GameID, body.Guess, ownerOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, guessResponse{
		Result:       out.Result,
		IsWin:        out.IsWin,
		IsGameOver:   out.IsGameOver,
		GuessCount:   out.GuessCount,
		RevealedWord: revealed(out.RevealedWord),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("gameId")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("gameId is required"))
		return
	}
	st, err := s.deps.Games.GetState(r.Context(), id, ownerOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	guesses := st.Guesses
	if guesses == nil {
		guesses = []game.GuessRecord{}
	}
	writeJSON(w, http.StatusOK, stateResponse{
		GameID:       st.SessionID,
		Guesses:      guesses,
		IsGameOver:   st.IsGameOver,
		RevealedWord: revealed(st.RevealedWord),
	})
}

// handleDictionaryCheck answers 400 for anything that could never be a guess,
// so clients can tell "malformed" from "unknown".
func (s *Server) handleDictionaryCheck(w http.ResponseWriter, r *http.Request) {
	word := words.Normalize(strings.TrimSpace(chi.URLParam(r, "word")))
	if !words.IsWord(word, s.cfg.Game.WordLength) {
		writeJSON(w, http.StatusBadRequest, errorBody(
			fmt.Sprintf("word must be %d letters", s.cfg.Game.WordLength)))
		return
	}
	ok, err := s.deps.Dict.IsActive(r.Context(), word)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", game.ErrPersistenceUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exists": ok, "word": word})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.deps.Users.Leaderboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if board == nil {
		board = []user.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": board})
}

// handleHistory returns an empty list for guests rather than 401.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"games": []game.HistoryEntry{}})
		return
	}
	games, err := s.deps.Users.History(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if games == nil {
		games = []game.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}
