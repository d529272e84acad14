package game_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/epiwordle/internal/game"
	"github.com/robalobadob/epiwordle/internal/store"
	"github.com/robalobadob/epiwordle/internal/words"
)

// fixedDict always draws the same target and accepts a fixed guess set.
type fixedDict struct {
	target words.Word
	valid  map[string]bool
}

func newFixedDict(target words.Word, guesses ...string) *fixedDict {
	d := &fixedDict{target: target, valid: map[string]bool{target.Normalized: true}}
	for _, g := range guesses {
		d.valid[g] = true
	}
	return d
}

func (d *fixedDict) IsActive(_ context.Context, w string) (bool, error) { return d.valid[w], nil }
func (d *fixedDict) PickRandom(context.Context) (words.Word, error)     { return d.target, nil }

// MockDictionary is a testify mock of game.Dictionary.
type MockDictionary struct{ mock.Mock }

func (m *MockDictionary) IsActive(ctx context.Context, w string) (bool, error) {
	args := m.Called(ctx, w)
	return args.Bool(0), args.Error(1)
}

func (m *MockDictionary) PickRandom(ctx context.Context) (words.Word, error) {
	args := m.Called(ctx)
	return args.Get(0).(words.Word), args.Error(1)
}

var eleve = words.Word{Display: "Élève", Normalized: "eleve"}

var misses = []string{"arbre", "chien", "porte", "table", "sucre", "ombre"}

func newTestManager(t *testing.T) (*game.Manager, *store.Memory) {
	t.Helper()
	repo := store.NewMemory()
	repo.AddUser("u1")
	repo.AddUser("u2")
	return game.NewManager(newFixedDict(eleve, misses...), repo), repo
}

func TestStartGame(t *testing.T) {
	ctx := context.Background()
	m, repo := newTestManager(t)

	res, err := m.StartGame(ctx, game.UserOwner("u1"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, 6, res.MaxAttempts)
	assert.Equal(t, 5, res.WordLength)

	rec, err := repo.LoadSession(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "eleve", rec.TargetWord)
	assert.Equal(t, "Élève", rec.OriginalWord)
	assert.Equal(t, game.StatusActive, rec.Status)
	assert.Empty(t, rec.Guesses)
	id, ok := rec.Owner.UserID()
	assert.True(t, ok)
	assert.Equal(t, "u1", id)
}

func TestStartGame_NoWords(t *testing.T) {
	m := game.NewManager(words.NewMemoryDictionary(nil), store.NewMemory())
	_, err := m.StartGame(context.Background(), game.Anonymous())
	assert.ErrorIs(t, err, game.ErrNoWordsAvailable)
}

func TestStartGame_DictionaryFailure(t *testing.T) {
	dict := &MockDictionary{}
	dict.On("PickRandom", mock.Anything).Return(words.Word{}, errors.New("disk gone"))

	m := game.NewManager(dict, store.NewMemory())
	_, err := m.StartGame(context.Background(), game.Anonymous())
	assert.ErrorIs(t, err, game.ErrPersistenceUnavailable)
	dict.AssertExpectations(t)
}

func TestSubmitGuess_WinRevealsWordAndUpdatesStats(t *testing.T) {
	ctx := context.Background()
	m, repo := newTestManager(t)
	owner := game.UserOwner("u1")
	start, err := m.StartGame(ctx, owner)
	require.NoError(t, err)

	out, err := m.SubmitGuess(ctx, start.SessionID, "arbre", owner)
	require.NoError(t, err)
	assert.False(t, out.IsWin)
	assert.False(t, out.IsGameOver)
	assert.Equal(t, 1, out.GuessCount)
	assert.Empty(t, out.RevealedWord)

	out, err = m.SubmitGuess(ctx, start.SessionID, "ÉLÈVE", owner)
	require.NoError(t, err)
	assert.True(t, out.IsWin)
	assert.True(t, out.IsGameOver)
	assert.Equal(t, 2, out.GuessCount)
	assert.Equal(t, "Élève", out.RevealedWord)
	assert.True(t, out.Result.AllCorrect())

	st, _ := repo.Stats("u1")
	assert.Equal(t, game.UserStats{TotalGames: 1, TotalWins: 1, CurrentStreak: 1, MaxStreak: 1, TotalWordsFound: 1}, st)

	hist := repo.History("u1")
	require.Len(t, hist, 1)
	assert.Equal(t, "Élève", hist[0].Word)
	assert.True(t, hist[0].Won)
	assert.Equal(t, 2, hist[0].Attempts)
	assert.Len(t, hist[0].Guesses, 2)

	_, err = m.SubmitGuess(ctx, start.SessionID, "arbre", owner)
	assert.ErrorIs(t, err, game.ErrSessionAlreadyOver)
}

func TestSubmitGuess_AttemptExhaustion(t *testing.T) {
	ctx := context.Background()
	m, repo := newTestManager(t)
	owner := game.UserOwner("u1")
	start, err := m.StartGame(ctx, owner)
	require.NoError(t, err)

	for i, g := range misses {
		out, err := m.SubmitGuess(ctx, start.SessionID, g, owner)
		require.NoError(t, err)
		assert.Equal(t, i+1, out.GuessCount, "guess count grows by one")
		last := i == len(misses)-1
		assert.Equal(t, last, out.IsGameOver)
		assert.False(t, out.IsWin)
		if last {
			assert.Equal(t, "Élève", out.RevealedWord)
		} else {
			assert.Empty(t, out.RevealedWord, "no reveal while playing")
		}
	}

	_, err = m.SubmitGuess(ctx, start.SessionID, "eleve", owner)
	assert.ErrorIs(t, err, game.ErrSessionAlreadyOver)

	st, _ := repo.Stats("u1")
	assert.Equal(t, game.UserStats{TotalGames: 1}, st)
	assert.Len(t, repo.History("u1"), 1)
}

func TestSubmitGuess_LossResetsStreak(t *testing.T) {
	ctx := context.Background()
	m, repo := newTestManager(t)
	owner := game.UserOwner("u1")

	win := func() {
		s, err := m.StartGame(ctx, owner)
		require.NoError(t, err)
		_, err = m.SubmitGuess(ctx, s.SessionID, "eleve", owner)
		require.NoError(t, err)
	}
	lose := func() {
		s, err := m.StartGame(ctx, owner)
		require.NoError(t, err)
		for _, g := range misses {
			_, err = m.SubmitGuess(ctx, s.SessionID, g, owner)
			require.NoError(t, err)
		}
	}

	win()
	win()
	win()
	lose()
	win()

	st, _ := repo.Stats("u1")
	assert.Equal(t, game.UserStats{TotalGames: 5, TotalWins: 4, CurrentStreak: 1, MaxStreak: 3, TotalWordsFound: 4}, st)
}

func TestSubmitGuess_ValidationLeavesSessionUnchanged(t *testing.T) {
	ctx := context.Background()
	m, repo := newTestManager(t)
	start, err := m.StartGame(ctx, game.Anonymous())
	require.NoError(t, err)

	_, err = m.SubmitGuess(ctx, start.SessionID, "abc", game.Anonymous())
	assert.ErrorIs(t, err, game.ErrInvalidGuessLength)

	_, err = m.SubmitGuess(ctx, start.SessionID, "abcdef", game.Anonymous())
	assert.ErrorIs(t, err, game.ErrInvalidGuessLength)

	_, err = m.SubmitGuess(ctx, start.SessionID, "zzzzz", game.Anonymous())
	assert.ErrorIs(t, err, game.ErrWordNotInDictionary)

	_, err = m.SubmitGuess(ctx, start.SessionID, "ab-de", game.Anonymous())
	assert.ErrorIs(t, err, game.ErrWordNotInDictionary)

	assert.True(t, game.IsValidation(err))

	rec, err := repo.LoadSession(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Empty(t, rec.Guesses)
	assert.Equal(t, game.StatusActive, rec.Status)
}

func TestSubmitGuess_AccentsAreFolded(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	start, err := m.StartGame(ctx, game.Anonymous())
	require.NoError(t, err)

	out, err := m.SubmitGuess(ctx, start.SessionID, "  Élève ", game.Anonymous())
	require.NoError(t, err)
	assert.True(t, out.IsWin)
}

func TestSubmitGuess_UnknownSession(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.SubmitGuess(context.Background(), "nope", "arbre", game.Anonymous())
	assert.ErrorIs(t, err, game.ErrSessionNotFound)

	_, err = m.GetState(context.Background(), "nope", game.Anonymous())
	assert.ErrorIs(t, err, game.ErrSessionNotFound)
}

func TestSubmitGuess_OwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	m, repo := newTestManager(t)
	start, err := m.StartGame(ctx, game.UserOwner("u1"))
	require.NoError(t, err)

	_, err = m.SubmitGuess(ctx, start.SessionID, "arbre", game.UserOwner("u2"))
	assert.ErrorIs(t, err, game.ErrForbidden)

	_, err = m.SubmitGuess(ctx, start.SessionID, "arbre", game.Anonymous())
	assert.ErrorIs(t, err, game.ErrForbidden)

	_, err = m.GetState(ctx, start.SessionID, game.UserOwner("u2"))
	assert.ErrorIs(t, err, game.ErrForbidden)

	rec, err := repo.LoadSession(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Empty(t, rec.Guesses)
}

func TestSubmitGuess_AnonymousSessionOpenToAll(t *testing.T) {
	ctx := context.Background()
	m, repo := newTestManager(t)
	start, err := m.StartGame(ctx, game.Anonymous())
	require.NoError(t, err)

	_, err = m.SubmitGuess(ctx, start.SessionID, "arbre", game.UserOwner("u2"))
	require.NoError(t, err)
	out, err := m.SubmitGuess(ctx, start.SessionID, "eleve", game.Anonymous())
	require.NoError(t, err)
	assert.True(t, out.IsGameOver)

	st, _ := repo.Stats("u2")
	assert.Zero(t, st.TotalGames, "anonymous games do not touch stats")
}

func TestGetState_RevealOnlyWhenOver(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	owner := game.UserOwner("u1")
	start, err := m.StartGame(ctx, owner)
	require.NoError(t, err)

	view, err := m.GetState(ctx, start.SessionID, owner)
	require.NoError(t, err)
	assert.False(t, view.IsGameOver)
	assert.Empty(t, view.RevealedWord)
	assert.Empty(t, view.Guesses)

	_, err = m.SubmitGuess(ctx, start.SessionID, "arbre", owner)
	require.NoError(t, err)

	view, err = m.GetState(ctx, start.SessionID, owner)
	require.NoError(t, err)
	assert.False(t, view.IsGameOver)
	assert.Empty(t, view.RevealedWord)
	require.Len(t, view.Guesses, 1)
	assert.Equal(t, "arbre", view.Guesses[0].Guess)

	_, err = m.SubmitGuess(ctx, start.SessionID, "eleve", owner)
	require.NoError(t, err)

	view, err = m.GetState(ctx, start.SessionID, owner)
	require.NoError(t, err)
	assert.True(t, view.IsGameOver)
	assert.Equal(t, "Élève", view.RevealedWord)
}

func exhaustedRecord() game.SessionRecord {
	rec := game.SessionRecord{ID: "broken", TargetWord: "eleve", OriginalWord: "Élève", Status: game.StatusActive}
	for _, g := range misses {
		rec.Guesses = append(rec.Guesses, game.GuessRecord{Guess: g, Result: game.Classify(g, "eleve")})
	}
	return rec
}

func TestSubmitGuess_RepairsExhaustedSession(t *testing.T) {
	ctx := context.Background()
	m, repo := newTestManager(t)
	repo.PutSession(exhaustedRecord())

	_, err := m.SubmitGuess(ctx, "broken", "eleve", game.Anonymous())
	assert.ErrorIs(t, err, game.ErrAttemptsExhausted)

	rec, err := repo.LoadSession(ctx, "broken")
	require.NoError(t, err)
	assert.Equal(t, game.StatusLost, rec.Status)
	assert.Len(t, rec.Guesses, 6)

	_, err = m.SubmitGuess(ctx, "broken", "eleve", game.Anonymous())
	assert.ErrorIs(t, err, game.ErrSessionAlreadyOver)
}

func TestGetState_RepairsExhaustedSession(t *testing.T) {
	ctx := context.Background()
	m, repo := newTestManager(t)
	repo.PutSession(exhaustedRecord())

	view, err := m.GetState(ctx, "broken", game.Anonymous())
	require.NoError(t, err)
	assert.True(t, view.IsGameOver)
	assert.Equal(t, "Élève", view.RevealedWord)

	rec, err := repo.LoadSession(ctx, "broken")
	require.NoError(t, err)
	assert.Equal(t, game.StatusLost, rec.Status)
}

func TestSubmitGuess_ConcurrentLastSlot(t *testing.T) {
	ctx := context.Background()
	m, repo := newTestManager(t)
	owner := game.UserOwner("u1")
	start, err := m.StartGame(ctx, owner)
	require.NoError(t, err)

	for _, g := range misses[:5] {
		_, err := m.SubmitGuess(ctx, start.SessionID, g, owner)
		require.NoError(t, err)
	}

	const racers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		over     int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.SubmitGuess(ctx, start.SessionID, "ombre", owner)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, game.ErrSessionAlreadyOver):
				over++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, racers-1, over)

	rec, err := repo.LoadSession(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Len(t, rec.Guesses, 6)

	st, _ := repo.Stats("u1")
	assert.Equal(t, 1, st.TotalGames, "completion recorded exactly once")
}

func TestSubmitGuess_ConcurrentGamesSameUser(t *testing.T) {
	ctx := context.Background()
	m, repo := newTestManager(t)
	owner := game.UserOwner("u1")

	const games = 10
	ids := make([]string, games)
	for i := range ids {
		s, err := m.StartGame(ctx, owner)
		require.NoError(t, err)
		ids[i] = s.SessionID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := m.SubmitGuess(ctx, id, "eleve", owner)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	st, _ := repo.Stats("u1")
	assert.Equal(t, game.UserStats{TotalGames: games, TotalWins: games, CurrentStreak: games, MaxStreak: games, TotalWordsFound: games}, st)
}

// conflictRepo makes the first n SaveSession calls lose a simulated race.
type conflictRepo struct {
	*store.Memory
	mu        sync.Mutex
	conflicts int
	saves     int
}

func (r *conflictRepo) WithinTx(ctx context.Context, fn func(tx game.Tx) error) error {
	return r.Memory.WithinTx(ctx, func(tx game.Tx) error {
		return fn(&conflictTx{Tx: tx, r: r})
	})
}

type conflictTx struct {
	game.Tx
	r *conflictRepo
}

func (t *conflictTx) SaveSession(ctx context.Context, rec game.SessionRecord, expected int) error {
	t.r.mu.Lock()
	t.r.saves++
	inject := t.r.conflicts > 0
	if inject {
		t.r.conflicts--
	}
	t.r.mu.Unlock()
	if inject {
		return game.ErrPersistenceConflict
	}
	return t.Tx.SaveSession(ctx, rec, expected)
}

func TestSubmitGuess_RetriesConflictOnce(t *testing.T) {
	ctx := context.Background()
	repo := &conflictRepo{Memory: store.NewMemory(), conflicts: 1}
	m := game.NewManager(newFixedDict(eleve, misses...), repo)
	start, err := m.StartGame(ctx, game.Anonymous())
	require.NoError(t, err)

	out, err := m.SubmitGuess(ctx, start.SessionID, "arbre", game.Anonymous())
	require.NoError(t, err)
	assert.Equal(t, 1, out.GuessCount)
	assert.Equal(t, 2, repo.saves)
}

func TestSubmitGuess_SurfacesRepeatedConflict(t *testing.T) {
	ctx := context.Background()
	repo := &conflictRepo{Memory: store.NewMemory(), conflicts: 2}
	m := game.NewManager(newFixedDict(eleve, misses...), repo)
	start, err := m.StartGame(ctx, game.Anonymous())
	require.NoError(t, err)

	_, err = m.SubmitGuess(ctx, start.SessionID, "arbre", game.Anonymous())
	assert.ErrorIs(t, err, game.ErrPersistenceConflict)

	rec, err := repo.LoadSession(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Empty(t, rec.Guesses)
}

func TestSubmitGuess_DictionaryUnavailable(t *testing.T) {
	ctx := context.Background()
	dict := &MockDictionary{}
	dict.On("PickRandom", mock.Anything).Return(eleve, nil)
	dict.On("IsActive", mock.Anything, "arbre").Return(false, fmt.Errorf("io: %w", errors.New("timeout")))

	m := game.NewManager(dict, store.NewMemory())
	start, err := m.StartGame(ctx, game.Anonymous())
	require.NoError(t, err)

	_, err = m.SubmitGuess(ctx, start.SessionID, "arbre", game.Anonymous())
	assert.ErrorIs(t, err, game.ErrPersistenceUnavailable)
	assert.False(t, game.IsValidation(err))
	dict.AssertExpectations(t)
}

type recordingObserver struct {
	mu       sync.Mutex
	started  int
	accepted int
	rejected int
	finished []bool
}

func (o *recordingObserver) GameStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *recordingObserver) GuessAccepted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.accepted++
}

func (o *recordingObserver) GuessRejected(error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected++
}

func (o *recordingObserver) GameFinished(won bool, _ int) {
	o.mu.Lock()
	o.finished = append(o.finished, won)
	o.mu.Unlock()
}

func TestManager_Observer(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	m := game.NewManager(newFixedDict(eleve, misses...), store.NewMemory(),
		game.WithObserver(obs), game.WithIDGenerator(func() string { return "fixed" }))

	start, err := m.StartGame(ctx, game.Anonymous())
	require.NoError(t, err)
	assert.Equal(t, "fixed", start.SessionID)

	_, _ = m.SubmitGuess(ctx, "fixed", "zzzzz", game.Anonymous())
	_, _ = m.SubmitGuess(ctx, "fixed", "arbre", game.Anonymous())
	_, _ = m.SubmitGuess(ctx, "fixed", "eleve", game.Anonymous())

	assert.Equal(t, 1, obs.started)
	assert.Equal(t, 2, obs.accepted)
	assert.Equal(t, 1, obs.rejected)
	assert.Equal(t, []bool{true}, obs.finished)
}

func TestManager_CustomLimits(t *testing.T) {
	ctx := context.Background()
	m := game.NewManager(newFixedDict(eleve, misses...), store.NewMemory(), game.WithLimits(2, 0))
	start, err := m.StartGame(ctx, game.Anonymous())
	require.NoError(t, err)
	assert.Equal(t, 2, start.MaxAttempts)
	assert.Equal(t, 5, start.WordLength)

	_, err = m.SubmitGuess(ctx, start.SessionID, "arbre", game.Anonymous())
	require.NoError(t, err)
	out, err := m.SubmitGuess(ctx, start.SessionID, "chien", game.Anonymous())
	require.NoError(t, err)
	assert.True(t, out.IsGameOver)
	assert.False(t, out.IsWin)
}
