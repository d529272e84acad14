package game

// UserStats are the cumulative counters of a registered player.
//
// Invariants kept by Record: TotalWins <= TotalGames, CurrentStreak <= MaxStreak,
// MaxStreak never decreases, and a loss resets CurrentStreak to 0.
type UserStats struct {
	TotalGames      int `json:"total_games"`
	TotalWins       int `json:"total_wins"`
	CurrentStreak   int `json:"current_streak"`
	MaxStreak       int `json:"max_streak"`
	TotalWordsFound int `json:"total_words_found"`
}

// Record returns s updated with the outcome of one completed game.
func (s UserStats) Record(won bool) UserStats {
	s.TotalGames++
	if won {
		s.TotalWins++
		s.TotalWordsFound++
		s.CurrentStreak++
	} else {
		s.CurrentStreak = 0
	}
	s.MaxStreak = max(s.MaxStreak, s.CurrentStreak)
	return s
}

// WinRate is the percentage of games won, 0 when no game was played.
func (s UserStats) WinRate() float64 {
	if s.TotalGames == 0 {
		return 0
	}
	return float64(s.TotalWins) / float64(s.TotalGames) * 100
}
