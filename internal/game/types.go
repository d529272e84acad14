// internal/game/types.go
//
// Core type definitions for the game engine.
// Defines:
//   - Mark: per-letter result of a guess (correct/present/absent).
//   - Owner: who a session belongs to (anonymous or a user).
//   - Status: explicit session lifecycle (active → won | lost).
//   - SessionRecord: the persisted shape of a session.

package game

import "time"

// Mark represents the evaluation result for a single letter in a guess.
//   - "correct": letter is in the target at this position.
//   - "present": letter is in the target at another, unconsumed position.
//   - "absent":  letter has no remaining occurrence in the target.
type Mark string

const (
	MarkCorrect Mark = "correct"
	MarkPresent Mark = "present"
	MarkAbsent  Mark = "absent"
)

// LetterResult is one position of a classified guess.
type LetterResult struct {
	Letter string `json:"letter"`
	Status Mark   `json:"status"`
}

// Result is the ordered per-letter classification of a guess.
type Result []LetterResult

// AllCorrect reports whether every position is MarkCorrect.
func (r Result) AllCorrect() bool {
	for _, l := range r {
		if l.Status != MarkCorrect {
			return false
		}
	}
	return len(r) > 0
}

// GuessRecord is one recorded guess with its classification.
type GuessRecord struct {
	Guess  string `json:"guess"`
	Result Result `json:"result"`
}

// Owner identifies who may play a session: nobody in particular, or one user.
// The zero value is Anonymous.
type Owner struct {
	userID string
}

// Anonymous returns the owner of sessions started without an account.
func Anonymous() Owner { return Owner{} }

// UserOwner returns the owner for a registered user. An empty id is Anonymous.
func UserOwner(id string) Owner { return Owner{userID: id} }

// UserID returns the user id and true, or "" and false for Anonymous.
func (o Owner) UserID() (string, bool) {
	return o.userID, o.userID != ""
}

// Permits reports whether requester may read or play a session owned by o.
// Anonymous sessions are open to everyone; user sessions only to that user.
func (o Owner) Permits(requester Owner) bool {
	id, owned := o.UserID()
	if !owned {
		return true
	}
	rid, ok := requester.UserID()
	return ok && rid == id
}

func (o Owner) String() string {
	if id, ok := o.UserID(); ok {
		return "user:" + id
	}
	return "anonymous"
}

// Status is the lifecycle state of a session. Won and Lost are terminal.
type Status string

const (
	StatusActive Status = "active"
	StatusWon    Status = "won"
	StatusLost   Status = "lost"
)

// Over reports whether s is terminal.
func (s Status) Over() bool { return s == StatusWon || s == StatusLost }

// SessionRecord is the storage shape of a session.
// Stores persist and return it verbatim; the Manager turns it into a Session.
type SessionRecord struct {
	ID           string
	Owner        Owner
	TargetWord   string // normalized
	OriginalWord string // display form
	Guesses      []GuessRecord
	Status       Status
	CreatedAt    time.Time
}

// HistoryEntry is a completed game of a registered user.
type HistoryEntry struct {
	UserID    string        `json:"-"`
	Word      string        `json:"word"`
	Guesses   []GuessRecord `json:"guesses"`
	Won       bool          `json:"won"`
	Attempts  int           `json:"attempts"`
	CreatedAt time.Time     `json:"createdAt"`
}
