package models

import (
	"context"
	"encoding/json"
	"fmt"
)

// TournamentSource fetches full tournaments by id.
type TournamentSource interface {
	Tournament(ctx context.Context, id int64) (*Tournament, error)
}

// MatchSource fetches full scheduled matches by id.
type MatchSource interface {
	ScheduledMatch(ctx context.Context, id int64) (*ScheduledMatch, error)
}

// TournamentState is the lifecycle phase of a tournament.
type TournamentState string

const (
	TournamentOngoing  TournamentState = "ONGOING"
	TournamentFinished TournamentState = "FINISHED"
	TournamentCanceled TournamentState = "CANCELED"
)

// MatchType names the match format of a tournament together with its
// format-specific options, which are kept raw.
type MatchType struct {
	Name    string
	Options json.RawMessage
}

func (m *MatchType) UnmarshalJSON(b []byte) error {
	var w struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("match type: %w", err)
	}
	*m = MatchType{Name: w.Name, Options: append(json.RawMessage(nil), b...)}
	return nil
}

func (m MatchType) MarshalJSON() ([]byte, error) {
	if len(m.Options) > 0 {
		return m.Options, nil
	}
	return json.Marshal(struct {
		Name string `json:"name"`
	}{m.Name})
}

// Tournament is a bracket of scheduled matches between the decks of a
// finished limited session. Rounds are only present on the detail endpoint.
type Tournament struct {
	ID             int64                    `json:"id"`
	State          TournamentState          `json:"state"`
	Name           string                   `json:"name"`
	TournamentType string                   `json:"tournament_type"`
	MatchType      MatchType                `json:"match_type"`
	Participants   []*TournamentParticipant `json:"participants"`
	CreatedAt      Timestamp                `json:"created_at"`
	FinishedAt     Timestamp                `json:"finished_at"`
	Rounds         []*TournamentRound       `json:"rounds,omitempty"`
}

// Equal reports whether both values refer to the same tournament.
func (t *Tournament) Equal(other *Tournament) bool {
	return t != nil && other != nil && t.ID == other.ID
}

// EnsureRounds loads the tournament's rounds if they were omitted from this
// entity's payload.
func (t *Tournament) EnsureRounds(ctx context.Context, src TournamentSource) error {
	if t.Rounds != nil {
		return nil
	}
	full, err := src.Tournament(ctx, t.ID)
	if err != nil {
		return err
	}
	t.Rounds = full.Rounds
	return nil
}

// TournamentParticipant is one deck entered into a tournament, optionally
// tied to a player account.
type TournamentParticipant struct {
	ID     int64        `json:"id"`
	Deck   *LimitedDeck `json:"deck"`
	Player *User        `json:"player"`
	Seed   float64      `json:"seed"`
}

// TagLine renders the participant for display, preferring the player name.
func (p *TournamentParticipant) TagLine() string {
	if p.Player == nil {
		return fmt.Sprintf("%s (%s)", p.Deck.Name, p.Deck.User.Username)
	}
	return fmt.Sprintf("%s - %s", p.Player.Username, p.Deck.Name)
}

// TournamentRound is one round of matches within a tournament.
type TournamentRound struct {
	ID      int64             `json:"id"`
	Index   int               `json:"index"`
	Matches []*ScheduledMatch `json:"matches"`
}

// ScheduledMatch is one match between tournament participants. The owning
// tournament is only embedded on the match detail endpoint.
type ScheduledMatch struct {
	ID         int64            `json:"id"`
	Seats      []*ScheduledSeat `json:"seats"`
	Result     *MatchResult     `json:"result"`
	Tournament *Tournament      `json:"tournament,omitempty"`
	Round      int              `json:"round"`
}

// Equal reports whether both values refer to the same match.
func (m *ScheduledMatch) Equal(other *ScheduledMatch) bool {
	return m != nil && other != nil && m.ID == other.ID
}

// EnsureTournament loads the owning tournament if it was omitted from this
// entity's payload.
func (m *ScheduledMatch) EnsureTournament(ctx context.Context, src MatchSource) error {
	if m.Tournament != nil {
		return nil
	}
	full, err := src.ScheduledMatch(ctx, m.ID)
	if err != nil {
		return err
	}
	m.Tournament = full.Tournament
	return nil
}

// ScheduledSeat is one participant's seat in a match.
type ScheduledSeat struct {
	ID          int64                  `json:"id"`
	Participant *TournamentParticipant `json:"participant"`
	Result      *SeatResult            `json:"result"`
}

// MatchResult is the shared outcome of a completed match.
type MatchResult struct {
	ID    int64 `json:"id"`
	Draws int   `json:"draws"`
}

// SeatResult is one seat's outcome in a completed match.
type SeatResult struct {
	ID   int64 `json:"id"`
	Wins int   `json:"wins"`
}
