package models

import (
	"context"
	"encoding/json"
	"fmt"
)

// SessionSource fetches full limited sessions by id.
type SessionSource interface {
	LimitedSession(ctx context.Context, id int64) (*LimitedSession, error)
}

// PoolSource fetches full limited pools by id.
type PoolSource interface {
	LimitedPool(ctx context.Context, id int64) (*LimitedPool, error)
}

// DeckSource fetches full limited decks by id.
type DeckSource interface {
	LimitedDeck(ctx context.Context, id int64) (*LimitedDeck, error)
}

// SessionState is the lifecycle phase of a limited session.
type SessionState string

const (
	SessionDeckBuilding SessionState = "DECK_BUILDING"
	SessionPlaying      SessionState = "PLAYING"
	SessionFinished     SessionState = "FINISHED"
)

// BoosterSpecification describes how one kind of booster in a pool is
// generated. Concrete kinds are CubeBoosterSpecification,
// ExpansionBoosterSpecification, AllCardsBoosterSpecification and
// ChaosBoosterSpecification; the wire format selects the kind with a "type"
// discriminator.
type BoosterSpecification interface {
	// Kind returns the wire discriminator of the specification.
	Kind() string
	// SpecID returns the specification's id.
	SpecID() int64
	// BoosterAmount returns how many boosters the specification produces.
	BoosterAmount() int
}

type boosterSpecificationBase struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

func (b boosterSpecificationBase) SpecID() int64      { return b.ID }
func (b boosterSpecificationBase) BoosterAmount() int { return b.Amount }

// CubeBoosterSpecification generates boosters from a cube release.
type CubeBoosterSpecification struct {
	boosterSpecificationBase
	Release           *CubeRelease `json:"release"`
	Size              int          `json:"size"`
	AllowIntersection bool         `json:"allow_intersection"`
	AllowRepeat       bool         `json:"allow_repeat"`
}

func (*CubeBoosterSpecification) Kind() string { return "CubeBoosterSpecification" }

// ExpansionBoosterSpecification generates boosters from one expansion.
type ExpansionBoosterSpecification struct {
	boosterSpecificationBase
	ExpansionCode string `json:"expansion_code"`
}

func (*ExpansionBoosterSpecification) Kind() string { return "ExpansionBoosterSpecification" }

// AllCardsBoosterSpecification generates boosters from the full card pool.
type AllCardsBoosterSpecification struct {
	boosterSpecificationBase
	RespectPrintings bool `json:"respect_printings"`
}

func (*AllCardsBoosterSpecification) Kind() string { return "AllCardsBoosterSpecification" }

// ChaosBoosterSpecification generates boosters from random expansions.
type ChaosBoosterSpecification struct {
	boosterSpecificationBase
	Same bool `json:"same"`
}

func (*ChaosBoosterSpecification) Kind() string { return "ChaosBoosterSpecification" }

// UnmarshalBoosterSpecification decodes one booster specification, selecting
// the concrete kind from the "type" discriminator.
func UnmarshalBoosterSpecification(raw json.RawMessage) (BoosterSpecification, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("booster specification: %w", err)
	}

	var spec BoosterSpecification
	switch head.Type {
	case "CubeBoosterSpecification":
		spec = &CubeBoosterSpecification{}
	case "ExpansionBoosterSpecification":
		spec = &ExpansionBoosterSpecification{}
	case "AllCardsBoosterSpecification":
		spec = &AllCardsBoosterSpecification{}
	case "ChaosBoosterSpecification":
		spec = &ChaosBoosterSpecification{}
	default:
		return nil, fmt.Errorf("booster specification: unknown type %q", head.Type)
	}
	if err := json.Unmarshal(raw, spec); err != nil {
		return nil, fmt.Errorf("booster specification %s: %w", head.Type, err)
	}
	return spec, nil
}

// PoolSpecification is the full booster layout of a limited session.
type PoolSpecification struct {
	ID             int64
	Specifications []BoosterSpecification
}

func (p *PoolSpecification) UnmarshalJSON(b []byte) error {
	var w struct {
		ID             int64             `json:"id"`
		Specifications []json.RawMessage `json:"specifications"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("pool specification: %w", err)
	}
	specs := make([]BoosterSpecification, 0, len(w.Specifications))
	for _, raw := range w.Specifications {
		spec, err := UnmarshalBoosterSpecification(raw)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}
	*p = PoolSpecification{ID: w.ID, Specifications: specs}
	return nil
}

// LimitedSession is a sealed or draft event: a set of players, each with a
// generated pool, playing a configured format. Pools are only present on the
// detail endpoint.
type LimitedSession struct {
	ID                int64              `json:"id"`
	Name              string             `json:"name"`
	GameType          string             `json:"game_type"`
	Format            string             `json:"format"`
	Players           []*User            `json:"players"`
	State             SessionState       `json:"state"`
	OpenDecks         bool               `json:"open_decks"`
	OpenPools         bool               `json:"open_pools"`
	CreatedAt         Timestamp          `json:"created_at"`
	PoolSpecification *PoolSpecification `json:"pool_specification"`
	Infinites         Infinites          `json:"infinites"`
	Pools             []*LimitedPool     `json:"pools,omitempty"`
}

// Equal reports whether both values refer to the same session.
func (s *LimitedSession) Equal(other *LimitedSession) bool {
	return s != nil && other != nil && s.ID == other.ID
}

// EnsurePools loads the session's pools if they were omitted from this
// entity's payload.
func (s *LimitedSession) EnsurePools(ctx context.Context, src SessionSource) error {
	if s.Pools != nil {
		return nil
	}
	full, err := src.LimitedSession(ctx, s.ID)
	if err != nil {
		return err
	}
	s.Pools = full.Pools
	return nil
}

// LimitedDeck is a deck built from a limited pool. The deck payload itself is
// only present on the detail endpoint.
type LimitedDeck struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt Timestamp `json:"created_at"`
	User      *User     `json:"user"`
	Deck      Deck      `json:"deck,omitempty"`
}

// Equal reports whether both values refer to the same deck.
func (d *LimitedDeck) Equal(other *LimitedDeck) bool {
	return d != nil && other != nil && d.ID == other.ID
}

// Loaded reports whether the deck payload is present.
func (d *LimitedDeck) Loaded() bool {
	return present(d.Deck.RawMessage)
}

// EnsureLoaded fetches the full deck if this entity is partial.
func (d *LimitedDeck) EnsureLoaded(ctx context.Context, src DeckSource) error {
	if d.Loaded() {
		return nil
	}
	full, err := src.LimitedDeck(ctx, d.ID)
	if err != nil {
		return err
	}
	*d = *full
	return nil
}

// DeckRef is a reference to a limited deck. Depending on the endpoint the
// service delivers either the bare deck id or an embedded deck object; Deck
// is nil in the former case.
type DeckRef struct {
	ID   int64
	Deck *LimitedDeck
}

func (d *DeckRef) UnmarshalJSON(b []byte) error {
	var id int64
	if err := json.Unmarshal(b, &id); err == nil {
		*d = DeckRef{ID: id}
		return nil
	}
	var deck LimitedDeck
	if err := json.Unmarshal(b, &deck); err != nil {
		return fmt.Errorf("deck ref: %w", err)
	}
	*d = DeckRef{ID: deck.ID, Deck: &deck}
	return nil
}

// LimitedPool is one player's generated card pool within a session, together
// with the decks built from it.
type LimitedPool struct {
	ID      int64           `json:"id"`
	User    *User           `json:"user"`
	Decks   []DeckRef       `json:"decks"`
	Session *LimitedSession `json:"session,omitempty"`
	Pool    Cube            `json:"pool,omitempty"`
}

// Equal reports whether both values refer to the same pool.
func (p *LimitedPool) Equal(other *LimitedPool) bool {
	return p != nil && other != nil && p.ID == other.ID
}

// LatestDeck returns the most recently built deck reference, or nil when no
// deck has been built.
func (p *LimitedPool) LatestDeck() *DeckRef {
	if len(p.Decks) == 0 {
		return nil
	}
	return &p.Decks[len(p.Decks)-1]
}

// Loaded reports whether the pool carries its card payload and embedded
// decks, as opposed to the reference form embedded in session payloads.
func (p *LimitedPool) Loaded() bool {
	return present(p.Pool.RawMessage)
}

// EnsureLoaded fetches the full pool if this entity is partial.
func (p *LimitedPool) EnsureLoaded(ctx context.Context, src PoolSource) error {
	if p.Loaded() {
		return nil
	}
	full, err := src.LimitedPool(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *full
	return nil
}
