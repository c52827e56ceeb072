package models

import (
	"context"
	"encoding/json"
)

// RatingMapSource fetches full rating maps by id.
type RatingMapSource interface {
	Ratings(ctx context.Context, id int64) (*RatingMap, error)
}

// RatingPoint is one historic rating sample of a cubeable within a release's
// rating maps.
type RatingPoint struct {
	ID        int64      `json:"id"`
	Rating    int        `json:"rating"`
	RatingMap *RatingMap `json:"rating_map"`
}

// NodeRatingPoint is one historic rating sample of a node, weighted by its
// share of the node's parent.
type NodeRatingPoint struct {
	ID              int64      `json:"id"`
	RatingComponent int        `json:"rating_component"`
	Weight          Decimal    `json:"weight"`
	RatingMap       *RatingMap `json:"rating_map"`
}

// CubeableRating is the rating of one cardboard cubeable in a rating map.
// The cubeable itself and its example instantiation are opaque card
// collection payloads.
type CubeableRating struct {
	ID                int64           `json:"id"`
	CardboardCubeable json.RawMessage `json:"cardboard_cubeable"`
	ExampleCubeable   json.RawMessage `json:"example_cubeable"`
	Rating            int             `json:"rating"`
}

// CubeableKey returns the lookup key of the rated cubeable: the bare value
// for string-named cubeables, otherwise the raw payload text.
func (r *CubeableRating) CubeableKey() string {
	var s string
	if err := json.Unmarshal(r.CardboardCubeable, &s); err == nil {
		return s
	}
	return string(r.CardboardCubeable)
}

// NodeRatingComponent is the weighted rating contribution of one node in a
// rating map.
type NodeRatingComponent struct {
	ID              int64           `json:"id"`
	Node            json.RawMessage `json:"node"`
	RatingComponent int             `json:"rating_component"`
	Weight          Decimal         `json:"weight"`
}

// RatingMap is the full set of ratings attached to a cube release at one
// point in time. List and relation endpoints deliver it without the rating
// entries; EnsureRatings loads them.
type RatingMap struct {
	ID                   int64                  `json:"id"`
	Release              *CubeRelease           `json:"release"`
	CreatedAt            Timestamp              `json:"created_at"`
	Ratings              []*CubeableRating      `json:"ratings,omitempty"`
	NodeRatingComponents []*NodeRatingComponent `json:"node_rating_components,omitempty"`

	index map[string]*CubeableRating
}

// Equal reports whether both values refer to the same rating map.
func (m *RatingMap) Equal(other *RatingMap) bool {
	return m != nil && other != nil && m.ID == other.ID
}

// EnsureRatings loads the rating entries if they were omitted from this
// entity's payload.
func (m *RatingMap) EnsureRatings(ctx context.Context, src RatingMapSource) error {
	if m.Ratings != nil {
		return nil
	}
	full, err := src.Ratings(ctx, m.ID)
	if err != nil {
		return err
	}
	m.Ratings = full.Ratings
	m.NodeRatingComponents = full.NodeRatingComponents
	return nil
}

// Rating looks up the rating of a cubeable by its key. Ratings must already
// be loaded; lookups on a partial map report not found.
func (m *RatingMap) Rating(key string) (*CubeableRating, bool) {
	if m.index == nil {
		m.index = make(map[string]*CubeableRating, len(m.Ratings))
		for _, rating := range m.Ratings {
			m.index[rating.CubeableKey()] = rating
		}
	}
	rating, ok := m.index[key]
	return rating, ok
}
