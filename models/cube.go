package models

import (
	"context"
	"encoding/json"
	"fmt"
)

// VersionedCubeSource fetches full versioned cubes by id.
type VersionedCubeSource interface {
	VersionedCube(ctx context.Context, id int64) (*VersionedCube, error)
}

// ReleaseSource fetches full cube releases by id.
type ReleaseSource interface {
	Release(ctx context.Context, id int64) (*CubeRelease, error)
}

// VersionedCube is a named cube together with its release history. List
// endpoints deliver it without releases; EnsureReleases loads them.
type VersionedCube struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	CreatedAt   Timestamp      `json:"created_at"`
	Description string         `json:"description"`
	Releases    []*CubeRelease `json:"releases,omitempty"`
}

// Equal reports whether both values refer to the same versioned cube.
func (v *VersionedCube) Equal(other *VersionedCube) bool {
	return v != nil && other != nil && v.ID == other.ID
}

// LatestRelease returns the most recent loaded release, or nil when none are
// loaded.
func (v *VersionedCube) LatestRelease() *CubeRelease {
	if len(v.Releases) == 0 {
		return nil
	}
	return v.Releases[len(v.Releases)-1]
}

// EnsureReleases loads the release history if it was omitted from this
// entity's payload.
func (v *VersionedCube) EnsureReleases(ctx context.Context, src VersionedCubeSource) error {
	if v.Releases != nil {
		return nil
	}
	full, err := src.VersionedCube(ctx, v.ID)
	if err != nil {
		return err
	}
	v.Releases = full.Releases
	return nil
}

// CubeRelease is one published snapshot of a versioned cube. Nested payloads
// (the cube itself, constrained nodes) are only present on the detail
// endpoint; Loaded distinguishes the partial form.
type CubeRelease struct {
	ID               int64
	Name             string
	CreatedAt        Timestamp
	IntendedSize     int
	Cube             Cube
	VersionedCube    *VersionedCube
	ConstrainedNodes NodeCollection
	GroupMap         GroupMap
	Infinites        Infinites
}

// The wire format nests constrained nodes and the group map under one key.
type releaseWire struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	CreatedAt        Timestamp      `json:"created_at"`
	IntendedSize     int            `json:"intended_size"`
	Cube             Cube           `json:"cube"`
	VersionedCube    *VersionedCube `json:"versioned_cube,omitempty"`
	ConstrainedNodes *struct {
		ConstrainedNodes NodeCollection `json:"constrained_nodes"`
		GroupMap         GroupMap       `json:"group_map"`
	} `json:"constrained_nodes,omitempty"`
	Infinites Infinites `json:"infinites"`
}

func (r *CubeRelease) UnmarshalJSON(b []byte) error {
	var w releaseWire
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("cube release: %w", err)
	}
	*r = CubeRelease{
		ID:            w.ID,
		Name:          w.Name,
		CreatedAt:     w.CreatedAt,
		IntendedSize:  w.IntendedSize,
		Cube:          w.Cube,
		VersionedCube: w.VersionedCube,
		Infinites:     w.Infinites,
	}
	if w.ConstrainedNodes != nil {
		r.ConstrainedNodes = w.ConstrainedNodes.ConstrainedNodes
		r.GroupMap = w.ConstrainedNodes.GroupMap
	}
	return nil
}

func (r CubeRelease) MarshalJSON() ([]byte, error) {
	w := releaseWire{
		ID:            r.ID,
		Name:          r.Name,
		CreatedAt:     r.CreatedAt,
		IntendedSize:  r.IntendedSize,
		Cube:          r.Cube,
		VersionedCube: r.VersionedCube,
		Infinites:     r.Infinites,
	}
	if present(r.ConstrainedNodes.RawMessage) || present(r.GroupMap.RawMessage) {
		w.ConstrainedNodes = &struct {
			ConstrainedNodes NodeCollection `json:"constrained_nodes"`
			GroupMap         GroupMap       `json:"group_map"`
		}{r.ConstrainedNodes, r.GroupMap}
	}
	return json.Marshal(w)
}

// Equal reports whether both values refer to the same release.
func (r *CubeRelease) Equal(other *CubeRelease) bool {
	return r != nil && other != nil && r.ID == other.ID
}

// Loaded reports whether the release carries its cube payload, as opposed to
// the id-and-name form embedded in list responses.
func (r *CubeRelease) Loaded() bool {
	return present(r.Cube.RawMessage)
}

// EnsureLoaded fetches the full release if this entity is partial.
func (r *CubeRelease) EnsureLoaded(ctx context.Context, src ReleaseSource) error {
	if r.Loaded() {
		return nil
	}
	full, err := src.Release(ctx, r.ID)
	if err != nil {
		return err
	}
	*r = *full
	return nil
}

// Patch is a pending set of changes against a versioned cube.
type Patch struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   Timestamp `json:"created_at"`
	Description string    `json:"description"`
}

// Equal reports whether both values refer to the same patch.
func (p *Patch) Equal(other *Patch) bool {
	return p != nil && other != nil && p.ID == other.ID
}

// MetaCube is the previewed result of applying a patch: the cube it would
// produce together with its node structure.
type MetaCube struct {
	Cube      Cube
	Nodes     NodeCollection
	Groups    GroupMap
	Infinites Infinites
}

func (m *MetaCube) UnmarshalJSON(b []byte) error {
	var w struct {
		Cube  Cube `json:"cube"`
		Nodes struct {
			ConstrainedNodes NodeCollection `json:"constrained_nodes"`
		} `json:"nodes"`
		GroupMap  GroupMap  `json:"group_map"`
		Infinites Infinites `json:"infinites"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("meta cube: %w", err)
	}
	*m = MetaCube{
		Cube:      w.Cube,
		Nodes:     w.Nodes.ConstrainedNodes,
		Groups:    w.GroupMap,
		Infinites: w.Infinites,
	}
	return nil
}

// DistributionPossibility is one generated trap distribution for a patch.
type DistributionPossibility struct {
	ID             int64          `json:"id"`
	CreatedAt      Timestamp      `json:"created_at"`
	PDFURL         string         `json:"pdf_url"`
	Fitness        float64        `json:"fitness"`
	TrapCollection TrapCollection `json:"trap_collection"`
}

// Equal reports whether both values refer to the same possibility.
func (d *DistributionPossibility) Equal(other *DistributionPossibility) bool {
	return d != nil && other != nil && d.ID == other.ID
}
