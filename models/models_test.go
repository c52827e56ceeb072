package models

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampRoundTrip(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"2023-04-05T06:07:08"`), &ts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("parsed %v, want %v", ts.Time, want)
	}

	out, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2023-04-05T06:07:08"` {
		t.Fatalf("marshalled %s", out)
	}
}

func TestTimestampNull(t *testing.T) {
	for _, raw := range []string{"null", `""`} {
		var ts Timestamp
		if err := json.Unmarshal([]byte(raw), &ts); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if !ts.IsZero() {
			t.Fatalf("unmarshal %s: got %v, want zero", raw, ts.Time)
		}
	}

	out, err := json.Marshal(Timestamp{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "null" {
		t.Fatalf("zero timestamp marshalled as %s", out)
	}
}

func TestDecimal(t *testing.T) {
	var d Decimal
	if err := json.Unmarshal([]byte(`"0.25"`), &d); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if f, err := d.Float64(); err != nil || f != 0.25 {
		t.Fatalf("Float64 = (%v, %v)", f, err)
	}

	if err := json.Unmarshal([]byte(`0.5`), &d); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if d != "0.5" {
		t.Fatalf("numeric decimal = %q", d)
	}
}

func TestCubeReleasePartialAndFull(t *testing.T) {
	var partial CubeRelease
	if err := json.Unmarshal([]byte(`{"id": 7, "name": "first"}`), &partial); err != nil {
		t.Fatalf("unmarshal partial: %v", err)
	}
	if partial.Loaded() {
		t.Fatal("partial release reports Loaded")
	}

	full := []byte(`{
		"id": 7,
		"name": "first",
		"created_at": "2023-01-02T03:04:05",
		"intended_size": 360,
		"cube": {"printings": []},
		"constrained_nodes": {
			"constrained_nodes": {"nodes": []},
			"group_map": {"groups": {}}
		},
		"infinites": {"cardboards": []}
	}`)
	var release CubeRelease
	if err := json.Unmarshal(full, &release); err != nil {
		t.Fatalf("unmarshal full: %v", err)
	}
	if !release.Loaded() {
		t.Fatal("full release reports not Loaded")
	}
	if release.IntendedSize != 360 {
		t.Fatalf("IntendedSize = %d", release.IntendedSize)
	}
	if !present(release.ConstrainedNodes.RawMessage) || !present(release.GroupMap.RawMessage) {
		t.Fatal("nested constrained nodes not unpacked")
	}
	if !release.Equal(&partial) {
		t.Fatal("releases with equal ids not Equal")
	}
}

type fakeReleaseSource struct {
	release *CubeRelease
	calls   int
}

func (f *fakeReleaseSource) Release(context.Context, int64) (*CubeRelease, error) {
	f.calls++
	return f.release, nil
}

func TestCubeReleaseEnsureLoaded(t *testing.T) {
	full := &CubeRelease{
		ID:           7,
		Name:         "first",
		IntendedSize: 360,
		Cube:         Cube{json.RawMessage(`{"printings": []}`)},
	}
	src := &fakeReleaseSource{release: full}

	release := &CubeRelease{ID: 7, Name: "first"}
	if err := release.EnsureLoaded(context.Background(), src); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	if release.IntendedSize != 360 {
		t.Fatalf("IntendedSize = %d after load", release.IntendedSize)
	}

	if err := release.EnsureLoaded(context.Background(), src); err != nil {
		t.Fatalf("EnsureLoaded again: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("loaded release fetched again, calls = %d", src.calls)
	}
}

func TestBoosterSpecificationVariants(t *testing.T) {
	cases := []struct {
		raw  string
		kind string
	}{
		{
			`{"type": "CubeBoosterSpecification", "id": 1, "amount": 3,
			  "release": {"id": 7, "name": "first"}, "size": 15,
			  "allow_intersection": false, "allow_repeat": true}`,
			"CubeBoosterSpecification",
		},
		{
			`{"type": "ExpansionBoosterSpecification", "id": 2, "amount": 6, "expansion_code": "MH2"}`,
			"ExpansionBoosterSpecification",
		},
		{
			`{"type": "AllCardsBoosterSpecification", "id": 3, "amount": 1, "respect_printings": true}`,
			"AllCardsBoosterSpecification",
		},
		{
			`{"type": "ChaosBoosterSpecification", "id": 4, "amount": 2, "same": false}`,
			"ChaosBoosterSpecification",
		},
	}

	for _, c := range cases {
		spec, err := UnmarshalBoosterSpecification(json.RawMessage(c.raw))
		if err != nil {
			t.Fatalf("%s: %v", c.kind, err)
		}
		if spec.Kind() != c.kind {
			t.Fatalf("Kind() = %s, want %s", spec.Kind(), c.kind)
		}
	}

	cube, err := UnmarshalBoosterSpecification(json.RawMessage(cases[0].raw))
	if err != nil {
		t.Fatalf("cube spec: %v", err)
	}
	cubeSpec, ok := cube.(*CubeBoosterSpecification)
	if !ok {
		t.Fatalf("cube spec decoded as %T", cube)
	}
	if cubeSpec.Size != 15 || !cubeSpec.AllowRepeat || cubeSpec.Release.ID != 7 {
		t.Fatalf("cube spec fields: %+v", cubeSpec)
	}
	if cubeSpec.BoosterAmount() != 3 || cubeSpec.SpecID() != 1 {
		t.Fatalf("base accessors: amount %d id %d", cubeSpec.BoosterAmount(), cubeSpec.SpecID())
	}
}

func TestBoosterSpecificationUnknownType(t *testing.T) {
	_, err := UnmarshalBoosterSpecification(json.RawMessage(`{"type": "Mystery", "id": 1}`))
	if err == nil {
		t.Fatal("unknown discriminator accepted")
	}
}

func TestPoolSpecificationUnmarshal(t *testing.T) {
	raw := `{
		"id": 11,
		"specifications": [
			{"type": "ChaosBoosterSpecification", "id": 4, "amount": 2, "same": false},
			{"type": "AllCardsBoosterSpecification", "id": 3, "amount": 1, "respect_printings": true}
		]
	}`
	var spec PoolSpecification
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if spec.ID != 11 || len(spec.Specifications) != 2 {
		t.Fatalf("decoded %+v", spec)
	}
	if spec.Specifications[0].Kind() != "ChaosBoosterSpecification" {
		t.Fatalf("first spec kind = %s", spec.Specifications[0].Kind())
	}
}

func TestDeckRefForms(t *testing.T) {
	var byID DeckRef
	if err := json.Unmarshal([]byte(`42`), &byID); err != nil {
		t.Fatalf("unmarshal id form: %v", err)
	}
	if byID.ID != 42 || byID.Deck != nil {
		t.Fatalf("id form decoded as %+v", byID)
	}

	var embedded DeckRef
	raw := `{"id": 42, "name": "aggro", "created_at": "2023-01-02T03:04:05", "user": {"id": 1, "username": "alice"}}`
	if err := json.Unmarshal([]byte(raw), &embedded); err != nil {
		t.Fatalf("unmarshal embedded form: %v", err)
	}
	if embedded.ID != 42 || embedded.Deck == nil || embedded.Deck.Name != "aggro" {
		t.Fatalf("embedded form decoded as %+v", embedded)
	}
}

func TestMetaCubeUnmarshal(t *testing.T) {
	raw := `{
		"cube": {"printings": []},
		"nodes": {"constrained_nodes": {"nodes": []}},
		"group_map": {"groups": {}},
		"infinites": {"cardboards": []}
	}`
	var meta MetaCube
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !present(meta.Cube.RawMessage) || !present(meta.Nodes.RawMessage) {
		t.Fatalf("decoded %+v", meta)
	}
}

func TestPrintingAndCardboardForms(t *testing.T) {
	var p Printing
	if err := json.Unmarshal([]byte(`12345`), &p); err != nil {
		t.Fatalf("printing id form: %v", err)
	}
	if p.ID != 12345 {
		t.Fatalf("printing id form decoded as %+v", p)
	}
	if err := json.Unmarshal([]byte(`{"id": 5, "name": "Island"}`), &p); err != nil {
		t.Fatalf("printing object form: %v", err)
	}
	if p.Name != "Island" {
		t.Fatalf("printing object form decoded as %+v", p)
	}

	var c Cardboard
	if err := json.Unmarshal([]byte(`"Island"`), &c); err != nil {
		t.Fatalf("cardboard name form: %v", err)
	}
	if c.Name != "Island" {
		t.Fatalf("cardboard name form decoded as %+v", c)
	}
}

func TestRatingMapLookup(t *testing.T) {
	m := &RatingMap{
		ID: 1,
		Ratings: []*CubeableRating{
			{ID: 1, CardboardCubeable: json.RawMessage(`"Island"`), Rating: 1500},
			{ID: 2, CardboardCubeable: json.RawMessage(`{"node": "x"}`), Rating: 1600},
		},
	}

	rating, ok := m.Rating("Island")
	if !ok || rating.Rating != 1500 {
		t.Fatalf("Rating(Island) = (%+v, %v)", rating, ok)
	}

	rating, ok = m.Rating(`{"node": "x"}`)
	if !ok || rating.Rating != 1600 {
		t.Fatalf("Rating by raw payload = (%+v, %v)", rating, ok)
	}

	if _, ok := m.Rating("Mountain"); ok {
		t.Fatal("absent cubeable reported present")
	}
}

func TestSessionStateDecodes(t *testing.T) {
	raw := `{
		"id": 3,
		"name": "friday sealed",
		"game_type": "sealed",
		"format": "limited_15",
		"players": [{"id": 1, "username": "alice"}],
		"state": "DECK_BUILDING",
		"open_decks": false,
		"open_pools": false,
		"created_at": "2023-01-02T03:04:05",
		"pool_specification": {
			"id": 11,
			"specifications": [{"type": "ChaosBoosterSpecification", "id": 4, "amount": 2, "same": false}]
		},
		"infinites": {"cardboards": []}
	}`
	var session LimitedSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if session.State != SessionDeckBuilding {
		t.Fatalf("State = %q", session.State)
	}
	if session.Pools != nil {
		t.Fatal("pools present on list-form session")
	}
	if len(session.Players) != 1 || session.Players[0].Username != "alice" {
		t.Fatalf("players decoded as %+v", session.Players)
	}
}
