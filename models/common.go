package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// TimeLayout is the timestamp format used throughout the service's wire
// format. Timestamps carry no zone information.
const TimeLayout = "2006-01-02T15:04:05"

// Timestamp is a time.Time that marshals with TimeLayout. The zero value
// marshals as null and decodes from null or the empty string.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(TimeLayout))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == nil || *s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(TimeLayout, *s)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	t.Time = parsed
	return nil
}

// Cube is an opaque serialized card collection.
type Cube struct{ json.RawMessage }

// NodeCollection is an opaque serialized set of constrained nodes.
type NodeCollection struct{ json.RawMessage }

// GroupMap is an opaque serialized group weight map.
type GroupMap struct{ json.RawMessage }

// Infinites is an opaque serialized infinites collection.
type Infinites struct{ json.RawMessage }

// TrapCollection is an opaque serialized trap collection.
type TrapCollection struct{ json.RawMessage }

// VerboseCubePatch is an opaque serialized verbose patch delta.
type VerboseCubePatch struct{ json.RawMessage }

// Deck is an opaque serialized deck.
type Deck struct{ json.RawMessage }

// present reports whether an opaque payload was actually delivered, as
// opposed to omitted from a partial entity.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// Decimal is an exact decimal carried as its wire string. The service sends
// weights as strings to avoid float rounding; Decimal preserves that and
// converts on demand.
type Decimal string

func (d *Decimal) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*d = Decimal(s)
		return nil
	}
	var f json.Number
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("decimal: %w", err)
	}
	*d = Decimal(f.String())
	return nil
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(d))
}

// Float64 converts the decimal to a float64.
func (d Decimal) Float64() (float64, error) {
	return strconv.ParseFloat(string(d), 64)
}

func (d Decimal) String() string {
	return string(d)
}

// User is a registered account on the service.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Equal reports whether both users refer to the same account.
func (u *User) Equal(other *User) bool {
	return u != nil && other != nil && u.ID == other.ID
}

// DBInfo describes the card database snapshot the service currently serves.
type DBInfo struct {
	CreatedAt         Timestamp `json:"created_at"`
	JSONUpdatedAt     Timestamp `json:"json_updated_at"`
	LastExpansionName string    `json:"last_expansion_name"`
	Checksum          string    `json:"checksum"`
}

// Printing identifies one printing of a card. Search results may deliver a
// bare printing id or a full object.
type Printing struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (p *Printing) UnmarshalJSON(b []byte) error {
	var id int64
	if err := json.Unmarshal(b, &id); err == nil {
		*p = Printing{ID: id}
		return nil
	}
	type plain Printing
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("printing: %w", err)
	}
	*p = Printing(v)
	return nil
}

// Equal reports whether both values identify the same printing.
func (p *Printing) Equal(other *Printing) bool {
	return p != nil && other != nil && p.ID == other.ID
}

// Cardboard identifies a card independent of printing. Search results may
// deliver a bare name or a full object.
type Cardboard struct {
	Name string `json:"name"`
}

func (c *Cardboard) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*c = Cardboard{Name: name}
		return nil
	}
	type plain Cardboard
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("cardboard: %w", err)
	}
	*c = Cardboard(v)
	return nil
}

// Equal reports whether both values name the same cardboard.
func (c *Cardboard) Equal(other *Cardboard) bool {
	return c != nil && other != nil && c.Name == other.Name
}
