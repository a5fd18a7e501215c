package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexString holds an identifier that arrives either as a JSON string or a JSON number
// (publisher ids are numeric on one storefront and textual on the other).
// It is written back in the JSON kind it was read in.
type FlexString struct {
	Value   string
	Numeric bool
}

// NewFlexString returns a textual identifier
func NewFlexString(s string) FlexString {
	return FlexString{Value: s}
}

// NewFlexNumber returns a numeric identifier; n must be a JSON number literal
func NewFlexNumber(n string) FlexString {
	return FlexString{Value: n, Numeric: true}
}

// UnmarshalJSON accepts both `"abc"` and `123`
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = NewFlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*f = NewFlexNumber(n.String())
	return nil
}

// MarshalJSON writes numbers bare and everything else as a JSON string
func (f FlexString) MarshalJSON() ([]byte, error) {
	if f.Numeric && isNumberLiteral(f.Value) {
		return []byte(f.Value), nil
	}
	return json.Marshal(f.Value)
}

// String returns the identifier as text
func (f FlexString) String() string {
	return f.Value
}

func isNumberLiteral(s string) bool {
	if s == "" || !(s[0] == '-' || (s[0] >= '0' && s[0] <= '9')) {
		return false
	}
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}

// FlexBool is a boolean that also accepts "true"/"false" strings and 0/1
type FlexBool bool

// UnmarshalJSON accepts true, "true", "1", 1 and their false counterparts
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}

	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("expected boolean, got %s", string(data))
	}
	*b = FlexBool(v)
	return nil
}

// GameFields are the client-writable columns of a game.
// Every field is optional; a nil pointer is stored as NULL.
type GameFields struct {
	PublisherID *FlexString `json:"publisherId"`
	Name        *string     `json:"name"`
	Platform    *string     `json:"platform"` // "android", "ios", ... (free text)
	StoreID     *string     `json:"storeId"`
	BundleID    *string     `json:"bundleId"`
	AppVersion  *string     `json:"appVersion"`
	IsPublished *FlexBool   `json:"isPublished"`
}

// Game represents a stored game row
type Game struct {
	ID int64 `json:"id"`
	GameFields
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GameInput is a game to be inserted by the catalog import.
// ID and the timestamps are optional overrides; nil leaves them to the store.
type GameInput struct {
	ID *int64
	GameFields
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// SearchRequest is the body of POST /api/games/search
type SearchRequest struct {
	Name     *string `json:"name"`
	Platform *string `json:"platform"`
}

// DeleteResponse is returned after a game is removed
type DeleteResponse struct {
	ID int64 `json:"id"`
}

// ImportResult summarizes one catalog populate run
type ImportResult struct {
	Fetched   int  `json:"fetched"`
	Persisted int  `json:"persisted"`
	Persist   bool `json:"persist"`
}
