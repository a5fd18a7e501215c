package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-catalog/pkg/models"
)

// Date layouts seen in the feeds, tried in order
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Reshape maps a catalog record onto the games table shape.
// The store id is never known to the feeds and stays nil.
func Reshape(rec Record) models.GameInput {
	published := models.FlexBool(true)

	in := models.GameInput{
		GameFields: models.GameFields{
			PublisherID: rec.PublisherID,
			Name:        rec.Name,
			Platform:    rec.OS,
			BundleID:    rec.BundleID,
			AppVersion:  rec.Version,
			IsPublished: &published,
		},
		CreatedAt: parseDate(rec.ReleaseDate),
		UpdatedAt: parseDate(rec.UpdatedDate),
	}

	// non-numeric app ids (e.g. package names) leave the id to the store
	if rec.AppID != nil {
		if id, err := strconv.ParseInt(strings.TrimSpace(rec.AppID.String()), 10, 64); err == nil {
			in.ID = &id
		}
	}

	return in
}

// ReshapeAll maps every record, preserving order
func ReshapeAll(records []Record) []models.GameInput {
	out := make([]models.GameInput, len(records))
	for i, rec := range records {
		out[i] = Reshape(rec)
	}
	return out
}

func parseDate(value *string) *time.Time {
	if value == nil {
		return nil
	}
	s := strings.TrimSpace(*value)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
