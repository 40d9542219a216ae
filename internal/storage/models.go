package storage

import apperrors "github.com/telelocator/telelocator-go/internal/errors"

// ErrNotFound is returned when a requested row does not exist. It aliases
// the application-level sentinel so callers can match either package.
var ErrNotFound = apperrors.ErrNotFound

// LocationType classifies a location record.
type LocationType string

// Valid location types.
const (
	TypeCity     LocationType = "city"
	TypeTown     LocationType = "town"
	TypeVillage  LocationType = "village"
	TypePostcode LocationType = "postcode"
	TypeOther    LocationType = "other"
)

// ParseLocationType maps a raw string to a LocationType, defaulting to other.
func ParseLocationType(s string) LocationType {
	switch LocationType(s) {
	case TypeCity, TypeTown, TypeVillage, TypePostcode:
		return LocationType(s)
	default:
		return TypeOther
	}
}

// Label returns the display label for the type.
func (t LocationType) Label() string {
	switch t {
	case TypeCity:
		return "City"
	case TypeTown:
		return "Town"
	case TypeVillage:
		return "Village"
	case TypePostcode:
		return "Postcode"
	default:
		return "Other"
	}
}

// Location represents a location record in the directory.
// Visits is incremented, never decremented, and only through the
// batch/fallback increment paths.
type Location struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Address   string       `json:"address"`
	Type      LocationType `json:"type"`
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
	Rating    float64      `json:"rating"` // 0.0 - 5.0
	Visits    int64        `json:"visits"`
	Active    bool         `json:"active"`
}

// SearchLog is an append-only record of a search action. Query is empty when
// the sanitized query exceeded the privacy bound and was omitted.
type SearchLog struct {
	ID        int64   `json:"id"`
	QueryType string  `json:"query_type"`
	Query     string  `json:"query,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	HasCoords bool    `json:"-"`
	UserID    string  `json:"telegram_user_id"`
	CreatedAt int64   `json:"created_at"` // Unix seconds
}

// Conversation states. A user with no row is in StateStart.
const (
	StateStart                   = "start"
	StateAwaitingLocation        = "awaiting_location"
	StateAwaitingLocationNumbers = "awaiting_location_numbers"
)

// UserState is the per-user conversation state. Version increments on every
// write and backs the compare-and-set path.
type UserState struct {
	UserID    string            `json:"telegram_user_id"`
	State     string            `json:"state"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Version   int64             `json:"version"`
	UpdatedAt int64             `json:"updated_at"` // Unix seconds
}

// TelegramUser is the registry row for a user the bot has seen.
type TelegramUser struct {
	TelegramID string `json:"telegram_id"`
	Username   string `json:"username,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	FirstSeen  int64  `json:"first_seen"` // Unix seconds
	LastSeen   int64  `json:"last_seen"`  // Unix seconds
}
