package storage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies one user/feature pair. All per-day records are stored
// under a key derived from it by one encoding function, so feature code
// never builds storage keys by hand.
type Key struct {
	UserKey    string
	FeatureKey string
}

// Encode returns the canonical storage key for this pair.
func (k Key) Encode() string {
	return k.UserKey + "/" + k.FeatureKey
}

// String implements fmt.Stringer for logging.
func (k Key) String() string { return k.Encode() }

// FlagStatus represents a daily completion status.
type FlagStatus string

const (
	StatusNone FlagStatus = "NONE"
	StatusDone FlagStatus = "DONE"
)

// ParseFlagStatus normalizes a persisted status value. The legacy value
// "PERFECT" reads as DONE. Every decode path goes through here so old
// records behave the same in all backends.
func ParseFlagStatus(raw string) (FlagStatus, error) {
	switch normalized := FlagStatus(strings.ToUpper(raw)); normalized {
	case StatusNone, StatusDone:
		return normalized, nil
	case "PERFECT":
		return StatusDone, nil
	default:
		return "", fmt.Errorf("invalid completion status: %s (must be NONE or DONE)", raw)
	}
}

// UnmarshalJSON implements json.Unmarshaler to normalize the status.
func (s *FlagStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	status, err := ParseFlagStatus(raw)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// MarshalJSON implements json.Marshaler to ensure uppercase output.
func (s FlagStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UsageCounter counts chargeable actions per user/feature/day.
// A counter whose Day is not the current day key is stale and reads as
// zero; rollover happens lazily on the next access.
type UsageCounter struct {
	UserKey    string `json:"user_key"`
	FeatureKey string `json:"feature_key"`
	Day        string `json:"day"`
	Count      int64  `json:"count"`
}

// Key returns the user/feature pair the counter belongs to.
func (c UsageCounter) Key() Key {
	return Key{UserKey: c.UserKey, FeatureKey: c.FeatureKey}
}

// CompletionFlag records that a user finished a feature for the day.
// A DONE flag is honored only while Day equals the current day key.
type CompletionFlag struct {
	UserKey    string     `json:"user_key"`
	FeatureKey string     `json:"feature_key"`
	Day        string     `json:"day"`
	Status     FlagStatus `json:"status"`
}

// Key returns the user/feature pair the flag belongs to.
func (f CompletionFlag) Key() Key {
	return Key{UserKey: f.UserKey, FeatureKey: f.FeatureKey}
}

// TimerState holds persisted countdown state so a session window
// survives reconnects within the same day.
type TimerState struct {
	UserKey    string `json:"user_key"`
	FeatureKey string `json:"feature_key"`
	Day        string `json:"day"`
	TimeLeft   int    `json:"time_left"`
	Duration   int    `json:"duration"`
}

// Key returns the user/feature pair the timer belongs to.
func (t TimerState) Key() Key {
	return Key{UserKey: t.UserKey, FeatureKey: t.FeatureKey}
}
