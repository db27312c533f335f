// Package backend talks to the shop owner's script-based booking backend.
package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	ActionGetSettings = "getSettings"
	ActionGetBookings = "getBookings"

	// DateLayout is the calendar-date format the backend expects.
	DateLayout = "2006-01-02"
)

// Settings is the shop display metadata. Every field is optional.
type Settings struct {
	ShopName     string `json:"shop_name"`
	ContactPhone string `json:"contact_phone"`
	ContactLine  string `json:"contact_line"`
}

// Spreadsheet-backed scripts emit cells as numbers or booleans when the
// owner types e.g. a phone number without dashes, so settings fields accept
// any JSON scalar.
type settingsPayload struct {
	ShopName     flexString `json:"shop_name"`
	ContactPhone flexString `json:"contact_phone"`
	ContactLine  flexString `json:"contact_line"`
	Error        flexString `json:"error"`
}

func (p settingsPayload) settings() Settings {
	return Settings{
		ShopName:     strings.TrimSpace(string(p.ShopName)),
		ContactPhone: strings.TrimSpace(string(p.ContactPhone)),
		ContactLine:  strings.TrimSpace(string(p.ContactLine)),
	}
}

type bookingsPayload struct {
	BookedTimes []string   `json:"bookedTimes"`
	Error       flexString `json:"error"`
}

// reporter is a decoded payload that may carry the backend's own error text.
type reporter interface {
	reportedError() string
}

func (p *settingsPayload) reportedError() string { return strings.TrimSpace(string(p.Error)) }
func (p *bookingsPayload) reportedError() string { return strings.TrimSpace(string(p.Error)) }

// flexString decodes strings verbatim, numbers as their literal text, and
// null or booleans as empty.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case 'n', 't', 'f':
		*f = ""
	case '{', '[':
		return fmt.Errorf("unexpected JSON value %s", data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = flexString(n.String())
	}
	return nil
}

// ErrorKind separates settings failures from bookings failures.
type ErrorKind string

const (
	KindSettings ErrorKind = "settings"
	KindBookings ErrorKind = "bookings"
)

var (
	// ErrNotConfigured is returned when no backend URL was provided.
	ErrNotConfigured = errors.New("backend: url not configured")
	// ErrUpstreamStatus marks a non-2xx response.
	ErrUpstreamStatus = errors.New("backend: unexpected status")
	// ErrDecode marks a body that is not the expected JSON.
	ErrDecode = errors.New("backend: invalid response body")
	// ErrReported marks a payload carrying an "error" field.
	ErrReported = errors.New("backend: reported error")
)

// FetchError wraps any failure of a single backend call.
type FetchError struct {
	Kind       ErrorKind
	Date       string // bookings only
	StatusCode int    // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.Date != "" {
		return fmt.Sprintf("fetch %s for %s: %v", e.Kind, e.Date, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsSettingsError reports whether err is a SettingsFetchError.
func IsSettingsError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == KindSettings
}

// IsBookingsError reports whether err is a BookingsFetchError.
func IsBookingsError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == KindBookings
}

// outcome buckets an error for metrics labels.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotConfigured):
		return "unconfigured"
	case errors.Is(err, ErrUpstreamStatus):
		return "status"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrReported):
		return "reported"
	default:
		return "transport"
	}
}
