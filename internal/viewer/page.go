// Package viewer holds the BookingViewer: the selected date, the backend
// reads for that date, and the rendering of results onto a Page.
package viewer

import (
	"context"
	"time"

	"github.com/wolfman30/salon-booking-board/internal/backend"
)

// Backend is the read side of the booking backend.
type Backend interface {
	GetSettings(ctx context.Context) (backend.Settings, error)
	GetBookings(ctx context.Context, date time.Time) ([]string, error)
}

// Contact is a displayed contact line with an optional link target.
type Contact struct {
	Text string `json:"text"`
	Href string `json:"href,omitempty"`
}

// Page is everything the viewer writes to. Implementations must be safe for
// concurrent use.
type Page interface {
	SetTitle(title string)
	SetShopName(name string)
	SetDate(label, isoDate string, today bool)
	SetPhone(c Contact)
	SetLine(c Contact)
	SetClock(text string)

	// Slot area. Exactly one state is visible at a time.
	ShowLoading()
	ShowEmpty()
	ShowSlots(times []string)
	ShowError(message string)
	ShowUnconfigured()
}

// Page text.
const (
	TitleSuffix     = " - 已滿時段查詢"
	MsgLoadFailed   = "無法載入資料，請稍後再試"
	FallbackContact = "請洽店家"
)
