package viewer

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/salon-booking-board/internal/backend"
)

const clockLayout = "15:04:05"

var weekdayNames = [...]string{"日", "一", "二", "三", "四", "五", "六"}

// APIDate formats t as the zero-padded YYYY-MM-DD the backend expects.
func APIDate(t time.Time) string {
	return t.Format(backend.DateLayout)
}

// DateLabel renders e.g. "3月7日（六）".
func DateLabel(t time.Time) string {
	return fmt.Sprintf("%d月%d日（%s）", int(t.Month()), t.Day(), weekdayNames[t.Weekday()])
}

// ClockText renders the wall-clock time shown in the header.
func ClockText(t time.Time) string {
	return t.Format(clockLayout)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay returns local midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SortSlots trims, drops blanks and sorts lexicographically. Zero-padded
// "HH:MM" strings sort chronologically as text. The input is not modified.
func SortSlots(times []string) []string {
	out := make([]string, 0, len(times))
	for _, t := range times {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// PhoneContact links a phone number with a tel: URI. Only digits and a
// leading plus survive in the link.
func PhoneContact(raw string) Contact {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	c := Contact{Text: raw}
	if b.Len() > 0 {
		c.Href = "tel:" + b.String()
	}
	return c
}

// LineContact links a LINE id. "@" ids are official accounts, anything else
// is treated as a personal id; full URLs are kept as they are.
func LineContact(id string) Contact {
	id = strings.TrimSpace(id)
	switch {
	case id == "":
		return Contact{}
	case strings.HasPrefix(id, "https://") || strings.HasPrefix(id, "http://"):
		return Contact{Text: id, Href: id}
	case strings.HasPrefix(id, "@"):
		return Contact{Text: id, Href: "https://line.me/R/ti/p/%40" + url.PathEscape(id[1:])}
	default:
		return Contact{Text: id, Href: "https://line.me/ti/p/~" + url.PathEscape(id)}
	}
}
