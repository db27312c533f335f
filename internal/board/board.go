package board

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/wolfman30/salon-booking-board/internal/observability/metrics"
	"github.com/wolfman30/salon-booking-board/internal/viewer"
)

// SlotState is what the time-slots region currently shows.
type SlotState string

const (
	StateLoading      SlotState = "loading"
	StateEmpty        SlotState = "empty"
	StateSlots        SlotState = "slots"
	StateError        SlotState = "error"
	StateUnconfigured SlotState = "unconfigured"
)

// Snapshot is the full visible state of the board at one version.
type Snapshot struct {
	Version   uint64         `json:"version"`
	Title     string         `json:"title"`
	ShopName  string         `json:"shop_name"`
	DateLabel string         `json:"date_label"`
	Date      string         `json:"date"`
	Today     bool           `json:"today"`
	State     SlotState      `json:"state"`
	Slots     []string       `json:"slots"`
	Message   string         `json:"message,omitempty"`
	Phone     viewer.Contact `json:"phone"`
	Line      viewer.Contact `json:"line"`
	Clock     string         `json:"clock"`
}

func (s Snapshot) clone() Snapshot {
	s.Slots = slices.Clone(s.Slots)
	return s
}

// Board is the in-memory page the viewer paints. Every change bumps the
// version and is fanned out to subscribers; a slow subscriber only ever
// holds the latest snapshot.
type Board struct {
	metrics *metrics.BoardMetrics

	mu   sync.RWMutex
	snap Snapshot
	subs map[string]chan Snapshot
}

var _ viewer.Page = (*Board)(nil)

func New(m *metrics.BoardMetrics) *Board {
	return &Board{
		metrics: m,
		snap:    Snapshot{State: StateLoading, Slots: []string{}},
		subs:    make(map[string]chan Snapshot),
	}
}

// Snapshot returns a copy of the current state.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap.clone()
}

// Subscribe registers a listener. The returned channel receives the newest
// snapshot after each change; cancel must be called to release it.
func (b *Board) Subscribe() (id string, updates <-chan Snapshot, cancel func()) {
	id = uuid.NewString()
	ch := make(chan Snapshot, 1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
	return id, ch, cancel
}

// Subscribers reports how many listeners are registered.
func (b *Board) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// update applies fn and publishes when it reports a change.
func (b *Board) update(fn func(s *Snapshot) bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !fn(&b.snap) {
		return
	}
	b.snap.Version++
	b.metrics.Rendered()

	for _, ch := range b.subs {
		snap := b.snap.clone()
		select {
		case ch <- snap:
		default:
			// drop the stale pending value; we are the only sender
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (b *Board) SetTitle(title string) {
	b.update(func(s *Snapshot) bool {
		if s.Title == title {
			return false
		}
		s.Title = title
		return true
	})
}

func (b *Board) SetShopName(name string) {
	b.update(func(s *Snapshot) bool {
		if s.ShopName == name {
			return false
		}
		s.ShopName = name
		return true
	})
}

func (b *Board) SetDate(label, isoDate string, today bool) {
	b.update(func(s *Snapshot) bool {
		if s.DateLabel == label && s.Date == isoDate && s.Today == today {
			return false
		}
		s.DateLabel, s.Date, s.Today = label, isoDate, today
		return true
	})
}

func (b *Board) SetPhone(c viewer.Contact) {
	b.update(func(s *Snapshot) bool {
		if s.Phone == c {
			return false
		}
		s.Phone = c
		return true
	})
}

func (b *Board) SetLine(c viewer.Contact) {
	b.update(func(s *Snapshot) bool {
		if s.Line == c {
			return false
		}
		s.Line = c
		return true
	})
}

func (b *Board) SetClock(text string) {
	b.update(func(s *Snapshot) bool {
		if s.Clock == text {
			return false
		}
		s.Clock = text
		return true
	})
}

func (b *Board) setSlots(state SlotState, slots []string, message string) {
	if slots == nil {
		slots = []string{}
	}
	b.update(func(s *Snapshot) bool {
		if s.State == state && s.Message == message && slices.Equal(s.Slots, slots) {
			return false
		}
		s.State, s.Slots, s.Message = state, slices.Clone(slots), message
		return true
	})
}

func (b *Board) ShowLoading()             { b.setSlots(StateLoading, nil, "") }
func (b *Board) ShowEmpty()               { b.setSlots(StateEmpty, nil, "") }
func (b *Board) ShowSlots(times []string) { b.setSlots(StateSlots, times, "") }
func (b *Board) ShowError(message string) { b.setSlots(StateError, nil, message) }
func (b *Board) ShowUnconfigured()        { b.setSlots(StateUnconfigured, nil, "") }
