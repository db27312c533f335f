package viewer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wolfman30/salon-booking-board/internal/backend"
)

type fakeBackend struct {
	settings    backend.Settings
	settingsErr error
	bookingsFn  func(ctx context.Context, date time.Time) ([]string, error)

	settingsCalls atomic.Int32
	bookingsCalls atomic.Int32

	mu        sync.Mutex
	requested []string
}

func (f *fakeBackend) GetSettings(_ context.Context) (backend.Settings, error) {
	f.settingsCalls.Add(1)
	return f.settings, f.settingsErr
}

func (f *fakeBackend) GetBookings(ctx context.Context, date time.Time) ([]string, error) {
	f.bookingsCalls.Add(1)
	f.mu.Lock()
	f.requested = append(f.requested, APIDate(date))
	f.mu.Unlock()
	if f.bookingsFn == nil {
		return []string{}, nil
	}
	return f.bookingsFn(ctx, date)
}

func (f *fakeBackend) requestedDates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requested...)
}

// pageState is the last value of every region.
type pageState struct {
	title    string
	shopName string
	label    string
	isoDate  string
	today    bool
	phone    Contact
	line     Contact
	clock    string

	state   string
	slots   []string
	message string
	states  []string
}

type recordingPage struct {
	mu sync.Mutex
	s  pageState
}

func (p *recordingPage) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.title = title
}

func (p *recordingPage) SetShopName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.shopName = name
}

func (p *recordingPage) SetDate(label, isoDate string, today bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.label, p.s.isoDate, p.s.today = label, isoDate, today
}

func (p *recordingPage) SetPhone(c Contact) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.phone = c
}

func (p *recordingPage) SetLine(c Contact) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.line = c
}

func (p *recordingPage) SetClock(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.clock = text
}

func (p *recordingPage) setState(state string, slots []string, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.state, p.s.slots, p.s.message = state, slots, message
	p.s.states = append(p.s.states, state)
}

func (p *recordingPage) ShowLoading()             { p.setState("loading", nil, "") }
func (p *recordingPage) ShowEmpty()               { p.setState("empty", nil, "") }
func (p *recordingPage) ShowSlots(times []string) { p.setState("slots", times, "") }
func (p *recordingPage) ShowError(message string) { p.setState("error", nil, message) }
func (p *recordingPage) ShowUnconfigured()        { p.setState("unconfigured", nil, "") }

func (p *recordingPage) snapshot() pageState {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.s
	s.slots = append([]string(nil), p.s.slots...)
	s.states = append([]string(nil), p.s.states...)
	return s
}

// manualScheduler fires subscriptions only when told to.
type manualScheduler struct {
	mu   sync.Mutex
	subs []*manualSub
}

type manualSub struct {
	interval  time.Duration
	fn        func()
	cancelled atomic.Bool
}

func (s *manualSub) Cancel() { s.cancelled.Store(true) }

func (m *manualScheduler) Every(interval time.Duration, fn func()) Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := &manualSub{interval: interval, fn: fn}
	m.subs = append(m.subs, sub)
	return sub
}

// Fire runs every live subscription registered with interval and reports
// how many ran.
func (m *manualScheduler) Fire(interval time.Duration) int {
	m.mu.Lock()
	subs := append([]*manualSub(nil), m.subs...)
	m.mu.Unlock()

	n := 0
	for _, s := range subs {
		if s.interval == interval && !s.cancelled.Load() {
			s.fn()
			n++
		}
	}
	return n
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
