package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/salon-booking-board/internal/backend"
	"github.com/wolfman30/salon-booking-board/internal/observability/metrics"
	"github.com/wolfman30/salon-booking-board/pkg/logging"
)

const (
	defaultClockInterval   = time.Second
	defaultRefreshInterval = 5 * time.Minute
)

// Defaults are shown before settings load and kept when they cannot.
type Defaults struct {
	ShopName     string
	ContactPhone string
	ContactLine  string
}

// Options configures a Viewer. Zero values fall back to sensible defaults.
type Options struct {
	Location        *time.Location
	Now             func() time.Time
	ClockInterval   time.Duration
	RefreshInterval time.Duration
	Defaults        Defaults
}

// Viewer is the booking board controller. It owns the selected date and is
// the only writer to its Page.
type Viewer struct {
	backend Backend
	page    Page
	logger  *logging.Logger
	metrics *metrics.BoardMetrics

	loc             *time.Location
	now             func() time.Time
	clockInterval   time.Duration
	refreshInterval time.Duration
	defaults        Defaults

	mu       sync.Mutex
	selected time.Time
	issued   uint64 // sequence of the newest bookings load started
	applied  uint64 // sequence of the newest bookings load rendered
	subs     []Subscription
}

// New builds a Viewer for today's date and paints the defaults onto page.
func New(be Backend, page Page, opts Options, logger *logging.Logger, m *metrics.BoardMetrics) *Viewer {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ClockInterval <= 0 {
		opts.ClockInterval = defaultClockInterval
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = defaultRefreshInterval
	}

	v := &Viewer{
		backend:         be,
		page:            page,
		logger:          logger,
		metrics:         m,
		loc:             opts.Location,
		now:             opts.Now,
		clockInterval:   opts.ClockInterval,
		refreshInterval: opts.RefreshInterval,
		defaults:        opts.Defaults,
	}
	v.selected = StartOfDay(v.now(), v.loc)
	v.applyDefaults()
	return v
}

func (v *Viewer) applyDefaults() {
	d := v.defaults
	if d.ShopName != "" {
		v.page.SetShopName(d.ShopName)
		v.page.SetTitle(d.ShopName + TitleSuffix)
	}
	if d.ContactPhone != "" {
		v.page.SetPhone(PhoneContact(d.ContactPhone))
	} else {
		v.page.SetPhone(Contact{Text: FallbackContact})
	}
	if d.ContactLine != "" {
		v.page.SetLine(LineContact(d.ContactLine))
	} else {
		v.page.SetLine(Contact{Text: FallbackContact})
	}
}

// SelectedDate returns local midnight of the displayed day.
func (v *Viewer) SelectedDate() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}

// Start performs the initial load and registers the clock and refresh
// subscriptions on sched. It returns once the initial load has finished.
func (v *Viewer) Start(ctx context.Context, sched Scheduler) {
	v.UpdateDateDisplay()
	v.UpdateTimeOnly()
	v.Refresh(ctx)

	clock := sched.Every(v.clockInterval, v.UpdateTimeOnly)
	refresh := sched.Every(v.refreshInterval, func() {
		v.LoadBookings(ctx)
	})

	v.mu.Lock()
	v.subs = append(v.subs, clock, refresh)
	v.mu.Unlock()

	v.logger.Info("viewer: started",
		"date", APIDate(v.SelectedDate()),
		"clock_interval", v.clockInterval.String(),
		"refresh_interval", v.refreshInterval.String(),
	)
}

// Stop cancels every subscription registered by Start.
func (v *Viewer) Stop() {
	v.mu.Lock()
	subs := v.subs
	v.subs = nil
	v.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
}

// Refresh reloads settings and bookings concurrently and returns when both
// have been painted. The two write disjoint regions, so their order is free.
func (v *Viewer) Refresh(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		v.LoadSettings(ctx)
	}()
	go func() {
		defer wg.Done()
		v.LoadBookings(ctx)
	}()
	wg.Wait()
}

// LoadSettings reads shop settings and paints the fields that are present.
// On failure the current (default) values stay and the error is only logged.
func (v *Viewer) LoadSettings(ctx context.Context) {
	settings, err := v.backend.GetSettings(ctx)
	if err != nil {
		v.logger.Warn("viewer: using default settings", "error", err)
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if settings.ShopName != "" {
		v.page.SetShopName(settings.ShopName)
		v.page.SetTitle(settings.ShopName + TitleSuffix)
	}
	if settings.ContactPhone != "" {
		v.page.SetPhone(PhoneContact(settings.ContactPhone))
	}
	if settings.ContactLine != "" {
		v.page.SetLine(LineContact(settings.ContactLine))
	}
	v.logger.Debug("viewer: settings loaded", "shop_name", settings.ShopName)
}

// ChangeDate moves the selection by delta whole days and reloads bookings.
// There are no bounds on how far it may move.
func (v *Viewer) ChangeDate(ctx context.Context, delta int) {
	v.mu.Lock()
	v.selected = v.selected.AddDate(0, 0, delta)
	v.renderDateLocked()
	v.mu.Unlock()

	v.LoadBookings(ctx)
}

// UpdateDateDisplay re-renders the selected date and the today flag.
func (v *Viewer) UpdateDateDisplay() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renderDateLocked()
}

func (v *Viewer) renderDateLocked() {
	today := SameDay(v.selected, v.now(), v.loc)
	v.page.SetDate(DateLabel(v.selected), APIDate(v.selected), today)
}

// LoadBookings fetches the booked slots of the selected date and renders
// them. Each load is tagged with its date and sequence; a response is
// dropped when the selection has moved to another day or a newer load has
// already been rendered.
func (v *Viewer) LoadBookings(ctx context.Context) {
	v.mu.Lock()
	v.issued++
	seq := v.issued
	date := v.selected
	v.page.ShowLoading()
	v.mu.Unlock()

	times, err := v.backend.GetBookings(ctx, date)

	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.selected.Equal(date) || seq < v.applied {
		v.metrics.StaleDiscarded()
		v.logger.Debug("viewer: discarding stale bookings response",
			"requested", APIDate(date),
			"selected", APIDate(v.selected),
			"seq", seq,
			"applied", v.applied,
		)
		return
	}
	v.applied = seq

	if err != nil {
		if errors.Is(err, backend.ErrNotConfigured) {
			v.page.ShowUnconfigured()
			v.logger.Warn("viewer: backend url not configured")
			return
		}
		v.page.ShowError(MsgLoadFailed)
		v.logger.Error("viewer: failed to load bookings", "date", APIDate(date), "error", err)
		return
	}

	v.displayLocked(times)
	v.logger.Debug("viewer: bookings loaded", "date", APIDate(date), "count", len(times))
}

// DisplayBookings renders slots: the empty state for none, otherwise one
// row per slot in ascending order.
func (v *Viewer) DisplayBookings(slots []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.displayLocked(slots)
}

func (v *Viewer) displayLocked(slots []string) {
	sorted := SortSlots(slots)
	if len(sorted) == 0 {
		v.page.ShowEmpty()
		return
	}
	v.page.ShowSlots(sorted)
}

// UpdateTimeOnly renders the current wall-clock time.
func (v *Viewer) UpdateTimeOnly() {
	v.page.SetClock(ClockText(v.now().In(v.loc)))
}
