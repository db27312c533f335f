package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salon-booking-board/internal/board"
	appconfig "github.com/wolfman30/salon-booking-board/internal/config"
	"github.com/wolfman30/salon-booking-board/pkg/logging"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, m := setupMetrics()
	require.NotNil(t, handler)
	require.NotNil(t, m)

	m.ObserveFetch("getBookings", "ok", 20*time.Millisecond)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `salon_board_backend_fetch_total{action="getBookings",outcome="ok"} 1`)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func testConfig(backendURL string) *appconfig.Config {
	return &appconfig.Config{
		Env:             "test",
		LogLevel:        "error",
		BackendURL:      backendURL,
		BackendTimeout:  2 * time.Second,
		ShopTimezone:    "UTC",
		ClockInterval:   50 * time.Millisecond,
		RefreshInterval: time.Hour,
		DefaultShopName: "美髮工作室",
		RateLimitRPS:    100,
		RateLimitBurst:  100,
		ShutdownTimeout: 2 * time.Second,
	}
}

func TestRunServesBoardAndShutsDown(t *testing.T) {
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("action") {
		case "getSettings":
			_, _ = w.Write([]byte(`{"shop_name":"Test Salon","contact_phone":"02-1234-5678"}`))
		case "getBookings":
			_, _ = w.Write([]byte(`{"bookedTimes":["15:00","10:00"]}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer backendSrv.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, testConfig(backendSrv.URL), logging.New("error"), ln)
	}()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	var snap board.Snapshot
	require.Eventually(t, func() bool {
		resp, err := client.Get(base + "/api/board")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return false
		}
		return snap.State == board.StateSlots && snap.ShopName == "Test Salon"
	}, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, []string{"10:00", "15:00"}, snap.Slots)
	assert.Equal(t, "Test Salon - 已滿時段查詢", snap.Title)
	assert.True(t, snap.Today)

	resp, err := client.Get(base + "/health")
	require.NoError(t, err)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), health["sessions"], "the polling client reuses one session")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRunRejectsInvalidTimezone(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := testConfig("")
	cfg.ShopTimezone = "Mars/Olympus_Mons"

	err = run(context.Background(), cfg, logging.New("error"), ln)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "SHOP_TIMEZONE"))
}
