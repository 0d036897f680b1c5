package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "airdrop-claim-backend/internal/common/errors"
	"airdrop-claim-backend/internal/features/notification/models"
	"airdrop-claim-backend/internal/platform/gateway"
)

// fakeGateway scripts per-phone response bodies and records the order of
// attempts.
type fakeGateway struct {
	mu        sync.Mutex
	responses map[string]string
	delays    map[string]time.Duration
	calls     []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		responses: make(map[string]string),
		delays:    make(map[string]time.Duration),
	}
}

func (g *fakeGateway) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone := r.URL.Query().Get("phone")
		g.mu.Lock()
		g.calls = append(g.calls, r.URL.Path+":"+phone)
		body, ok := g.responses[phone]
		delay := g.delays[phone]
		g.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if !ok {
			body = "ERROR: unknown phone"
		}
		fmt.Fprint(w, body)
	}
}

func (g *fakeGateway) callLog() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func testTargets() []models.NotificationTarget {
	return []models.NotificationTarget{
		{ChannelID: "admin1", Address: "+100", Credential: "key1"},
		{ChannelID: "admin2", Address: "+200", Credential: "key2"},
		{ChannelID: "admin3", Address: "+300", Credential: "key3"},
	}
}

func newTestDispatcher(serverURL string, timeout time.Duration) *Dispatcher {
	d := NewDispatcher(gateway.NewClient(serverURL, timeout), timeout, 2*time.Second)
	// No real inter-target pauses in tests.
	d.sleep = func(ctx context.Context, _ time.Duration) {}
	return d
}

func TestDispatch_PartialFailureIsNotOverallFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.responses["+100"] = "Message Sent to +100"
	gw.responses["+200"] = "ERROR: rate limited"
	gw.responses["+300"] = "Message Sent to +300"
	server := httptest.NewServer(gw.handler())
	defer server.Close()

	d := newTestDispatcher(server.URL, time.Second)
	report := d.Dispatch(context.Background(), "hello", testTargets())

	assert.True(t, report.AnySucceeded)
	require.Len(t, report.Attempts, 3)

	assert.True(t, report.Attempts[0].Succeeded)
	assert.False(t, report.Attempts[1].Succeeded)
	assert.Equal(t, models.CauseRejected, report.Attempts[1].Cause)
	assert.True(t, report.Attempts[2].Succeeded)
}

func TestDispatch_AllTargetsAlwaysAttemptedInOrder(t *testing.T) {
	gw := newFakeGateway()
	server := httptest.NewServer(gw.handler())
	defer server.Close()

	d := newTestDispatcher(server.URL, time.Second)
	report := d.Dispatch(context.Background(), "hello", testTargets())

	assert.False(t, report.AnySucceeded)
	require.Len(t, report.Attempts, 3)
	assert.Equal(t, []string{
		"/whatsapp.php:+100",
		"/whatsapp.php:+200",
		"/whatsapp.php:+300",
	}, gw.callLog())
}

func TestDispatch_TimeoutIsDistinctFromRejection(t *testing.T) {
	gw := newFakeGateway()
	gw.responses["+100"] = "Message Sent"
	gw.responses["+200"] = "Message Sent"
	gw.delays["+200"] = 300 * time.Millisecond
	server := httptest.NewServer(gw.handler())
	defer server.Close()

	d := newTestDispatcher(server.URL, 50*time.Millisecond)
	report := d.Dispatch(context.Background(), "hello", testTargets()[:2])

	require.Len(t, report.Attempts, 2)
	assert.True(t, report.Attempts[0].Succeeded)
	assert.False(t, report.Attempts[1].Succeeded)
	assert.Equal(t, models.CauseTimeout, report.Attempts[1].Cause)
	assert.Contains(t, report.Attempts[1].Error, string(apperrors.ErrCodeDeliveryTimeout))
}

func TestDispatch_SuccessDecidedByBodyNotStatus(t *testing.T) {
	// 200 with no marker must classify as rejected.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "APIKey is invalid")
	}))
	defer server.Close()

	d := newTestDispatcher(server.URL, time.Second)
	report := d.Dispatch(context.Background(), "hello", testTargets()[:1])

	assert.False(t, report.AnySucceeded)
	assert.Equal(t, models.CauseRejected, report.Attempts[0].Cause)
	assert.Contains(t, report.Attempts[0].Error, string(apperrors.ErrCodeDeliveryRejected))
}
