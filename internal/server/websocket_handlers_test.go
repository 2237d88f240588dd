package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"ainews/internal/models"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestIssueWSTicket_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	p, token := env.profile(t, "listener", models.RoleStudent)

	resp, raw := env.do(t, http.MethodPost, "/api/ws/ticket", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	body := decode[struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int    `json:"expires_in"`
	}](t, raw)
	require.NotEmpty(t, body.Ticket)
	assert.Equal(t, 30, body.ExpiresIn)

	stored, err := env.mr.Get(wsTicketPrefix + body.Ticket)
	require.NoError(t, err)
	assert.Equal(t, itoa(p.ID), stored)

	// Not an upgrade request, so the ticket is redeemed and the handler
	// answers 426.
	resp, _ = env.do(t, http.MethodGet, "/api/ws/feed?ticket="+body.Ticket, nil, "")
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	assert.False(t, env.mr.Exists(wsTicketPrefix+body.Ticket))

	resp, raw = env.do(t, http.MethodGet, "/api/ws/feed?ticket="+body.Ticket, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, models.CodeUnauthorized, errorCode(t, raw))
}

func TestIssueWSTicket_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, http.MethodPost, "/api/ws/ticket", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFeed_TicketIgnoredOutsideWebSocketRoutes(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.profile(t, "listener", models.RoleStudent)
	_, raw := env.do(t, http.MethodPost, "/api/ws/ticket", nil, token)
	ticket := decode[map[string]any](t, raw)["ticket"].(string)

	resp, _ := env.do(t, http.MethodGet, "/api/profiles/me?ticket="+ticket, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.True(t, env.mr.Exists(wsTicketPrefix+ticket))
}

func TestFeed_DeliversPostCreated(t *testing.T) {
	ignore := []goleak.Option{
		goleak.IgnoreCurrent(),
		// process-wide tickers started by fiber and fasthttp on first use
		goleak.IgnoreAnyFunction("github.com/gofiber/fiber/v2/internal/memory.(*Storage).gc"),
		goleak.IgnoreAnyFunction("github.com/gofiber/fiber/v2/utils.StartTimeStampUpdater.func1"),
		goleak.IgnoreAnyFunction("github.com/valyala/fasthttp.updateServerDate.func1"),
	}
	// Registered first so it runs after the env's own cleanups.
	t.Cleanup(func() { goleak.VerifyNone(t, ignore...) })

	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, env.s.hub.StartWiring(ctx, env.s.notifier))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.app.Listener(ln) }()
	t.Cleanup(func() { _ = env.app.Shutdown() })

	_, listenerToken := env.profile(t, "listener", models.RoleStudent)
	_, authorToken := env.profile(t, "author", models.RoleStudent)

	_, raw := env.do(t, http.MethodPost, "/api/ws/ticket", nil, listenerToken)
	ticket := decode[map[string]any](t, raw)["ticket"].(string)

	conn, resp, err := gorillaws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/api/ws/feed?ticket="+ticket, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	require.Eventually(t, func() bool { return env.s.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp2, raw := env.do(t, http.MethodPost, "/api/posts", PostRequest{
		Title: "Live", Content: "fresh off the press", Category: models.CategoryNews,
	}, authorToken)
	require.Equal(t, http.StatusCreated, resp2.StatusCode, string(raw))
	post := decode[models.Post](t, raw)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var event struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, EventPostCreated, event.Type)
	assert.EqualValues(t, post.ID, event.Payload["post_id"])
	assert.NotEmpty(t, event.Payload["at"])

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return env.s.hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFeed_ReusedTicketRejected(t *testing.T) {
	env := newTestEnv(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.app.Listener(ln) }()
	t.Cleanup(func() { _ = env.app.Shutdown() })

	_, token := env.profile(t, "listener", models.RoleStudent)
	_, raw := env.do(t, http.MethodPost, "/api/ws/ticket", nil, token)
	ticket := decode[map[string]any](t, raw)["ticket"].(string)
	url := "ws://" + ln.Addr().String() + "/api/ws/feed?ticket=" + ticket

	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, gorillaws.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
