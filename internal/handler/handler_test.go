package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomchat/internal/app/chat"
	"roomchat/internal/app/feed"
	"roomchat/internal/app/store"
	"roomchat/internal/app/store/memory"
	"roomchat/internal/configs"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	*httptest.Server
	hub *feed.Hub
}

func newTestServer(t *testing.T, burst int) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, &configs.AppConfig{
		Environment:         "development",
		DefaultMessageLimit: chat.DefaultListLimit,
		JoinRate:            1,
		JoinBurst:           burst,
		SendRate:            1,
		SendBurst:           burst,
	})
}

func newTestServerWithConfig(t *testing.T, cfg *configs.AppConfig) *testServer {
	t.Helper()

	participants, messages := memory.NewParticipantStore(), memory.NewMessageStore()
	hub := feed.NewHub()
	go hub.Run()

	deps := &AppDeps{
		Presence: chat.NewPresence(participants, messages, chat.DefaultInactivityTimeout,
			chat.WithPublisher(hub), chat.WithDisconnector(hub)),
		Messages: chat.NewMessages(participants, messages, chat.WithPublisher(hub)),
		Hub:      hub,
		Config:   cfg,
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(Router(ctx, deps))
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
		cancel()
	})

	return &testServer{Server: srv, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, user string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	request, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		request.Header.Set(logx.ParticipantHeader, user)
	}

	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	defer response.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(response.Body).Decode(&env))
	return response.StatusCode, env
}

func (s *testServer) join(t *testing.T, name string) {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/participants", "", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, status, env.Message)
}

func (s *testServer) send(t *testing.T, from, to, text, typ string) store.Message {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/messages", from, map[string]string{"to": to, "text": text, "type": typ})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var msg store.Message
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	return msg
}

func (s *testServer) list(t *testing.T, requester, query string) []store.Message {
	t.Helper()
	status, env := s.do(t, http.MethodGet, "/messages"+query, requester, nil)
	require.Equal(t, http.StatusOK, status, env.Message)

	var messages []store.Message
	require.NoError(t, json.Unmarshal(env.Data, &messages))
	return messages
}

func texts(messages []store.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.From+": "+m.Text)
	}
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 5)

	status, env := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, env.Code)
	assert.JSONEq(t, `{"status":"ok","service":"roomchat","connections":0}`, string(env.Data))
}

func TestJoin(t *testing.T) {
	s := newTestServer(t, 10)

	status, env := s.do(t, http.MethodPost, "/participants", "", map[string]string{"name": " Ana "})
	require.Equal(t, http.StatusCreated, status)
	var view ParticipantView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "Ana", view.Name)
	assert.NotZero(t, view.LastStatus)

	status, env = s.do(t, http.MethodPost, "/participants", "", map[string]string{"name": "Ana"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, errs.ErrParticipantNameTaken, env.Code)

	status, env = s.do(t, http.MethodPost, "/participants", "", map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, errs.ErrInvalidParams, env.Code)

	status, env = s.do(t, http.MethodPost, "/participants", "", map[string]string{"name": "<b></b>"})
	assert.Equal(t, http.StatusUnprocessableEntity, status, "name empty after stripping HTML")
	assert.Equal(t, errs.ErrInvalidParams, env.Code)

	request, err := http.NewRequest(http.MethodPost, s.URL+"/participants", strings.NewReader(`{"name":"Bia"}`))
	require.NoError(t, err)
	request.Header.Set("Content-Type", "text/plain")
	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	response.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, response.StatusCode)

	status, env = s.do(t, http.MethodGet, "/participants", "", nil)
	require.Equal(t, http.StatusOK, status)
	var views []ParticipantView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Ana", views[0].Name)
}

func TestListParticipants_EmptyRoom(t *testing.T) {
	s := newTestServer(t, 5)

	status, env := s.do(t, http.MethodGet, "/participants", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestMessages_Visibility(t *testing.T) {
	s := newTestServer(t, 10)
	s.join(t, "A")
	s.join(t, "B")
	s.join(t, "C")

	s.send(t, "A", "Todos", "hi", "message")
	s.send(t, "A", "B", "secret", "private_message")

	assert.Equal(t, []string{
		"A: " + chat.JoinNotice,
		"B: " + chat.JoinNotice,
		"C: " + chat.JoinNotice,
		"A: hi",
		"A: secret",
	}, texts(s.list(t, "B", "?limit=10")))

	assert.NotContains(t, texts(s.list(t, "C", "")), "A: secret")
	assert.Contains(t, texts(s.list(t, "A", "")), "A: secret", "sender sees own private message")

	assert.Equal(t, []string{"A: secret"}, texts(s.list(t, "A", "?limit=1")))
}

func TestMessages_Validation(t *testing.T) {
	s := newTestServer(t, 10)
	s.join(t, "A")

	cases := []struct {
		name   string
		user   string
		body   map[string]string
		status int
		code   int
	}{
		{"missing user", "", map[string]string{"to": "Todos", "text": "hi", "type": "message"}, http.StatusUnprocessableEntity, errs.ErrRequesterMissing},
		{"sender not in room", "Z", map[string]string{"to": "Todos", "text": "hi", "type": "message"}, http.StatusUnprocessableEntity, errs.ErrSenderNotInRoom},
		{"status type", "A", map[string]string{"to": "Todos", "text": "hi", "type": "status"}, http.StatusUnprocessableEntity, errs.ErrMessageTypeInvalid},
		{"missing text", "A", map[string]string{"to": "Todos", "type": "message"}, http.StatusUnprocessableEntity, errs.ErrInvalidParams},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := s.do(t, http.MethodPost, "/messages", tc.user, tc.body)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, env.Code)
		})
	}

	for _, query := range []string{"?limit=0", "?limit=-3", "?limit=abc"} {
		status, env := s.do(t, http.MethodGet, "/messages"+query, "A", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status, query)
		assert.Equal(t, errs.ErrInvalidParams, env.Code, query)
	}

	status, env := s.do(t, http.MethodGet, "/messages", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, errs.ErrRequesterMissing, env.Code)
}

func TestDeleteMessage(t *testing.T) {
	s := newTestServer(t, 10)
	s.join(t, "A")
	s.join(t, "B")
	msg := s.send(t, "A", "Todos", "oops", "message")

	status, env := s.do(t, http.MethodDelete, "/messages/"+msg.ID, "B", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, errs.ErrNotMessageOwner, env.Code)
	assert.Contains(t, texts(s.list(t, "B", "")), "A: oops")

	status, _ = s.do(t, http.MethodDelete, "/messages/"+msg.ID, "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = s.do(t, http.MethodDelete, "/messages/"+msg.ID, "A", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.NotContains(t, texts(s.list(t, "B", "")), "A: oops")

	status, env = s.do(t, http.MethodDelete, "/messages/"+msg.ID, "A", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, errs.ErrMessageNotFound, env.Code)
}

func TestHeartbeatAndLeave(t *testing.T) {
	s := newTestServer(t, 10)
	s.join(t, "A")

	status, _ := s.do(t, http.MethodPost, "/status", "A", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env := s.do(t, http.MethodPost, "/status", "B", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, errs.ErrParticipantNotFound, env.Code)

	status, _ = s.do(t, http.MethodPost, "/status", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = s.do(t, http.MethodDelete, "/participants", "A", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodDelete, "/participants", "A", nil)
	assert.Equal(t, http.StatusNotFound, status)

	s.join(t, "B")
	assert.Contains(t, texts(s.list(t, "B", "")), "A: "+chat.LeaveNotice)
}

func TestJoin_RateLimited(t *testing.T) {
	s := newTestServer(t, 1)
	s.join(t, "A")

	status, env := s.do(t, http.MethodPost, "/participants", "", map[string]string{"name": "B"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, errs.ErrRateLimitExceeded, env.Code)
}

func TestSend_RateLimitIsSeparateFromJoin(t *testing.T) {
	s := newTestServerWithConfig(t, &configs.AppConfig{
		Environment:         "development",
		DefaultMessageLimit: chat.DefaultListLimit,
		JoinRate:            1,
		JoinBurst:           1,
		SendRate:            1,
		SendBurst:           3,
	})
	s.join(t, "A")

	for range 3 {
		s.send(t, "A", "Todos", "msg", "message")
	}

	status, env := s.do(t, http.MethodPost, "/messages", "A", map[string]string{"to": "Todos", "text": "one more", "type": "message"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, errs.ErrRateLimitExceeded, env.Code)
}

func TestPunctuatedName_RoundTrips(t *testing.T) {
	s := newTestServer(t, 10)
	s.join(t, "O'Brien")
	s.join(t, "Tom & Jerry")

	status, env := s.do(t, http.MethodGet, "/participants", "", nil)
	require.Equal(t, http.StatusOK, status)
	var views []ParticipantView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 2)
	assert.Equal(t, "O'Brien", views[0].Name)
	assert.Equal(t, "Tom & Jerry", views[1].Name)

	status, _ = s.do(t, http.MethodPost, "/status", "O'Brien", nil)
	assert.Equal(t, http.StatusOK, status)

	msg := s.send(t, "O'Brien", "Tom & Jerry", "a & b <3", "private_message")
	assert.Equal(t, "a & b <3", msg.Text)
	assert.Equal(t, "Tom & Jerry", msg.To)

	assert.Contains(t, texts(s.list(t, "Tom & Jerry", "")), "O'Brien: a & b <3")

	status, _ = s.do(t, http.MethodDelete, "/participants", "Tom & Jerry", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestWebSocket_ClosedAfterLeave(t *testing.T) {
	s := newTestServer(t, 10)
	s.join(t, "A")
	s.join(t, "B")

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws?user=B"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.Connections() == 1 }, time.Second, 5*time.Millisecond)

	status, _ := s.do(t, http.MethodDelete, "/participants", "B", nil)
	require.Equal(t, http.StatusOK, status)
	require.Eventually(t, func() bool { return s.hub.Connections() == 0 }, time.Second, 5*time.Millisecond)
	s.send(t, "A", "B", "after leave", "private_message")

	// The departure notice may arrive first; the connection must then be closed by the server.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var ev feed.Event
		if err := conn.ReadJSON(&ev); err != nil {
			var netErr net.Error
			assert.False(t, errors.As(err, &netErr) && netErr.Timeout(), "server closed the socket: %v", err)
			break
		}
		assert.NotEqual(t, "after leave", ev.Data.Text)
	}
}

func TestWebSocket_PushesVisibleMessages(t *testing.T) {
	s := newTestServer(t, 10)
	s.join(t, "A")
	s.join(t, "B")
	s.join(t, "C")

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws?user=B"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.Connections() == 1 }, time.Second, 5*time.Millisecond)

	s.send(t, "A", "C", "not for B", "private_message")
	s.send(t, "A", "B", "for B", "private_message")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev feed.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, feed.EventMessage, ev.Kind)
	assert.Equal(t, "for B", ev.Data.Text)
	assert.Equal(t, store.TypePrivateMessage, ev.Data.Type)
}

func TestWebSocket_RejectsUnknownParticipant(t *testing.T) {
	s := newTestServer(t, 10)

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws?user=ghost"
	_, response, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, response)
	defer response.Body.Close()
	assert.Equal(t, http.StatusNotFound, response.StatusCode)
}
