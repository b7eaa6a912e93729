package bridge_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/igorsilveira/ticktock/pkg/a2a"
	"github.com/igorsilveira/ticktock/pkg/bridge"
	"github.com/igorsilveira/ticktock/pkg/responder"
	"github.com/igorsilveira/ticktock/pkg/session"
)

type testServer struct {
	*httptest.Server
	sessions *session.Store
}

func newTestServer(t *testing.T, r responder.Responder) *testServer {
	t.Helper()
	sessions := session.NewStore()
	exec, err := bridge.New(bridge.Config{Store: sessions, Responder: r, AppName: "TellTimeAgent"})
	if err != nil {
		t.Fatal(err)
	}
	card, err := a2a.NewAgentCard("TellTimeAgent", "Tells the current time when asked", "http://localhost:5000", "1.0", a2a.Capabilities{})
	if err != nil {
		t.Fatal(err)
	}
	h, err := a2a.NewHandler(a2a.HandlerConfig{Card: card, Executor: exec})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, sessions: sessions}
}

func (s *testServer) post(t *testing.T, path, body string) (int, []byte) {
	t.Helper()
	resp, err := http.Post(s.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, b
}

func (s *testServer) task(t *testing.T, sessionID, taskID string) a2a.Task {
	t.Helper()
	sess, ok := s.sessions.Lookup("TellTimeAgent", bridge.DefaultUserID, sessionID)
	if !ok {
		t.Fatalf("session %q not found", sessionID)
	}
	task, ok := sess.Task(taskID)
	if !ok {
		t.Fatalf("task %q not found", taskID)
	}
	return task.Snapshot()
}

func send(id, taskID, text string) string {
	return `{"jsonrpc":"2.0","id":"` + id + `","method":"tasks/send","params":{"id":"` + taskID +
		`","message":{"role":"user","parts":[{"type":"text","text":"` + text + `"}]}}}`
}

func decode(t *testing.T, b []byte) *a2a.Response {
	t.Helper()
	resp, err := a2a.DecodeResponse(b)
	if err != nil {
		t.Fatalf("decoding %s: %v", b, err)
	}
	return resp
}

func TestDiscovery(t *testing.T) {
	srv := newTestServer(t, responder.Echo{})

	resp, err := http.Get(srv.URL + a2a.PathAgentCard)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var card map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		t.Fatal(err)
	}
	if card["name"] != "TellTimeAgent" || card["url"] != "http://localhost:5000" || card["version"] != "1.0" {
		t.Errorf("card = %v", card)
	}
	caps := card["capabilities"].(map[string]any)
	if caps["streaming"] != false || caps["pushNotifications"] != false {
		t.Errorf("capabilities = %v", caps)
	}
}

func TestEchoRoundTrip(t *testing.T) {
	srv := newTestServer(t, responder.Echo{})

	status, body := srv.post(t, a2a.PathRPC, send("1", "t1", "hello"))
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %s", status, body)
	}
	resp := decode(t, body)
	if resp.ID != "1" || resp.Error != nil {
		t.Fatalf("response = %+v", resp)
	}
	var task a2a.Task
	if err := resp.DecodeResult(&task); err != nil {
		t.Fatal(err)
	}
	if task.ID != "t1" || task.SessionID != "t1" || task.Status.State != a2a.TaskStateCompleted {
		t.Errorf("task = %+v", task)
	}
	if len(task.Messages) != 2 || task.Messages[1].Role != a2a.RoleAgent || task.Messages[1].Parts[0].Text != "hello" {
		t.Errorf("messages = %+v", task.Messages)
	}
}

func TestMalformedRequestCreatesNothing(t *testing.T) {
	srv := newTestServer(t, responder.Echo{})

	status, body := srv.post(t, a2a.PathRPC, `{"id":"x"}`)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	resp := decode(t, body)
	if resp.Error == nil || resp.Error.Code != a2a.CodeInvalidRequest || resp.ID != "x" {
		t.Errorf("response = %+v", resp)
	}
	if srv.sessions.Len() != 0 {
		t.Errorf("sessions = %d, want 0", srv.sessions.Len())
	}
}

func TestEmptyReplyCompletesWithNoParts(t *testing.T) {
	srv := newTestServer(t, responder.Func(func(context.Context, string, responder.Conversation) ([]string, error) {
		return nil, nil
	}))

	status, body := srv.post(t, a2a.PathRPC, send("1", "t1", "hi"))
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %s", status, body)
	}
	if !strings.Contains(string(body), `{"role":"agent","parts":[]}`) {
		t.Errorf("reply not encoded with empty parts: %s", body)
	}
}

func TestResendOfCompletedTask(t *testing.T) {
	srv := newTestServer(t, responder.Echo{})

	if status, body := srv.post(t, a2a.PathRPC, send("1", "t1", "hello")); status != http.StatusOK {
		t.Fatalf("first send: %d %s", status, body)
	}
	status, body := srv.post(t, a2a.PathRPC, send("2", "t1", "hello"))
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	resp := decode(t, body)
	if resp.Error == nil || resp.Error.Code != a2a.CodeInvalidTaskState || resp.ID != "2" {
		t.Errorf("response = %+v", resp)
	}
	if task := srv.task(t, "t1", "t1"); len(task.Messages) != 2 {
		t.Errorf("transcript = %+v", task.Messages)
	}
}

func TestResponderFailure(t *testing.T) {
	srv := newTestServer(t, responder.Func(func(context.Context, string, responder.Conversation) ([]string, error) {
		return nil, errors.New("model unavailable")
	}))

	status, body := srv.post(t, a2a.PathRPC, send("9", "t1", "hi"))
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
	resp := decode(t, body)
	if resp.Error == nil || resp.Error.Code != a2a.CodeInternal || resp.ID != "9" {
		t.Errorf("response = %+v", resp)
	}
	if task := srv.task(t, "t1", "t1"); task.Status.State != a2a.TaskStateFailed {
		t.Errorf("state = %s, want failed", task.Status.State)
	}
}

func TestBareTasksSend(t *testing.T) {
	srv := newTestServer(t, responder.Echo{})

	status, body := srv.post(t, a2a.PathTasksSend, `{"id":"t1","sessionId":"s1","message":{"role":"user","parts":[{"text":"hi"}]}}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %s", status, body)
	}
	var task a2a.Task
	if err := json.Unmarshal(body, &task); err != nil {
		t.Fatal(err)
	}
	if task.ID != "t1" || task.SessionID != "s1" || task.Status.State != a2a.TaskStateCompleted {
		t.Errorf("task = %+v", task)
	}
}

func TestClockResponder(t *testing.T) {
	srv := newTestServer(t, responder.Clock{})

	_, body := srv.post(t, a2a.PathRPC, send("1", "t1", "what time is it?"))
	var task a2a.Task
	if err := decode(t, body).DecodeResult(&task); err != nil {
		t.Fatal(err)
	}
	if reply := task.Messages[1].Text(); !strings.HasPrefix(reply, "The current time is: ") {
		t.Errorf("reply = %q", reply)
	}
}
