package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/KumarDhananjaya/Spendly/internal/syncproto"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/api/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":40101,"message":"unauthorized"}`))
			return
		}
		var req syncproto.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(syncproto.Response{Watermark: req.Watermark + 1, Changes: req.Changes})
	})
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var c credentials
		json.NewDecoder(r.Body).Decode(&c)
		if c.Password != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"code":0,"data":{"token":"jwt-token"}}`))
	})
	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":40001,"message":"email already registered"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Sync(t *testing.T) {
	srv := newServer(t)
	c := New(srv.URL+"/", 5*time.Second)

	req := syncproto.Request{Watermark: 41, Changes: []syncproto.ChangeEvent{{ID: "e1", Entity: "expense", Action: "delete", Payload: json.RawMessage(`{"clientId":"x"}`)}}}
	resp, err := c.Sync(context.Background(), "good", req)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if resp.Watermark != 42 || len(resp.Changes) != 1 || resp.Changes[0].ID != "e1" {
		t.Errorf("resp = %+v", resp)
	}

	_, err = c.Sync(context.Background(), "bad", req)
	if !errors.Is(err, syncproto.ErrUnauthorized) {
		t.Errorf("bad token err = %v, want ErrUnauthorized", err)
	}
}

func TestClient_Reachable(t *testing.T) {
	srv := newServer(t)
	if !New(srv.URL, time.Second).Reachable(context.Background()) {
		t.Error("Reachable = false for live server")
	}
	if New("http://127.0.0.1:1", time.Second).Reachable(context.Background()) {
		t.Error("Reachable = true for closed port")
	}
}

func TestClient_Auth(t *testing.T) {
	srv := newServer(t)
	c := New(srv.URL, time.Second)

	token, err := c.Login(context.Background(), "a@b.co", "secret1")
	if err != nil || token != "jwt-token" {
		t.Errorf("Login = %q, %v", token, err)
	}
	if _, err := c.Login(context.Background(), "a@b.co", "nope"); !errors.Is(err, syncproto.ErrUnauthorized) {
		t.Errorf("Login wrong password err = %v", err)
	}

	err = c.Register(context.Background(), "a@b.co", "secret1")
	if err == nil || err.Error() != "POST /api/auth/register: email already registered (400)" {
		t.Errorf("Register err = %v", err)
	}
}

func TestSessionFile(t *testing.T) {
	s := NewSessionFile(filepath.Join(t.TempDir(), "session.json"), "")
	if s.Token() != "" {
		t.Error("empty session should have no token")
	}
	if err := s.Save(Session{Email: "a@b.co", Token: "tkn"}); err != nil {
		t.Fatal(err)
	}
	if s.Token() != "tkn" {
		t.Errorf("Token = %q", s.Token())
	}
	s.Clear()
	if s.Token() != "" {
		t.Error("token survives Clear")
	}
}
