package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func testClient(url string) *Client {
	l := zerolog.Nop()
	return NewClient(url, "sekret", &l)
}

func TestLoginExtractsPlayerID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "sekret" {
			t.Errorf("api key = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"username":"alice","password":"pw"}` {
			t.Errorf("body = %s", body)
		}
		w.Write([]byte(`{"status":"ok","player_id":"srv-42"}`))
	}))
	defer srv.Close()

	id, err := testClient(srv.URL).Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if id != "srv-42" {
		t.Fatalf("player id = %q", id)
	}
}

func TestLoginRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).Login(context.Background(), "alice", "wrong"); err == nil {
		t.Fatal("expected error")
	}
}

func TestRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/register" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	if err := testClient(srv.URL).Register(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}
}
