package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProfileServiceClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Service-Token") != "svc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/v1/public/profiles/u1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"external_id":"u1","username":"alice","profile_picture_url":"https://cdn.example/a.png"}`))
		case "/api/v1/public/profiles/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewProfileServiceClient(srv.URL, "svc")
	ctx := context.Background()

	p, err := client.Profile(ctx, "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.UserID != "u1" || p.Username != "alice" || p.AvatarURL != "https://cdn.example/a.png" {
		t.Errorf("profile = %+v", p)
	}

	if _, err := client.Profile(ctx, "ghost"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("missing profile err = %v, want ErrPlayerNotFound", err)
	}
	if _, err := client.Profile(ctx, "broken"); err == nil {
		t.Errorf("expected error on 502")
	}
	if _, err := NewProfileServiceClient(srv.URL, "wrong").Profile(ctx, "u1"); err == nil {
		t.Errorf("expected error with bad token")
	}
}
