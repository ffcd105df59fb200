package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jkimathi/sokoflow-backend/pkg/config"
)

func TestSendGridSendPostsPayload(t *testing.T) {
	var got sendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender, err := NewSendGrid(config.MailConfig{APIKey: "sg-key", DefaultFrom: "orders@sokoflow.app"})
	if err != nil {
		t.Fatalf("new sendgrid: %v", err)
	}
	sender.endpoint = srv.URL
	sender.client = &http.Client{Timeout: time.Second}

	err = sender.Send(context.Background(), Message{
		To:      "buyer@example.com",
		Subject: "Order ORD-123 confirmed",
		Text:    "Your order has been placed.",
		HTML:    "<p>Your order has been placed.</p>",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if auth != "Bearer sg-key" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.From.Email != "orders@sokoflow.app" {
		t.Fatalf("unexpected from %q", got.From.Email)
	}
	if len(got.Personalizations) != 1 || len(got.Personalizations[0].To) != 1 ||
		got.Personalizations[0].To[0].Email != "buyer@example.com" {
		t.Fatalf("unexpected recipients %+v", got.Personalizations)
	}
	if len(got.Content) != 2 || got.Content[0].Type != "text/plain" || got.Content[1].Type != "text/html" {
		t.Fatalf("expected plain part before html part, got %+v", got.Content)
	}
}

func TestSendGridSendSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	sender, err := NewSendGrid(config.MailConfig{APIKey: "sg-key", DefaultFrom: "orders@sokoflow.app"})
	if err != nil {
		t.Fatalf("new sendgrid: %v", err)
	}
	sender.endpoint = srv.URL
	sender.client = &http.Client{Timeout: time.Second}

	err = sender.Send(context.Background(), Message{To: "x@example.com", Subject: "s", Text: "t"})
	if err == nil {
		t.Fatal("expected error from api failure")
	}
}

func TestSendGridSendValidatesInput(t *testing.T) {
	sender, err := NewSendGrid(config.MailConfig{APIKey: "sg-key", DefaultFrom: "orders@sokoflow.app"})
	if err != nil {
		t.Fatalf("new sendgrid: %v", err)
	}

	if err := sender.Send(context.Background(), Message{Subject: "s", Text: "t"}); err == nil {
		t.Fatal("expected missing recipient error")
	}
	if err := sender.Send(context.Background(), Message{To: "x@example.com", Subject: "s"}); err == nil {
		t.Fatal("expected missing body error")
	}
}

func TestNewSendGridRequiresKey(t *testing.T) {
	if _, err := NewSendGrid(config.MailConfig{}); err == nil {
		t.Fatal("expected missing api key error")
	}
}
