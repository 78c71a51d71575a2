package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/equiptrade/fulfillment-backend/pkg/config"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
)

func TestSendPostsSendgridPayload(t *testing.T) {
	var captured sendgridPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != sendPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(config.SendgridConfig{APIKey: "key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.Send(context.Background(), Message{
		From:    Address{Email: "no-reply@equiptrade.dz", Name: "EquipTrade"},
		To:      Address{Email: "buyer@example.com", Name: "Buyer"},
		ReplyTo: &Address{Email: "support@equiptrade.dz"},
		Subject: "[EquipTrade] Order confirmed",
		Body:    "Your order was confirmed.",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if auth != "Bearer key" {
		t.Fatalf("unexpected authorization header %q", auth)
	}
	if len(captured.Personalizations) != 1 || captured.Personalizations[0].To[0].Email != "buyer@example.com" {
		t.Fatalf("unexpected personalizations %+v", captured.Personalizations)
	}
	if captured.Subject != "[EquipTrade] Order confirmed" {
		t.Fatalf("unexpected subject %q", captured.Subject)
	}
	if captured.ReplyTo == nil || captured.ReplyTo.Email != "support@equiptrade.dz" {
		t.Fatalf("expected reply_to to be set")
	}
}

func TestSendSurfacesNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewClient(config.SendgridConfig{APIKey: "key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.Send(context.Background(), Message{
		From: Address{Email: "no-reply@equiptrade.dz"},
		To:   Address{Email: "buyer@example.com"},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestSendValidatesAddresses(t *testing.T) {
	client, err := NewClient(config.SendgridConfig{APIKey: "key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	err = client.Send(context.Background(), Message{From: Address{Email: "a@b.c"}})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(config.SendgridConfig{}); err == nil {
		t.Fatal("expected missing api key to fail")
	}
}
