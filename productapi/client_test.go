// Copyright (c) Microsoft. All rights reserved.

package productapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/contoso/agent-observability/agent"
	"github.com/contoso/agent-observability/productapi"
)

func TestClient_RoundTrip(t *testing.T) {
	ts := newTestServer(t)
	client := productapi.NewClient(ts.URL)
	ctx := context.Background()

	health, err := client.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("health.Status = %q", health.Status)
	}

	product, err := client.GetProductOfTheDay(ctx)
	if err != nil {
		t.Fatalf("GetProductOfTheDay: %v", err)
	}
	if product.ID == "" || product.Description == "" {
		t.Errorf("incomplete product: %+v", product)
	}

	processed, err := client.Process(ctx, "abc")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if processed.Processed != "ABC" {
		t.Errorf("Processed = %q", processed.Processed)
	}
	if processed.Length != 3 {
		t.Errorf("Length = %d", processed.Length)
	}
}

func TestClient_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"catalog unavailable"}`))
	}))
	defer ts.Close()

	client := productapi.NewClient(ts.URL)
	_, err := client.GetProductOfTheDay(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	var svcErr *agent.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %T", err)
	}
	if svcErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", svcErr.StatusCode)
	}
	if svcErr.Message != "catalog unavailable" {
		t.Errorf("Message = %q", svcErr.Message)
	}
	if !errors.Is(err, agent.ErrService) {
		t.Errorf("err = %v, want ErrService in chain", err)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	client := productapi.NewClient(url)
	_, err := client.Health(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, agent.ErrService) {
		t.Errorf("err = %v, want ErrService in chain", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	client := productapi.NewClient(ts.URL, productapi.WithClientTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := client.Health(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
	if !errors.Is(err, agent.ErrService) {
		t.Errorf("err = %v, want ErrService in chain", err)
	}
}

func TestClient_BadResponseBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer ts.Close()

	client := productapi.NewClient(ts.URL)
	_, err := client.Health(context.Background())
	if !errors.Is(err, agent.ErrInvalidResponse) {
		t.Errorf("err = %v, want ErrInvalidResponse in chain", err)
	}
}
