// Copyright (c) Microsoft. All rights reserved.

package productapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/contoso/agent-observability/productapi"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := productapi.NewServer(productapi.WithServiceName("api-server"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp.StatusCode
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	var health productapi.HealthStatus
	status := getJSON(t, ts.URL+"/health", &health)

	if status != http.StatusOK {
		t.Errorf("status = %d", status)
	}
	if health.Status != "healthy" {
		t.Errorf("health.Status = %q", health.Status)
	}
	if health.Service != "api-server" {
		t.Errorf("health.Service = %q", health.Service)
	}
}

func TestServer_Root(t *testing.T) {
	ts := newTestServer(t)

	var info map[string]string
	status := getJSON(t, ts.URL+"/", &info)

	if status != http.StatusOK {
		t.Errorf("status = %d", status)
	}
	if info["service"] != "api-server" {
		t.Errorf("service = %q", info["service"])
	}
	if info["status"] != "running" {
		t.Errorf("status field = %q", info["status"])
	}
}

func TestServer_ProductOfTheDay(t *testing.T) {
	ts := newTestServer(t)

	var first, second productapi.Product
	getJSON(t, ts.URL+"/product-of-the-day", &first)
	getJSON(t, ts.URL+"/product-of-the-day", &second)

	if first != second {
		t.Errorf("pick changed between calls: %v vs %v", first, second)
	}

	found := false
	for _, p := range productapi.Catalog() {
		if p == first {
			found = true
		}
	}
	if !found {
		t.Errorf("served product %v is not in the catalog", first)
	}
}

func TestServer_Process(t *testing.T) {
	ts := newTestServer(t)

	body := strings.NewReader(`{"data":"hello agent"}`)
	resp, err := http.Post(ts.URL+"/process", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got productapi.ProcessResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}

	if got.Original != "hello agent" {
		t.Errorf("Original = %q", got.Original)
	}
	if got.Processed != "HELLO AGENT" {
		t.Errorf("Processed = %q", got.Processed)
	}
	if got.Length != len("hello agent") {
		t.Errorf("Length = %d", got.Length)
	}
}

func TestServer_Process_BadBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/process", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["error"] == "" {
		t.Error("missing error message")
	}
}

func TestServer_UnknownPath(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
