// Copyright (c) Microsoft. All rights reserved.

package productapi_test

import (
	"testing"
	"time"

	"github.com/contoso/agent-observability/productapi"
)

func TestProductOfTheDay_Deterministic(t *testing.T) {
	day := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	first := productapi.ProductOfTheDay(day)
	for i := 0; i < 5; i++ {
		got := productapi.ProductOfTheDay(day.Add(time.Duration(i) * time.Hour))
		if got != first {
			t.Fatalf("pick changed within one day: %v vs %v", got, first)
		}
	}

	catalog := productapi.Catalog()
	want := catalog[day.YearDay()%len(catalog)]
	if first != want {
		t.Errorf("pick = %v, want %v", first, want)
	}

	nextDay := productapi.ProductOfTheDay(day.AddDate(0, 0, 1))
	if nextDay == first {
		t.Errorf("consecutive days picked the same product %v", first)
	}
}

func TestCatalog_ReturnsCopy(t *testing.T) {
	got := productapi.Catalog()
	if len(got) == 0 {
		t.Fatal("empty catalog")
	}

	got[0].ID = "MUTATED"

	again := productapi.Catalog()
	if again[0].ID == "MUTATED" {
		t.Error("catalog mutated through returned slice")
	}
}

func TestCatalog_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range productapi.Catalog() {
		if p.ID == "" || p.Description == "" {
			t.Errorf("incomplete entry: %+v", p)
		}
		if seen[p.ID] {
			t.Errorf("duplicate product id %q", p.ID)
		}
		seen[p.ID] = true
	}
}
