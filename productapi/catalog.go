// Copyright (c) Microsoft. All rights reserved.

package productapi

import "time"

// Product is one catalog entry served by the API.
type Product struct {
	ID          string `json:"product_id"`
	Description string `json:"product_description"`
}

// catalog is the fixed roster of products. The service has no storage; the
// catalog exists so traced tool calls have stable, recognizable payloads.
var catalog = []Product{
	{ID: "LAPTOP001", Description: "High-performance laptop with 16GB RAM and 512GB SSD"},
	{ID: "PHONE002", Description: "Latest smartphone with advanced camera system"},
	{ID: "TABLET003", Description: "Lightweight tablet perfect for productivity"},
	{ID: "MONITOR004", Description: "27-inch 4K monitor with HDR support"},
	{ID: "KEYBOARD005", Description: "Mechanical keyboard with RGB lighting"},
}

// Catalog returns a copy of the product roster.
func Catalog() []Product {
	return append([]Product(nil), catalog...)
}

// ProductOfTheDay picks the catalog entry for the given time. Selection is
// keyed on the day of the year, so every call within one day agrees.
func ProductOfTheDay(now time.Time) Product {
	return catalog[now.YearDay()%len(catalog)]
}
