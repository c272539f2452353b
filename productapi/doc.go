// Copyright (c) Microsoft. All rights reserved.

// Package productapi implements the product API service and its client.
//
// The service is the HTTP tool target of the demo: it serves a fixed product
// catalog, a product-of-the-day pick, a data transform, and a health probe.
// The handlers are mounted on a net/http ServeMux and wrapped in otelhttp so
// incoming requests join the caller's trace, with baggage-projected identity
// attributes on every server span.
//
//	srv := productapi.NewServer(productapi.WithServiceName("api-server"))
//	http.ListenAndServe(":8000", srv.Handler())
//
// Client is the typed counterpart used by agent tools and the tool server.
// Its calls carry per-call timeouts and propagate trace context and baggage
// through an otelhttp transport:
//
//	api := productapi.NewClient("http://localhost:8000")
//	product, err := api.GetProductOfTheDay(ctx)
//
// Failures surface as *agent.ServiceError carrying the HTTP status code.
package productapi
