// Copyright (c) Microsoft. All rights reserved.

// Package openai provides an [agent.ChatClient] implementation for the
// OpenAI Chat Completions API, including Azure OpenAI endpoints.
//
// Create a client and pass it to [agent.New]:
//
//	client := openai.New(os.Getenv("AI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//
//	a := agent.New(client)
//
// The client supports tool/function calling and all standard ChatOptions.
// Outbound requests are instrumented with otelhttp, so each completion call
// produces an HTTP client span and propagates trace context and baggage to
// the endpoint.
//
// # Configuration
//
// Use functional options to configure the client:
//
//   - [WithModel]: set the default model
//   - [WithBaseURL]: override the API endpoint (e.g., Azure OpenAI)
//   - [WithAzureCredential]: authenticate with Azure AD instead of an API key
//   - [WithOrganization]: set the OpenAI organization header
//   - [WithHTTPClient]: provide a custom http.Client
//   - [WithHeaders]: add custom headers to every request
//
// # Testing
//
// The client uses an unexported transport interface internally.
// For testing, provide a mock http.Client via [WithHTTPClient]
// with a custom RoundTripper.
package openai
