// Copyright (c) Microsoft. All rights reserved.

package scenario

import (
	"context"
	"encoding/json"

	"github.com/contoso/agent-observability/agent"
	"github.com/contoso/agent-observability/productapi"
)

// The product-of-the-day lookup takes no arguments.
var productOfTheDaySchema = json.RawMessage(`{"type":"object","properties":{}}`)

// NewProductOfTheDayTool returns a tool that fetches today's featured product
// from the product API.
func NewProductOfTheDayTool(api *productapi.Client) agent.Tool {
	return agent.NewTool(
		"get_product_of_the_day",
		"Get the product of the day with its id and description",
		productOfTheDaySchema,
		func(ctx context.Context, _ json.RawMessage) (any, error) {
			return api.GetProductOfTheDay(ctx)
		},
	)
}
