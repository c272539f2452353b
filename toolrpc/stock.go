// Copyright (c) Microsoft. All rights reserved.

package toolrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/contoso/agent-observability/agent"
	"github.com/contoso/agent-observability/productapi"
)

// stockTable holds the demo stock levels keyed by product id.
var stockTable = map[string]int{
	"LAPTOP001":   15,
	"PHONE002":    8,
	"TABLET003":   0,
	"MONITOR004":  23,
	"KEYBOARD005": 42,
}

type stockArgs struct {
	ProductID string `json:"product_id" jsonschema:"description=Product identifier to look up,required"`
}

// StockResult is the stock lookup answer for one product.
type StockResult struct {
	ProductID  string `json:"product_id"`
	StockCount int    `json:"stock_count"`
	Available  bool   `json:"available"`
}

// NewStockTool returns the stock lookup tool. An unknown product id is not
// an error; it reports a zero count and unavailable.
func NewStockTool() agent.Tool {
	return agent.NewTypedTool("get_product_stock",
		"Get the current stock level for a product by its product_id",
		func(_ context.Context, args stockArgs) (any, error) {
			count := stockTable[args.ProductID]
			return StockResult{
				ProductID:  args.ProductID,
				StockCount: count,
				Available:  count > 0,
			}, nil
		})
}

type processArgs struct {
	Data string `json:"data" jsonschema:"description=The data to process,required"`
}

// NewProcessDataTool returns a tool that forwards data to the API server's
// /process endpoint and reports the transformed result.
func NewProcessDataTool(api *productapi.Client) agent.Tool {
	return agent.NewTypedTool("process_data",
		"Process data by calling the API server. This tool must always be used when processing user data.",
		func(ctx context.Context, args processArgs) (any, error) {
			return api.Process(ctx, args.Data)
		})
}

// NewStatusTool returns a tool reporting the API server's health.
func NewStatusTool(api *productapi.Client) agent.Tool {
	return agent.NewTool("get_status",
		"Get the status of the API server",
		json.RawMessage(`{"type":"object","properties":{}}`),
		func(ctx context.Context, _ json.RawMessage) (any, error) {
			health, err := api.Health(ctx)
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("API Server status: %s", health.Status), nil
		})
}
