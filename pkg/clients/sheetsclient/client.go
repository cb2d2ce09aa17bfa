package sheetsclient

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client wraps the Google Sheets API client for read-only access with an API key
type Client struct {
	service *sheets.Service
}

// NewClient creates a new Sheets client authenticated with an API key.
// An empty key builds an unauthenticated client; callers check for a key before reading.
// Extra options (for example option.WithEndpoint) are applied after the key.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	auth := option.WithAPIKey(apiKey)
	if apiKey == "" {
		auth = option.WithoutAuthentication()
	}
	clientOpts := append([]option.ClientOption{auth}, opts...)

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service: service,
	}, nil
}

// BatchGet reads several ranges in one request. The result holds one value
// matrix per requested range, in request order.
func (c *Client) BatchGet(ctx context.Context, spreadsheetID string, ranges []string) ([][][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.BatchGet(spreadsheetID).
		Ranges(ranges...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to batch get values: %w", err)
	}

	if len(resp.ValueRanges) != len(ranges) {
		return nil, fmt.Errorf("%w: requested %d ranges, got %d",
			ErrUnexpectedResponse, len(ranges), len(resp.ValueRanges))
	}

	values := make([][][]interface{}, len(resp.ValueRanges))
	for i, vr := range resp.ValueRanges {
		if vr == nil {
			continue
		}
		values[i] = vr.Values
	}

	return values, nil
}
