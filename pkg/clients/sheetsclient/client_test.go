package sheetsclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), "test-key",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return client
}

func TestBatchGet_ReturnsRangesInOrder(t *testing.T) {
	var gotRanges []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v4/spreadsheets/sheet-123/values:batchGet"), r.URL.Path)
		gotRanges = r.URL.Query()["ranges"]

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"spreadsheetId": "sheet-123",
			"valueRanges": [
				{"range": "Master!E1:E4", "majorDimension": "ROWS", "values": [["First"], ["Ann"], [], ["Bo"]]},
				{"range": "Master!F1:F1", "majorDimension": "ROWS"}
			]
		}`))
	})

	values, err := client.BatchGet(context.Background(), "sheet-123", []string{"Master!E1:E", "Master!F1:F"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Master!E1:E", "Master!F1:F"}, gotRanges)
	require.Len(t, values, 2)
	require.Len(t, values[0], 4)
	assert.Equal(t, "Ann", values[0][1][0])
	assert.Empty(t, values[0][2])
	assert.Empty(t, values[1])
}

func TestBatchGet_RangeCountMismatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"spreadsheetId": "s", "valueRanges": [{"range": "A!A1"}]}`))
	})

	_, err := client.BatchGet(context.Background(), "s", []string{"A!A1", "A!B1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestBatchGet_PermissionDenied(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"code": 403, "message": "The caller does not have permission", "status": "PERMISSION_DENIED"}}`))
	})

	_, err := client.BatchGet(context.Background(), "s", []string{"A!A1"})
	require.Error(t, err)

	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Code)
}

func TestRanges(t *testing.T) {
	assert.Equal(t, "Master!E1:E", ColumnRange("Master", "E"))
	assert.Equal(t, "'Merit Scholarships'!A7:A33", CellRange("Merit Scholarships", "A7:A33"))
	assert.Equal(t, "'Bob''s Sheet'!A1", CellRange("Bob's Sheet", "A1"))
	assert.Equal(t, "Summary!J2", CellRange("Summary", "J2"))
}
