package receipt

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/itsneelabh/cashier/pkg/api"
	"github.com/itsneelabh/cashier/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const receipt42 = `{"success":true,"data":{
	"customer_name":"Juan","transaction_date":"2024-03-10 09:15:00",
	"subtotal":"100.00","tax":12,"discount":"5","total":107,
	"payment_method":"Cash",
	"items":[{"product_name":"Caffe Latte","quantity":"2","price":"50.00","subtotal":"100.00"}]
}}`

func newViewer(t *testing.T, status int, body string) (*Viewer, *string) {
	t.Helper()
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client, err := api.NewClient(api.Options{BaseURL: server.URL, Timeout: time.Second})
	require.NoError(t, err)
	return NewViewer(client, "/api/receipt.php", money.NewFormatter("₱"), nil), &query
}

func TestViewer_RendersEachTotalFromItsOwnField(t *testing.T) {
	v, query := newViewer(t, http.StatusOK, receipt42)
	assert.Equal(t, PhaseIdle, v.Phase())

	require.NoError(t, v.Load(context.Background(), "42"))
	assert.Equal(t, "txn=42", *query)
	assert.Equal(t, PhaseLoaded, v.Phase())

	var buf bytes.Buffer
	require.NoError(t, v.Render(&buf))
	out := buf.String()

	assert.Contains(t, out, "Order Complete")
	assert.Contains(t, out, "ID: #TXN-42")
	assert.Contains(t, out, "Juan")
	assert.Contains(t, out, "Cash")

	totals := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 {
			totals[fields[0]] = fields[1]
		}
	}
	assert.Equal(t, "₱100.00", totals["Subtotal"])
	assert.Equal(t, "₱12.00", totals["Tax"])
	assert.Equal(t, "₱5.00", totals["Discount"])
	assert.Equal(t, "₱107.00", totals["TOTAL"])
}

func TestViewer_Items(t *testing.T) {
	v, _ := newViewer(t, http.StatusOK, receipt42)
	require.NoError(t, v.Load(context.Background(), "42"))

	txn, ok := v.Transaction()
	require.True(t, ok)
	require.Len(t, txn.Items, 1)
	assert.Equal(t, 2, int(txn.Items[0].Quantity))
	assert.True(t, txn.Consistent())

	var buf bytes.Buffer
	require.NoError(t, v.Render(&buf))
	assert.Regexp(t, `Caffe Latte\s+2\s+₱100\.00`, buf.String())
}

func TestViewer_FailuresAreTerminalNoData(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{"server error", http.StatusInternalServerError, `oops`, api.ErrTransport},
		{"not found", http.StatusOK, `{"success":false,"message":"Transaction not found"}`, api.ErrUnsuccessful},
		{"malformed", http.StatusOK, `<html>`, api.ErrMalformedResponse},
		{"no data", http.StatusOK, `{"success":true}`, api.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newViewer(t, tt.status, tt.body)

			err := v.Load(context.Background(), "7")
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, PhaseNoData, v.Phase())
			assert.ErrorIs(t, v.Err(), tt.sentinel)
			_, ok := v.Transaction()
			assert.False(t, ok)

			var buf bytes.Buffer
			require.NoError(t, v.Render(&buf))
			assert.Contains(t, buf.String(), "No receipt data available.")
			assert.NotContains(t, buf.String(), "TOTAL")
		})
	}
}

func TestViewer_EmptyID(t *testing.T) {
	v, _ := newViewer(t, http.StatusOK, receipt42)
	err := v.Load(context.Background(), "  ")
	assert.True(t, errors.Is(err, ErrNoTransactionID))
	assert.Equal(t, PhaseNoData, v.Phase())
}

func TestTransaction_Consistent(t *testing.T) {
	v, _ := newViewer(t, http.StatusOK, `{"success":true,"data":{"subtotal":100,"tax":12,"discount":5,"total":120}}`)
	require.NoError(t, v.Load(context.Background(), "1"))

	txn, _ := v.Transaction()
	assert.False(t, txn.Consistent())
	assert.Equal(t, "107", txn.ExpectedTotal().String())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "no_data", PhaseNoData.String())
	assert.Equal(t, "loaded", PhaseLoaded.String())
}
