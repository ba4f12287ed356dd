package mockapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seedTime = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *Issuer) {
	t.Helper()
	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	store := NewStore()
	Seed(store, seedTime)

	srv, err := New(Options{Store: store, Issuer: issuer})
	require.NoError(t, err)
	return srv, issuer
}

func do(t *testing.T, srv *Server, target, token string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return resp.StatusCode, out
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)
	status, body := do(t, srv, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}

func TestServer_ProductsPublic(t *testing.T) {
	srv, _ := newTestServer(t)
	status, body := do(t, srv, PathProducts, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["products"], 4)
}

func TestServer_ProductsRejectsBadToken(t *testing.T) {
	srv, _ := newTestServer(t)
	status, body := do(t, srv, PathProducts, "garbage")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
}

func TestServer_Receipt(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := do(t, srv, PathReceipt+"?txn=42", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "107", data["total"])
	assert.Equal(t, "12", data["tax"])

	_, body = do(t, srv, PathReceipt+"?txn=999", "")
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Transaction not found", body["message"])

	status, _ = do(t, srv, PathReceipt, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestServer_ReportsRequireToken(t *testing.T) {
	srv, _ := newTestServer(t)
	status, body := do(t, srv, PathReports+"?date=2024-03-10", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Missing bearer token", body["message"])
}

func TestServer_SalesReport(t *testing.T) {
	srv, issuer := newTestServer(t)
	token, err := issuer.Issue("cashier-1")
	require.NoError(t, err)

	status, body := do(t, srv, PathReports+"?date=2024-03-10", token)
	require.Equal(t, http.StatusOK, status)
	sold := body["soldProducts"].([]interface{})
	require.Len(t, sold, 2)
	first := sold[0].(map[string]interface{})
	assert.Equal(t, "Cold Brew", first["product_name"], "ordered by revenue")

	_, body = do(t, srv, PathReports+"?date=2024-03-09", token)
	assert.Empty(t, body["soldProducts"])

	status, _ = do(t, srv, PathReports+"?date=yesterday", token)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestServer_InventoryReport(t *testing.T) {
	srv, issuer := newTestServer(t)
	token, err := issuer.Issue("cashier-1")
	require.NoError(t, err)

	status, body := do(t, srv, PathReports+"?type=inventory", token)
	require.Equal(t, http.StatusOK, status)
	logs := body["restockLogs"].([]interface{})
	require.Len(t, logs, 2)
	newest := logs[0].(map[string]interface{})
	assert.Equal(t, "Cold Brew", newest["product_name"])
	assert.EqualValues(t, 4, newest["added_stock"])
	assert.EqualValues(t, 12, newest["new_stock"])
}

func TestServer_BasePath(t *testing.T) {
	issuer, err := NewIssuer("s", 0)
	require.NoError(t, err)
	srv, err := New(Options{Issuer: issuer, BasePath: "/starbux/Starbucks"})
	require.NoError(t, err)

	status, body := do(t, srv, "/starbux/Starbucks"+PathProducts, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
}

func TestNew_RequiresIssuer(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
