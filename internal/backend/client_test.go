package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/pos"
)

func TestSubmitSale_DecodesEnvelope(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"Sale created","data":{"order_number":"A-0099"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok-123")
	lines := []pos.SaleLine{{ProductID: "p1", Name: "Espresso", UnitPrice: decimal.NewFromInt(2500), Quantity: 2, AddOns: []pos.AddOn{}}}

	orderNumber, err := c.SubmitSale(context.Background(), "loc-1", lines, decimal.NewFromInt(5000), "efectivo", "Local")
	require.NoError(t, err)

	assert.Equal(t, "A-0099", orderNumber)
	assert.Equal(t, "/api/v1/locations/loc-1/sales", gotPath)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "efectivo", gotBody["payment_type"])
	assert.Equal(t, "Local", gotBody["order_type"])
}

func TestSubmitSale_BackendMessagePassesThroughVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"success":false,"message":"Stock insuficiente para Espresso"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.SubmitSale(context.Background(), "loc-1", nil, decimal.Zero, "efectivo", "Local")

	require.Error(t, err)
	assert.Equal(t, "Stock insuficiente para Espresso", Message(err))
	assert.Equal(t, "Stock insuficiente para Espresso", err.Error())
}

func TestOpenRegister_ConflictDetected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"message":"Ya existe una caja abierta"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.OpenRegister(context.Background(), "loc-1", decimal.NewFromInt(1000))

	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestDo_FailureEnvelopeWithOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"message":"Algo fallo"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.ListHeldTickets(context.Background(), "loc-1")

	require.Error(t, err)
	assert.Equal(t, "Algo fallo", Message(err))
	assert.False(t, IsConflict(err))
}

func TestDo_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream timeout"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.GetSale(context.Background(), "loc-1", "A-0001")

	require.Error(t, err)
	assert.Empty(t, Message(err))
}

func TestGetReceiptConfig_AppliesDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"footer_text":"Gracias"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	cfg, err := c.GetReceiptConfig(context.Background(), "loc-1")
	require.NoError(t, err)

	assert.Equal(t, pos.DefaultReceiptTitle, cfg.Title)
	assert.Equal(t, "Gracias", cfg.FooterText)
	assert.Equal(t, pos.DefaultAutoPrintCopies, cfg.Copies(), "absent copy count falls back to one")
}

func TestCloseRegister_ReturnsSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/locations/loc-1/register/close", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"summary":{"operator_name":"Ana","total_sold":"42000","totals_by_payment_type":{"efectivo":"42000"}}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	summary, err := c.CloseRegister(context.Background(), "loc-1", "Ana")
	require.NoError(t, err)

	assert.Equal(t, "Ana", summary.OperatorName)
	assert.True(t, summary.TotalSold.Equal(decimal.NewFromInt(42000)))
}
