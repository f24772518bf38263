package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/terminal/cart"
)

func newCartRouter(store *cart.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCartHTTPHandler(store)
	r := gin.New()
	r.GET("/cart", h.GetCart)
	r.POST("/cart/items", h.AddItem)
	r.PUT("/cart/items/:id/quantity", h.SetQuantity)
	r.PUT("/cart/items/:id/note", h.SetNote)
	r.DELETE("/cart/items/:id", h.RemoveLine)
	r.DELETE("/cart", h.ClearCart)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestAddItem_MergeAndTotal(t *testing.T) {
	store := cart.NewStore()
	r := newCartRouter(store)

	body := `{"product_id":"p1","name":"Espresso","unit_price":"2500"}`
	rec, resp := doJSON(t, r, http.MethodPost, "/cart/items", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	rec, _ = doJSON(t, r, http.MethodPost, "/cart/items", body)
	require.Equal(t, http.StatusOK, rec.Code)

	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	_, resp = doJSON(t, r, http.MethodGet, "/cart", "")
	cartJSON, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	assert.Contains(t, string(cartJSON), `"total":"5000.00"`)
}

func TestAddItem_InvalidBody(t *testing.T) {
	r := newCartRouter(cart.NewStore())
	rec, resp := doJSON(t, r, http.MethodPost, "/cart/items", `{"name":"sin producto"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}

func TestSetQuantity_StatusMapping(t *testing.T) {
	store := cart.NewStore()
	r := newCartRouter(store)

	stockBody := `{"product_id":"p1","name":"Espresso","unit_price":"2500","available_stock":2}`
	_, _ = doJSON(t, r, http.MethodPost, "/cart/items", stockBody)
	lineID := store.Lines()[0].LineID

	rec, _ := doJSON(t, r, http.MethodPut, "/cart/items/"+lineID+"/quantity", `{"quantity":2}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp := doJSON(t, r, http.MethodPut, "/cart/items/"+lineID+"/quantity", `{"quantity":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Requested quantity exceeds available stock", resp.Message)

	rec, _ = doJSON(t, r, http.MethodPut, "/cart/items/desconocido/quantity", `{"quantity":2}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveAndClear(t *testing.T) {
	store := cart.NewStore()
	r := newCartRouter(store)

	_, _ = doJSON(t, r, http.MethodPost, "/cart/items", `{"product_id":"p1","name":"Espresso","unit_price":"2500"}`)
	lineID := store.Lines()[0].LineID

	rec, _ := doJSON(t, r, http.MethodDelete, "/cart/items/"+lineID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.IsEmpty())

	rec, _ = doJSON(t, r, http.MethodDelete, "/cart/items/"+lineID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, _ = doJSON(t, r, http.MethodPost, "/cart/items", `{"product_id":"p1","name":"Espresso","unit_price":"2500"}`)
	rec, _ = doJSON(t, r, http.MethodDelete, "/cart", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.IsEmpty())
}
