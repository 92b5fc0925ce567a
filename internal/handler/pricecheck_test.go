package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"playpos/internal/dto"
	"playpos/internal/model"
	"playpos/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCatalog serves a fixed tier table; the embedded interface panics on
// anything else, which these tests never call.
type stubCatalog struct {
	service.CatalogService
	tiers []model.TimeTier
}

func (s *stubCatalog) GetActiveTimeTiers(context.Context) ([]model.TimeTier, error) {
	return s.tiers, nil
}

func TestGetTimePricePreview(t *testing.T) {
	catalog := &stubCatalog{tiers: []model.TimeTier{
		{Name: "hour", Minutes: 60, Price: decimal.NewFromInt(50), Position: 1, Active: true},
	}}
	h := NewPriceCheckHandler(nil, catalog, nil)

	r := newTestRouter()
	r.GET("/v1/time-price", h.GetTimePrice)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/time-price?minutes=90", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.TimePriceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 90, resp.Minutes)
	// 60 min flat 50, then 30 min extrapolated at 50/60 per minute.
	assert.Equal(t, "75.00", resp.Charge.StringFixed(2))
}

func TestGetTimePriceRejectsBadMinutes(t *testing.T) {
	h := NewPriceCheckHandler(nil, &stubCatalog{}, nil)
	r := newTestRouter()
	r.GET("/v1/time-price", h.GetTimePrice)

	for _, q := range []string{"", "0", "-5", "abc"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/time-price?minutes="+q, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, "minutes=%q", q)
	}
}

func TestGetTimePriceUnusableTierTable(t *testing.T) {
	h := NewPriceCheckHandler(nil, &stubCatalog{}, nil)
	r := newTestRouter()
	r.GET("/v1/time-price", h.GetTimePrice)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/time-price?minutes=30", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
