package handler_test

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dutycalc/internal/csvexport"
	"dutycalc/internal/domain"
	"dutycalc/internal/handler"
	"dutycalc/internal/service"
	"dutycalc/mocks"
)

func newDutyHandler() (*handler.DutyHandler, *mocks.MockCalculationService) {
	svc := new(mocks.MockCalculationService)
	return handler.NewDutyHandler(svc, 100), svc
}

func postJSON(path, body string) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return w, c
}

func sampleResult() *domain.DutyCalculationResult {
	return &domain.DutyCalculationResult{
		Input: domain.DutyCalculationInput{
			HSCode:          "8471300010",
			CountryCode:     "USA",
			CustomsValue:    decimal.RequireFromString("2500"),
			CalculationDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			ValueBasis:      domain.ValueBasisCIF,
		},
		Components: []domain.DutyComponent{
			{Kind: domain.DutyKindFTA, Rate: decimal.Zero, Amount: decimal.Zero, Description: "AUSFTA preferential rate"},
			{Kind: domain.DutyKindGST, Rate: decimal.NewFromInt(10), Amount: decimal.RequireFromString("250"), Description: "GST"},
		},
		BestRateType:       domain.BestRateFTA,
		TotalDuty:          decimal.Zero,
		DutyInclusiveValue: decimal.RequireFromString("2500"),
		TotalGST:           decimal.RequireFromString("250"),
		TotalAmount:        decimal.RequireFromString("2750"),
		CalculationSteps:   []string{"Base rate: FTA"},
	}
}

func TestDutyHandler_Calculate_Success(t *testing.T) {
	h, svc := newDutyHandler()

	svc.On("Calculate", mock.Anything, mock.MatchedBy(func(in domain.DutyCalculationInput) bool {
		return in.HSCode == "8471.30.00.10" &&
			in.CountryCode == "usa" &&
			in.CustomsValue.Equal(decimal.RequireFromString("2500")) &&
			in.CalculationDate.Equal(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)) &&
			in.Quantity == nil
	})).Return(sampleResult(), nil)

	w, c := postJSON("/api/v1/duty/calculate",
		`{"hs_code":"8471.30.00.10","country_code":"usa","customs_value":2500,"calculation_date":"2024-07-01"}`)
	h.Calculate(c)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, true, resp["success"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "fta", data["best_rate_type"])
	assert.Equal(t, 2750.0, data["total_amount"])
	assert.Equal(t, "2024-07-01", data["calculation_date"])
	assert.Nil(t, data["general_duty"])
	assert.NotNil(t, data["fta_duty"])
	svc.AssertExpectations(t)
}

func TestDutyHandler_Calculate_QuantityAsString(t *testing.T) {
	h, svc := newDutyHandler()

	svc.On("Calculate", mock.Anything, mock.MatchedBy(func(in domain.DutyCalculationInput) bool {
		return in.Quantity != nil && in.Quantity.Equal(decimal.NewFromInt(25)) && in.ExporterName == "Baosteel"
	})).Return(sampleResult(), nil)

	w, c := postJSON("/api/v1/duty/calculate",
		`{"hs_code":"72085100","country_code":"CHN","customs_value":"50000.00","quantity":"25","exporter_name":"Baosteel"}`)
	h.Calculate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestDutyHandler_Calculate_InvalidBody(t *testing.T) {
	h, svc := newDutyHandler()

	w, c := postJSON("/api/v1/duty/calculate", `{"hs_code":`)
	h.Calculate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w.Body.Bytes()))
	svc.AssertNotCalled(t, "Calculate")
}

func TestDutyHandler_Calculate_BadDate(t *testing.T) {
	h, svc := newDutyHandler()

	w, c := postJSON("/api/v1/duty/calculate",
		`{"hs_code":"8471300010","country_code":"USA","customs_value":100,"calculation_date":"01/07/2024"}`)
	h.Calculate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w.Body.Bytes()))
	assert.Contains(t, w.Body.String(), "calculation_date")
	svc.AssertNotCalled(t, "Calculate")
}

func TestDutyHandler_Calculate_EngineValidationError(t *testing.T) {
	h, svc := newDutyHandler()
	svc.On("Calculate", mock.Anything, mock.Anything).
		Return(nil, domain.NewValidationError("customs_value", "must be greater than zero"))

	w, c := postJSON("/api/v1/duty/calculate", `{"hs_code":"8471300010","country_code":"USA"}`)
	h.Calculate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid customs_value: must be greater than zero")
}

func TestDutyHandler_Calculate_StoreUnavailable(t *testing.T) {
	h, svc := newDutyHandler()
	svc.On("Calculate", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("store session: %w", domain.ErrStoreUnavailable))

	w, c := postJSON("/api/v1/duty/calculate", `{"hs_code":"8471300010","country_code":"USA","customs_value":100}`)
	h.Calculate(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "STORE_UNAVAILABLE", errorCode(t, w.Body.Bytes()))
}

const batchBody = `{"items":[
	{"hs_code":"8471300010","country_code":"USA","customs_value":2500},
	{"hs_code":"8471300010","country_code":"USA","customs_value":2500,"calculation_date":"2024-13-40"},
	{"hs_code":"72085100","country_code":"CHN","customs_value":50000}
]}`

func TestDutyHandler_CalculateBatch_PerItemOutcomes(t *testing.T) {
	h, svc := newDutyHandler()

	svc.On("CalculateBatch", mock.Anything, mock.MatchedBy(func(items []domain.DutyCalculationInput) bool {
		return len(items) == 2 && items[0].HSCode == "8471300010" && items[1].HSCode == "72085100"
	})).Return([]service.BatchItemResult{
		{Index: 0, Result: sampleResult()},
		{Index: 1, Err: fmt.Errorf("store session: %w", domain.ErrStoreUnavailable)},
	}, nil)

	w, c := postJSON("/api/v1/duty/calculate/batch", batchBody)
	h.CalculateBatch(c)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w.Body.Bytes())
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, 1.0, data["succeeded"])
	assert.Equal(t, 2.0, data["failed"])

	results := data["results"].([]interface{})
	require.Len(t, results, 3)

	first := results[0].(map[string]interface{})
	assert.Equal(t, 0.0, first["index"])
	assert.NotNil(t, first["result"])
	assert.Nil(t, first["error"])

	second := results[1].(map[string]interface{})
	assert.Equal(t, 1.0, second["index"])
	assert.Equal(t, "VALIDATION_ERROR", second["error"].(map[string]interface{})["code"])

	third := results[2].(map[string]interface{})
	assert.Equal(t, 2.0, third["index"])
	assert.Equal(t, "STORE_UNAVAILABLE", third["error"].(map[string]interface{})["code"])
	svc.AssertExpectations(t)
}

func TestDutyHandler_CalculateBatch_TooLarge(t *testing.T) {
	h, svc := newDutyHandler()
	svc.On("CalculateBatch", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: 3 items, limit is 2", domain.ErrBatchTooLarge))

	w, c := postJSON("/api/v1/duty/calculate/batch", batchBody)
	h.CalculateBatch(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BATCH_TOO_LARGE", errorCode(t, w.Body.Bytes()))
}

func TestDutyHandler_CalculateBatch_LimitCountsRejectedItems(t *testing.T) {
	svc := new(mocks.MockCalculationService)
	h := handler.NewDutyHandler(svc, 2)

	// Three items, one with a bad date: only two would reach the service.
	w, c := postJSON("/api/v1/duty/calculate/batch", batchBody)
	h.CalculateBatch(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BATCH_TOO_LARGE", errorCode(t, w.Body.Bytes()))
	assert.Contains(t, w.Body.String(), "3 items, limit is 2")
	svc.AssertNotCalled(t, "CalculateBatch", mock.Anything, mock.Anything)
}

func TestDutyHandler_CalculateBatch_Empty(t *testing.T) {
	h, svc := newDutyHandler()
	svc.On("CalculateBatch", mock.Anything, []domain.DutyCalculationInput{}).
		Return(nil, domain.NewValidationError("items", "must contain at least one calculation"))

	w, c := postJSON("/api/v1/duty/calculate/batch", `{"items":[]}`)
	h.CalculateBatch(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w.Body.Bytes()))
}

func TestDutyHandler_CalculateBatch_UnknownFormat(t *testing.T) {
	h, svc := newDutyHandler()

	w, c := postJSON("/api/v1/duty/calculate/batch?format=xml", batchBody)
	h.CalculateBatch(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "CalculateBatch")
}

func TestDutyHandler_CalculateBatch_CSV(t *testing.T) {
	h, svc := newDutyHandler()
	svc.On("CalculateBatch", mock.Anything, mock.Anything).Return([]service.BatchItemResult{
		{Index: 0, Result: sampleResult()},
		{Index: 1, Err: fmt.Errorf("store session: %w", domain.ErrStoreUnavailable)},
	}, nil)

	w, c := postJSON("/api/v1/duty/calculate/batch?format=csv", batchBody)
	h.CalculateBatch(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "duty_calculations_")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")

	body := w.Body.Bytes()
	require.True(t, len(body) >= 3)
	assert.Equal(t, csvexport.BOM, body[:3])

	records, err := csv.NewReader(strings.NewReader(string(body[3:]))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "Item", records[0][0])
	assert.Equal(t, "8471300010", records[1][1])
	assert.Equal(t, "2750.00", records[1][14])
	assert.Equal(t, "VALIDATION_ERROR", records[2][17])
	assert.Equal(t, "STORE_UNAVAILABLE", records[3][17])
}
