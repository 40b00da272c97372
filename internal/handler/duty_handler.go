package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"dutycalc/internal/csvexport"
	"dutycalc/internal/domain"
	"dutycalc/internal/service"
)

// DutyHandler handles duty calculation endpoints.
type DutyHandler struct {
	calcService service.CalculationService
	maxItems    int
	now         func() time.Time
}

// NewDutyHandler creates a new DutyHandler. maxItems caps the number of
// items a batch request may carry, counted before any item is rejected;
// zero means no cap.
func NewDutyHandler(calcService service.CalculationService, maxItems int) *DutyHandler {
	return &DutyHandler{calcService: calcService, maxItems: maxItems, now: time.Now}
}

// CalculateRequest is the body of a single calculation.
type CalculateRequest struct {
	HSCode          string           `json:"hs_code" example:"8471.30.00"`
	CountryCode     string           `json:"country_code" example:"USA"`
	CustomsValue    decimal.Decimal  `json:"customs_value" swaggertype:"number" example:"2500.00"`
	Quantity        *decimal.Decimal `json:"quantity,omitempty" swaggertype:"number" example:"25"`
	CalculationDate string           `json:"calculation_date,omitempty" example:"2024-07-01"`
	ExporterName    string           `json:"exporter_name,omitempty" example:"Baosteel"`
	ValueBasis      string           `json:"value_basis,omitempty" example:"CIF"`
}

// ToInput converts the request into an engine input. Field validation beyond
// the date format is left to the engine.
func (r *CalculateRequest) ToInput() (domain.DutyCalculationInput, error) {
	in := domain.DutyCalculationInput{
		HSCode:       r.HSCode,
		CountryCode:  r.CountryCode,
		CustomsValue: r.CustomsValue,
		Quantity:     r.Quantity,
		ExporterName: r.ExporterName,
		ValueBasis:   domain.ValueBasis(r.ValueBasis),
	}
	if s := strings.TrimSpace(r.CalculationDate); s != "" {
		date, err := time.Parse(domain.DateLayout, s)
		if err != nil {
			return in, domain.NewValidationError("calculation_date", "must be a date in YYYY-MM-DD format")
		}
		in.CalculationDate = date
	}
	return in, nil
}

// BatchCalculateRequest is the body of a batch calculation.
type BatchCalculateRequest struct {
	Items []CalculateRequest `json:"items"`
}

// BatchItemResponse is the outcome of one batch entry.
type BatchItemResponse struct {
	Index  int                           `json:"index"`
	Result *domain.DutyCalculationResult `json:"result,omitempty"`
	Error  *APIError                     `json:"error,omitempty"`
}

// BatchCalculateResponse is the data of a batch calculation response.
type BatchCalculateResponse struct {
	Results   []BatchItemResponse `json:"results"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

// Calculate handles POST /api/v1/duty/calculate
// @Summary Calculate landed cost
// @Description Resolve general, FTA and trade remedy duties plus GST for one shipment line
// @Tags duty
// @Accept json
// @Produce json
// @Param request body CalculateRequest true "Calculation input"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Security BearerAuth
// @Router /duty/calculate [post]
func (h *DutyHandler) Calculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	in, err := req.ToInput()
	if err != nil {
		HandleError(c, err)
		return
	}

	result, err := h.calcService.Calculate(c.Request.Context(), in)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// CalculateBatch handles POST /api/v1/duty/calculate/batch
// @Summary Calculate landed cost for many lines
// @Description Items are calculated independently; a failing item does not fail the batch
// @Tags duty
// @Accept json
// @Produce json,text/csv
// @Param request body BatchCalculateRequest true "Batch input"
// @Param format query string false "Response format (json or csv)"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Security BearerAuth
// @Router /duty/calculate/batch [post]
func (h *DutyHandler) CalculateBatch(c *gin.Context) {
	var req BatchCalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "csv" {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "format must be json or csv")
		return
	}

	if h.maxItems > 0 && len(req.Items) > h.maxItems {
		HandleError(c, fmt.Errorf("%w: %d items, limit is %d", domain.ErrBatchTooLarge, len(req.Items), h.maxItems))
		return
	}

	items := make([]BatchItemResponse, len(req.Items))
	inputs := make([]domain.DutyCalculationInput, 0, len(req.Items))
	positions := make([]int, 0, len(req.Items))
	for i := range req.Items {
		items[i].Index = i
		in, err := req.Items[i].ToInput()
		if err != nil {
			items[i].Error = itemError(err)
			continue
		}
		inputs = append(inputs, in)
		positions = append(positions, i)
	}

	if len(req.Items) == 0 || len(inputs) > 0 {
		results, err := h.calcService.CalculateBatch(c.Request.Context(), inputs)
		if err != nil {
			HandleError(c, err)
			return
		}
		for _, r := range results {
			pos := positions[r.Index]
			if r.Err != nil {
				items[pos].Error = itemError(r.Err)
				continue
			}
			items[pos].Result = r.Result
		}
	}

	resp := BatchCalculateResponse{Results: items}
	for i := range items {
		if items[i].Error != nil {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}

	if format == "csv" {
		h.writeCSV(c, items)
		return
	}
	RespondOK(c, resp)
}

func (h *DutyHandler) writeCSV(c *gin.Context, items []BatchItemResponse) {
	rows := make([]csvexport.Row, len(items))
	for i := range items {
		rows[i] = csvexport.Row{Index: items[i].Index, Result: items[i].Result}
		if items[i].Error != nil {
			rows[i].ErrorCode = items[i].Error.Code
			rows[i].ErrorMessage = items[i].Error.Message
		}
	}

	var buf bytes.Buffer
	buf.Write(csvexport.BOM)
	w := csvexport.NewWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		HandleError(c, err)
		return
	}
	if err := w.WriteRows(rows); err != nil {
		HandleError(c, err)
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		HandleError(c, err)
		return
	}

	filename := csvexport.BuildFilename("duty_calculations", h.now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func itemError(err error) *APIError {
	_, code, msg := MapDomainError(err)
	return &APIError{Code: code, Message: msg}
}
