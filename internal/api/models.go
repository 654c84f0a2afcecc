package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"StockPulse/internal/analysis"
	"StockPulse/internal/model"
)

var validate = validator.New()

// BacktestRequest is the body of POST /backtest. Omitted fields fall back to
// the server defaults, then to the tag defaults. Pointers keep an explicit 0
// apart from an omitted field so that 0 is rejected rather than defaulted.
type BacktestRequest struct {
	Period           *string  `json:"period" default:"2y"`
	InitialCapital   *float64 `json:"initial_capital" default:"10000" validate:"required,gt=0"`
	PositionFraction *float64 `json:"position_fraction" default:"1" validate:"required,gt=0,lte=1"`
}

// IndicatorsResponse is the body of GET /indicators.
type IndicatorsResponse struct {
	Symbol  string              `json:"symbol"`
	Period  string              `json:"period"`
	Chart   string              `json:"chart"`
	Company *model.CompanyInfo  `json:"company"`
	Range   analysis.PriceRange `json:"range"`
	Rows    []ChartRow          `json:"rows"`
}

// ChartRow is one bar with the indicator columns its chart draws.
type ChartRow struct {
	model.PriceBar
	Indicators map[string]model.NullFloat `json:"indicators"`
}

// SignalResponse is the body of GET /signal.
type SignalResponse struct {
	Symbol string              `json:"symbol"`
	Period string              `json:"period"`
	Close  float64             `json:"close"`
	Color  string              `json:"color"`
	Signal model.TradingSignal `json:"signal"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  []ValidationError `json:"fields,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeFailure maps the error taxonomy onto status codes.
func writeFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, model.ErrInsufficientHistory):
		writeError(c, http.StatusUnprocessableEntity, "INSUFFICIENT_HISTORY", err.Error())
	default:
		writeError(c, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error())
	}
}

func writeValidation(c *gin.Context, err error) {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	fields := make([]ValidationError, 0, len(ves))
	for _, fe := range ves {
		fields = append(fields, ValidationError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   jsonName(fe),
			Message: validationMessage(fe),
		})
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
		Code:    "INVALID_REQUEST",
		Message: "request validation failed",
		Fields:  fields,
	}})
}

func jsonName(fe validator.FieldError) string {
	f, ok := reflect.TypeOf(BacktestRequest{}).FieldByName(fe.StructField())
	if !ok {
		return fe.Field()
	}
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	return name
}

func validationMessage(fe validator.FieldError) string {
	field := jsonName(fe)
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
