// Package calc exposes the dilution calculator over HTTP: form parsing,
// scenario projection, single-round aggregation, warrant quantity linking
// and a live WebSocket recalculation session.
//
// All monetary values use shopspring/decimal; float64 appears only in the
// presentation report.
package calc

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dilutionlab/dilution-engine/internal/form"
	"github.com/dilutionlab/dilution-engine/internal/metrics"
	"github.com/dilutionlab/dilution-engine/internal/model"
	"github.com/dilutionlab/dilution-engine/internal/report"
	"github.com/dilutionlab/dilution-engine/internal/round"
	"github.com/dilutionlab/dilution-engine/internal/scenario"
)

// Transport error codes, alongside the model's input error codes.
const (
	CodeInvalidRequest = "invalid_request"
	CodeUnknownField   = "unknown_field"
)

// Surfaces label calculation metrics by entry point.
const (
	SurfaceHTTP = "http"
	SurfaceLive = "live"
)

// Service handles calculator requests. It holds no per-request state and
// is safe for concurrent use.
type Service struct {
	spread decimal.Decimal
}

// NewService creates a calculator service projecting with the given
// default spread.
func NewService(spread decimal.Decimal) *Service {
	return &Service{spread: spread}
}

// --- Request/Response types ---

// ParseRequest is the JSON body for POST /parse.
type ParseRequest struct {
	Field string `json:"field"`
	Raw   string `json:"raw"`
}

// ParseResponse carries the parsed value and its canonical text.
type ParseResponse struct {
	Field     string              `json:"field"`
	Value     decimal.NullDecimal `json:"value"`
	Formatted string              `json:"formatted"`
}

// ScenariosRequest is a raw form snapshot plus an optional spread.
type ScenariosRequest struct {
	form.Values
	Spread decimal.NullDecimal `json:"spread"`
}

// ScenariosResponse is the JSON body returned from POST /scenarios.
type ScenariosResponse struct {
	CalculationID            string                  `json:"calculation_id"`
	Spread                   decimal.Decimal         `json:"spread"`
	Scenarios                [3]model.ScenarioResult `json:"scenarios"`
	WarrantLikelyUnexercised bool                    `json:"warrant_likely_unexercised"`
	Warning                  string                  `json:"warning,omitempty"`
	Report                   report.Report           `json:"report"`
}

// LinkRequest is the JSON body for POST /warrants/link.
type LinkRequest struct {
	Changed string `json:"changed"`
	form.LinkValues
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Fields []string `json:"fields,omitempty"`
}

// --- Calculation ---

// Project captures a raw form and projects it across the three scenarios.
// A null spread means the service default.
func (s *Service) Project(v form.Values, spread decimal.NullDecimal, surface string) (ScenariosResponse, error) {
	start := time.Now()
	if !spread.Valid {
		spread = decimal.NewNullDecimal(s.spread)
	}

	set, err := s.project(v, spread.Decimal)
	if err != nil {
		outcome := metrics.OutcomeError
		if model.IsInputError(err) {
			outcome = metrics.OutcomeInvalid
			metrics.InputErrors.WithLabelValues(model.ErrorCode(err)).Inc()
		}
		metrics.ObserveCalculation(surface, outcome, start)
		return ScenariosResponse{}, err
	}
	metrics.ObserveCalculation(surface, metrics.OutcomeOK, start)

	resp := ScenariosResponse{
		CalculationID:            uuid.New().String(),
		Spread:                   set.Spread,
		Scenarios:                set.Results,
		WarrantLikelyUnexercised: set.WarrantLikelyUnexercised,
		Report:                   report.Build(set),
	}
	if set.WarrantLikelyUnexercised {
		resp.Warning = scenario.WarningMessage
		metrics.WarrantAdvisories.Inc()
	}

	base := set.Base()
	slog.Info("scenarios projected",
		"calculation_id", resp.CalculationID,
		"surface", surface,
		"pre_money", base.PreMoneyValuation.String(),
		"founder_ownership_after", base.FounderOwnershipAfter.StringFixed(4),
		"warrant_advisory", set.WarrantLikelyUnexercised,
	)
	return resp, nil
}

func (s *Service) project(v form.Values, spread decimal.Decimal) (model.ScenarioSet, error) {
	in, err := form.Capture(v)
	if err != nil {
		return model.ScenarioSet{}, err
	}
	return scenario.Project(in, spread)
}

// --- HTTP Handlers ---

// Defaults handles GET /api/v1/defaults
func (s *Service) Defaults(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, form.Defaults())
}

// Fields handles GET /api/v1/fields
func (s *Service) Fields(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, form.Fields())
}

// Parse handles POST /api/v1/parse
func (s *Service) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	v, err := form.ParseField(req.Field, req.Raw)
	if err != nil {
		if errors.Is(err, form.ErrUnknownField) {
			writeError(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeUnknownField, Fields: []string{req.Field}})
			return
		}
		metrics.InputErrors.WithLabelValues(model.ErrorCode(err)).Inc()
		writeInputError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ParseResponse{
		Field:     req.Field,
		Value:     v,
		Formatted: form.FormatField(req.Field, v),
	})
}

// Scenarios handles POST /api/v1/scenarios
func (s *Service) Scenarios(w http.ResponseWriter, r *http.Request) {
	var req ScenariosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	resp, err := s.Project(req.Values, req.Spread, SurfaceHTTP)
	if err != nil {
		slog.Warn("projection rejected", "code", model.ErrorCode(err), "fields", model.ErrorFields(err), "err", err)
		writeInputError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Round handles POST /api/v1/round with already-typed inputs.
func (s *Service) Round(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var in model.RoundInputs
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	res, err := round.Aggregate(in)
	if err != nil {
		metrics.ObserveCalculation(SurfaceHTTP, metrics.OutcomeInvalid, start)
		metrics.InputErrors.WithLabelValues(model.ErrorCode(err)).Inc()
		slog.Warn("round rejected", "code", model.ErrorCode(err), "err", err)
		writeInputError(w, err)
		return
	}
	metrics.ObserveCalculation(SurfaceHTTP, metrics.OutcomeOK, start)
	writeJSON(w, http.StatusOK, res)
}

// LinkWarrants handles POST /api/v1/warrants/link
func (s *Service) LinkWarrants(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	out, err := form.Link(req.Changed, req.LinkValues)
	if err != nil {
		writeInputError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// errorBody builds the JSON error for an engine error.
func errorBody(err error) ErrorResponse {
	return ErrorResponse{
		Error:  err.Error(),
		Code:   model.ErrorCode(err),
		Fields: model.ErrorFields(err),
	}
}

// writeInputError writes input errors as 422 and anything else as 500.
func writeInputError(w http.ResponseWriter, err error) {
	if !model.IsInputError(err) {
		slog.Error("calculation failed", "err", err)
		writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: model.CodeInternal})
		return
	}
	writeError(w, http.StatusUnprocessableEntity, errorBody(err))
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: CodeInvalidRequest})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, body ErrorResponse) {
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
