package calc_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dilutionlab/dilution-engine/internal/calc"
	"github.com/dilutionlab/dilution-engine/internal/form"
	"github.com/dilutionlab/dilution-engine/internal/model"
	"github.com/dilutionlab/dilution-engine/internal/scenario"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// newTestEnv creates a test Service behind a chi router.
func newTestEnv(t *testing.T) (*calc.Service, chi.Router) {
	t.Helper()
	svc := calc.NewService(scenario.DefaultSpread)

	r := chi.NewRouter()
	r.Get("/api/v1/defaults", svc.Defaults)
	r.Get("/api/v1/fields", svc.Fields)
	r.Post("/api/v1/parse", svc.Parse)
	r.Post("/api/v1/scenarios", svc.Scenarios)
	r.Post("/api/v1/round", svc.Round)
	r.Post("/api/v1/warrants/link", svc.LinkWarrants)

	return svc, r
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) calc.ErrorResponse {
	t.Helper()
	var resp calc.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

// --- Scenario projection tests ---

func TestScenarios_Defaults(t *testing.T) {
	_, router := newTestEnv(t)

	w := doJSON(t, router, "POST", "/api/v1/scenarios", calc.ScenariosRequest{Values: form.Defaults()})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp calc.ScenariosResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CalculationID == "" {
		t.Error("expected a calculation id")
	}
	if !resp.Spread.Equal(d(0.25)) {
		t.Errorf("expected default spread 0.25, got %s", resp.Spread)
	}

	wantPreMoney := []float64{15_000_000, 20_000_000, 25_000_000}
	for i, res := range resp.Scenarios {
		if res.Name != model.Scenarios[i] {
			t.Errorf("scenario %d: expected %s, got %s", i, model.Scenarios[i], res.Name)
		}
		if !res.PreMoneyValuation.Equal(d(wantPreMoney[i])) {
			t.Errorf("%s: expected pre-money %v, got %s", res.Name, wantPreMoney[i], res.PreMoneyValuation)
		}
	}

	base := resp.Scenarios[1]
	if !base.PricePerShare.Equal(d(200)) {
		t.Errorf("expected base price per share 200, got %s", base.PricePerShare)
	}
	if !base.PostMoneyValuation.Equal(d(25_020_000)) {
		t.Errorf("expected base post-money 25,020,000, got %s", base.PostMoneyValuation)
	}
	if resp.WarrantLikelyUnexercised || resp.Warning != "" {
		t.Error("default form should not raise the warrant advisory")
	}
	if len(resp.Report.Grid) != 13 {
		t.Errorf("expected 13 grid rows, got %d", len(resp.Report.Grid))
	}
}

func TestScenarios_CustomSpread(t *testing.T) {
	_, router := newTestEnv(t)

	req := calc.ScenariosRequest{Values: form.Defaults(), Spread: decimal.NewNullDecimal(d(0.1))}
	w := doJSON(t, router, "POST", "/api/v1/scenarios", req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp calc.ScenariosResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.Scenarios[0].PreMoneyValuation.Equal(d(18_000_000)) {
		t.Errorf("expected pessimistic pre-money 18m, got %s", resp.Scenarios[0].PreMoneyValuation)
	}
}

func TestScenarios_Advisory(t *testing.T) {
	_, router := newTestEnv(t)

	v := form.Defaults()
	v.ExercisePrice = "250"
	w := doJSON(t, router, "POST", "/api/v1/scenarios", calc.ScenariosRequest{Values: v})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp calc.ScenariosResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.WarrantLikelyUnexercised || resp.Warning != scenario.WarningMessage {
		t.Errorf("expected advisory, got %v %q", resp.WarrantLikelyUnexercised, resp.Warning)
	}
	if resp.Report.Warning != scenario.WarningMessage {
		t.Error("report should carry the advisory too")
	}
}

func TestScenarios_InputErrors(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*form.Values)
		wantCode   string
		wantFields []string
	}{
		{"missing pre-money", func(v *form.Values) { v.PreMoneyValuation = "" },
			model.CodeMissingRequiredField, []string{model.FieldPreMoneyValuation}},
		{"bad shares", func(v *form.Values) { v.NumberOfShares = "many" },
			model.CodeInvalidFormat, []string{model.FieldNumberOfShares}},
		{"no warrant quantity", func(v *form.Values) { v.NumberOfWarrants, v.AmountOfWarrants = "", "" },
			model.CodeMissingWarrantQuantity, []string{model.FieldNumberOfWarrants, model.FieldAmountOfWarrants}},
		{"ownership above 100%", func(v *form.Values) { v.CurrentOwnership = "120%" },
			model.CodeRangeViolation, []string{model.FieldCurrentOwnership}},
		{"fraction of a share", func(v *form.Values) { v.NumberOfShares = "0.0004" },
			model.CodeRangeViolation, []string{model.FieldNumberOfShares}},
	}

	_, router := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := form.Defaults()
			tt.mutate(&v)
			w := doJSON(t, router, "POST", "/api/v1/scenarios", calc.ScenariosRequest{Values: v})
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
			}
			resp := decodeError(t, w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
			if len(resp.Fields) != len(tt.wantFields) {
				t.Fatalf("expected fields %v, got %v", tt.wantFields, resp.Fields)
			}
			for i, f := range tt.wantFields {
				if resp.Fields[i] != f {
					t.Errorf("field %d: expected %s, got %s", i, f, resp.Fields[i])
				}
			}
		})
	}
}

func TestScenarios_SpreadOutOfRange(t *testing.T) {
	_, router := newTestEnv(t)
	req := calc.ScenariosRequest{Values: form.Defaults(), Spread: decimal.NewNullDecimal(d(1.5))}
	w := doJSON(t, router, "POST", "/api/v1/scenarios", req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != model.CodeRangeViolation {
		t.Errorf("expected range violation, got %s", resp.Code)
	}
}

func TestScenarios_MalformedBody(t *testing.T) {
	_, router := newTestEnv(t)
	w := doJSON(t, router, "POST", "/api/v1/scenarios", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != calc.CodeInvalidRequest {
		t.Errorf("expected %s, got %s", calc.CodeInvalidRequest, resp.Code)
	}
}

// --- Round tests ---

func TestRound_Typed(t *testing.T) {
	_, router := newTestEnv(t)

	body := `{
		"pre_money_valuation": "20000000",
		"number_of_shares": 100000,
		"founder_ownership_before": "0.4",
		"amount_to_raise": "5000000",
		"warrant_type": "floor_cap",
		"discount_price": "0.2",
		"floor_price": "1.5",
		"cap_price": "3",
		"number_of_warrants": "10000"
	}`
	w := doJSON(t, router, "POST", "/api/v1/round", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res model.RoundResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.ExercisePrice.Equal(d(3)) {
		t.Errorf("expected exercise price clamped to 3, got %s", res.ExercisePrice)
	}
	if !res.PostMoneyValuation.Equal(d(25_030_000)) {
		t.Errorf("expected post-money 25,030,000, got %s", res.PostMoneyValuation)
	}
}

func TestRound_PriceRoundsToZero(t *testing.T) {
	_, router := newTestEnv(t)
	body := `{"pre_money_valuation":"0.00000000000000000001","number_of_shares":"100000","founder_ownership_before":"0.4",
		"amount_to_raise":"5000000","warrant_type":"fixed","exercise_price":"2","number_of_warrants":"10000"}`
	w := doJSON(t, router, "POST", "/api/v1/round", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeError(t, w)
	if resp.Code != model.CodeRangeViolation || len(resp.Fields) != 1 || resp.Fields[0] != model.FieldPreMoneyValuation {
		t.Errorf("unexpected error body: %+v", resp)
	}
}

func TestRound_MissingExercisePrice(t *testing.T) {
	_, router := newTestEnv(t)
	body := `{"pre_money_valuation":"20000000","number_of_shares":"100000","founder_ownership_before":"0.4",
		"amount_to_raise":"5000000","warrant_type":"fixed","number_of_warrants":"10000"}`
	w := doJSON(t, router, "POST", "/api/v1/round", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Code != model.CodeMissingRequiredField || len(resp.Fields) != 1 || resp.Fields[0] != model.FieldExercisePrice {
		t.Errorf("unexpected error body: %+v", resp)
	}
}

// --- Parse / fields / link tests ---

func TestParse(t *testing.T) {
	_, router := newTestEnv(t)

	w := doJSON(t, router, "POST", "/api/v1/parse", calc.ParseRequest{Field: model.FieldPreMoneyValuation, Raw: "20"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp calc.ParseResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.Value.Valid || !resp.Value.Decimal.Equal(d(20_000_000)) {
		t.Errorf("expected 20,000,000, got %v", resp.Value)
	}
	if resp.Formatted != "20m" {
		t.Errorf("expected formatted 20m, got %q", resp.Formatted)
	}
}

func TestParse_Errors(t *testing.T) {
	_, router := newTestEnv(t)

	w := doJSON(t, router, "POST", "/api/v1/parse", calc.ParseRequest{Field: model.FieldNumberOfShares, Raw: "1.2.3"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != model.CodeInvalidFormat {
		t.Errorf("expected invalid_format, got %s", resp.Code)
	}

	w = doJSON(t, router, "POST", "/api/v1/parse", calc.ParseRequest{Field: "runway", Raw: "12"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != calc.CodeUnknownField {
		t.Errorf("expected unknown_field, got %s", resp.Code)
	}
}

func TestParse_NotProvided(t *testing.T) {
	_, router := newTestEnv(t)
	w := doJSON(t, router, "POST", "/api/v1/parse", calc.ParseRequest{Field: model.FieldAmountToRaise, Raw: "m"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp calc.ParseResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Value.Valid || resp.Formatted != "" {
		t.Errorf("expected not provided, got %+v", resp)
	}
}

func TestDefaultsAndFields(t *testing.T) {
	_, router := newTestEnv(t)

	w := doJSON(t, router, "GET", "/api/v1/defaults", nil)
	var v form.Values
	json.NewDecoder(w.Body).Decode(&v)
	if v != form.Defaults() {
		t.Errorf("unexpected defaults: %+v", v)
	}

	w = doJSON(t, router, "GET", "/api/v1/fields", nil)
	var fields []form.Field
	json.NewDecoder(w.Body).Decode(&fields)
	if len(fields) != len(form.Fields()) {
		t.Errorf("expected %d fields, got %d", len(form.Fields()), len(fields))
	}
}

func TestLinkWarrants(t *testing.T) {
	_, router := newTestEnv(t)

	req := calc.LinkRequest{
		Changed: model.FieldAmountOfWarrants,
		LinkValues: form.LinkValues{
			NumberOfWarrants: "10k",
			AmountOfWarrants: "30k",
			ExercisePrice:    "2",
		},
	}
	w := doJSON(t, router, "POST", "/api/v1/warrants/link", req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var out form.LinkValues
	json.NewDecoder(w.Body).Decode(&out)
	if out.NumberOfWarrants != "15k" || out.AmountOfWarrants != "30k" {
		t.Errorf("unexpected link result: %+v", out)
	}
}
