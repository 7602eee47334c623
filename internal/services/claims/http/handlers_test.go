package http

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	perr "masterbox/internal/platform/errors"
	phttp "masterbox/internal/platform/net/http"
	"masterbox/internal/services/claims/repo"
	svc "masterbox/internal/services/claims/service"
)

func perrUnavailable() error {
	return perr.New(perr.ErrorCodeUnavailable, "store timeout")
}

func newTestMux(t *testing.T, ledger *repo.Memory) *chi.Mux {
	t.Helper()
	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)
	r.Route("/claims", func(sub phttp.Router) {
		Register(sub, svc.New(ledger, nil, nil, svc.Config{Campaign: "masterbox"}))
	})
	return mux
}

func do(t *testing.T, mux *chi.Mux, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return m
}

const validSubmit = `{"email":"doc@clinic.example","specialties":["General Dentist"],"orderId":"0042"}`

func TestSubmitThenDuplicate(t *testing.T) {
	mux := newTestMux(t, repo.NewMemory())

	rec := do(t, mux, "/claims/submit", validSubmit)
	if rec.Code != 200 {
		t.Fatalf("first submit status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["success"] != true {
		t.Fatalf("first submit body = %v", body)
	}
	if !strings.HasPrefix(body["submissionId"].(string), "SUB_") {
		t.Fatalf("submissionId = %v", body["submissionId"])
	}
	if body["orderId"] != "42" {
		t.Fatalf("orderId = %v, want normalized 42", body["orderId"])
	}

	// same order without the leading zeros must hit the guard
	rec = do(t, mux, "/claims/submit", `{"email":"other@clinic.example","specialties":["Orthodontist"],"orderId":"42"}`)
	if rec.Code != 409 {
		t.Fatalf("duplicate status = %d body=%s", rec.Code, rec.Body.String())
	}
	body = decode(t, rec)
	if body["success"] != false || body["duplicate"] != true {
		t.Fatalf("duplicate body = %v", body)
	}
	data, ok := body["submissionData"].(map[string]any)
	if !ok {
		t.Fatalf("duplicate submissionData missing: %v", body)
	}
	if data["order_id"] != "42" || data["specialties"] != "General Dentist" {
		t.Fatalf("submissionData = %v", data)
	}
}

func TestSubmitValidation(t *testing.T) {
	mux := newTestMux(t, repo.NewMemory())

	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"specialties":["General Dentist"],"orderId":"1"}`},
		{"bad email", `{"email":"nope","specialties":["General Dentist"],"orderId":"1"}`},
		{"empty specialties", `{"email":"doc@clinic.example","specialties":[],"orderId":"1"}`},
		{"missing order id", `{"email":"doc@clinic.example","specialties":["General Dentist"]}`},
		{"malformed json", `{"email":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, mux, "/claims/submit", tc.body)
			if rec.Code != 400 {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
			body := decode(t, rec)
			msg, _ := body["error"].(string)
			if body["success"] != false || msg == "" {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestSubmitStoreTimeout(t *testing.T) {
	mem := repo.NewMemory()
	mem.FailAppend = perrUnavailable()
	mux := newTestMux(t, mem)

	rec := do(t, mux, "/claims/submit", validSubmit)
	if rec.Code != 504 {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["timeout"] != true {
		t.Fatalf("body = %v", body)
	}
	if mem.Len() != 0 {
		t.Fatalf("failed submit appended a row")
	}
}

func TestCheckRoundTrip(t *testing.T) {
	mux := newTestMux(t, repo.NewMemory())

	rec := do(t, mux, "/claims/check", `{"orderId":"42"}`)
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode(t, rec); body["hasSubmitted"] != false {
		t.Fatalf("fresh check body = %v", body)
	}

	do(t, mux, "/claims/submit", validSubmit)

	rec = do(t, mux, "/claims/check", `{"orderIncrementId":"0042"}`)
	body := decode(t, rec)
	if body["hasSubmitted"] != true {
		t.Fatalf("post-submit check body = %v", body)
	}
	data := body["submissionData"].(map[string]any)
	if data["specialties"] != "General Dentist" {
		t.Fatalf("submissionData = %v", data)
	}
}

func TestCheckRequiresOrderReference(t *testing.T) {
	mux := newTestMux(t, repo.NewMemory())
	rec := do(t, mux, "/claims/check", `{}`)
	if rec.Code != 400 {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCheckFailsOpenOnStoreError(t *testing.T) {
	mem := repo.NewMemory()
	mem.FailFind = perrUnavailable()
	mux := newTestMux(t, mem)

	rec := do(t, mux, "/claims/check", `{"orderId":"42"}`)
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["hasSubmitted"] != false {
		t.Fatalf("degraded check blocked submission: %v", body)
	}
	if msg, _ := body["message"].(string); msg == "" {
		t.Fatalf("degraded check carries no message: %v", body)
	}
}
