package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/curately/groundtruth-backend/internal/codec"
	"github.com/curately/groundtruth-backend/internal/dataset"
	"github.com/curately/groundtruth-backend/internal/domain"
	httpH "github.com/curately/groundtruth-backend/internal/http/handlers"
	httpMW "github.com/curately/groundtruth-backend/internal/http/middleware"
	"github.com/curately/groundtruth-backend/internal/platform/logger"
	"github.com/curately/groundtruth-backend/internal/services"
	"github.com/curately/groundtruth-backend/internal/store"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()

	st := store.NewMemoryStore[*domain.Entry]()
	rec := dataset.NewReconciler[*domain.Entry](log, st, "current-dataset.json", "Dataset")
	session := dataset.NewSession[domain.Entry](log, rec, nil)

	gate := services.NewGateService(log, "hunter2", "", "test-jwt-key", time.Hour)
	confirm := dataset.NewConfirmTracker(5 * time.Second)

	return NewRouter(RouterConfig{
		GateHandler:    httpH.NewGateHandler(gate),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, gate),
		EntryHandler:   httpH.NewRecordHandler(log, session, confirm, domain.KindEntry, codec.EncodeCSV),
		SampleHandler:  httpH.NewSampleHandler(),
		HealthHandler:  httpH.NewHealthHandler(),
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	fields := map[string]json.RawMessage{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &fields); err != nil {
			t.Fatalf("%s %s: bad response body %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, fields
}

func verifyToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w, fields := doJSON(t, r, http.MethodPost, "/api/verify", "", `{"secret":"hunter2"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("verify: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	var token string
	if err := json.Unmarshal(fields["token"], &token); err != nil || token == "" {
		t.Fatalf("verify: missing token in %s", w.Body.String())
	}
	return token
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	r := newTestRouter(t)
	w, _ := doJSON(t, r, http.MethodPost, "/api/verify", "", `{"secret":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want=401 got=%d", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)
	w, _ := doJSON(t, r, http.MethodGet, "/api/entries/records", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: want=401 got=%d", w.Code)
	}
	w, _ = doJSON(t, r, http.MethodGet, "/api/entries/records", "bogus", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: want=401 got=%d", w.Code)
	}
}

func TestHealthcheckIsPublic(t *testing.T) {
	r := newTestRouter(t)
	w, _ := doJSON(t, r, http.MethodGet, "/healthcheck", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("want=200 got=%d", w.Code)
	}
}

func TestEntryCurationFlow(t *testing.T) {
	r := newTestRouter(t)
	token := verifyToken(t, r)

	// Username first; approvals are attributed to it.
	w, _ := doJSON(t, r, http.MethodPut, "/api/entries/username", token, `{"username":"alice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("set username: want=200 got=%d body=%s", w.Code, w.Body.String())
	}

	payload := `[{"question":"q1","ground_truth_chunk_id":"c1","ground_truth_text":"t1"},
		{"question":"q2","ground_truth_chunk_id":"c2","ground_truth_text":"t2"}]`
	w, fields := doJSON(t, r, http.MethodPost, "/api/entries/dataset/import?format=json", token, payload)
	if w.Code != http.StatusOK {
		t.Fatalf("import: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	if string(fields["imported"]) != "2" {
		t.Fatalf("imported: want=2 got=%s", fields["imported"])
	}

	// A second import over loaded records is refused.
	w, _ = doJSON(t, r, http.MethodPost, "/api/entries/dataset/import?format=json", token, payload)
	if w.Code != http.StatusConflict {
		t.Fatalf("guarded import: want=409 got=%d", w.Code)
	}

	w, fields = doJSON(t, r, http.MethodGet, "/api/entries/records?filter=pending", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: want=200 got=%d", w.Code)
	}
	var records []domain.Entry
	if err := json.Unmarshal(fields["records"], &records); err != nil || len(records) != 2 {
		t.Fatalf("records: want=2 got=%s", fields["records"])
	}
	id := records[0].ID

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/entries/records/%s/approve", id), token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("approve: want=200 got=%d body=%s", w.Code, w.Body.String())
	}

	w, fields = doJSON(t, r, http.MethodGet, "/api/entries/records?filter=approved", token, "")
	if err := json.Unmarshal(fields["records"], &records); err != nil || len(records) != 1 {
		t.Fatalf("approved records: want=1 got=%s", fields["records"])
	}
	if records[0].ApprovedBy != "alice" {
		t.Fatalf("approved_by: want=alice got=%q", records[0].ApprovedBy)
	}

	// Deletes are two-step.
	w, fields = doJSON(t, r, http.MethodDelete, "/api/entries/records/"+id, token, "")
	if w.Code != http.StatusOK || string(fields["confirm_required"]) != "true" {
		t.Fatalf("first delete: want confirm_required, got=%d %s", w.Code, w.Body.String())
	}
	w, fields = doJSON(t, r, http.MethodDelete, "/api/entries/records/"+id, token, "")
	if w.Code != http.StatusOK || string(fields["deleted"]) != "true" {
		t.Fatalf("second delete: want deleted, got=%d %s", w.Code, w.Body.String())
	}

	w, fields = doJSON(t, r, http.MethodGet, "/api/entries/dataset", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("dataset: want=200 got=%d", w.Code)
	}
	var stats struct {
		Total    int `json:"total"`
		Approved int `json:"approved"`
	}
	if err := json.Unmarshal(fields["stats"], &stats); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 || stats.Approved != 0 {
		t.Fatalf("stats: want total=1 approved=0 got=%+v", stats)
	}
}

func TestApproveWithoutUsernameIsRejected(t *testing.T) {
	r := newTestRouter(t)
	token := verifyToken(t, r)

	payload := `[{"question":"q1","ground_truth_chunk_id":"c1","ground_truth_text":"t1"}]`
	w, _ := doJSON(t, r, http.MethodPost, "/api/entries/dataset/import?format=json", token, payload)
	if w.Code != http.StatusOK {
		t.Fatalf("import: want=200 got=%d", w.Code)
	}
	w, fields := doJSON(t, r, http.MethodGet, "/api/entries/records", token, "")
	var records []domain.Entry
	if err := json.Unmarshal(fields["records"], &records); err != nil || len(records) != 1 {
		t.Fatalf("records: %s", fields["records"])
	}

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/entries/records/%s/approve", records[0].ID), token, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("approve without username: want=400 got=%d", w.Code)
	}
}

func TestExportCSV(t *testing.T) {
	r := newTestRouter(t)
	token := verifyToken(t, r)

	doJSON(t, r, http.MethodPut, "/api/entries/username", token, `{"username":"alice"}`)
	payload := `[{"question":"q, with comma","ground_truth_chunk_id":"c1","ground_truth_text":"t1"}]`
	doJSON(t, r, http.MethodPost, "/api/entries/dataset/import?format=json", token, payload)

	req := httptest.NewRequest(http.MethodGet, "/api/entries/dataset/export?format=csv", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("export: want=200 got=%d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "attachment") {
		t.Fatalf("missing attachment disposition, got=%q", w.Header().Get("Content-Disposition"))
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "question,") {
		t.Fatalf("missing header row: %q", body)
	}
	if !strings.Contains(body, `"q, with comma"`) {
		t.Fatalf("comma field must be quoted: %q", body)
	}
}

func TestSampleDatasetIsPublic(t *testing.T) {
	r := newTestRouter(t)

	w, fields := doJSON(t, r, http.MethodGet, "/api/sample-dataset", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("sample: want=200 got=%d", w.Code)
	}
	var records []domain.Entry
	if err := json.Unmarshal(fields["records"], &records); err != nil || len(records) == 0 {
		t.Fatalf("sample records: %s", fields["records"])
	}
}

func TestJSONLImportBadLine(t *testing.T) {
	r := newTestRouter(t)
	token := verifyToken(t, r)

	payload := "{\"question\":\"q1\",\"ground_truth_chunk_id\":\"c1\",\"ground_truth_text\":\"t1\"}\nnot json\n"
	w, fields := doJSON(t, r, http.MethodPost, "/api/entries/dataset/import?format=jsonl", token, payload)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad jsonl: want=400 got=%d", w.Code)
	}
	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	raw, _ := json.Marshal(fields)
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("error envelope: %v", err)
	}
	if env.Error.Message != "invalid JSON on line 2" {
		t.Fatalf("message: want=%q got=%q", "invalid JSON on line 2", env.Error.Message)
	}
	if env.Error.Code != "decode_failed" {
		t.Fatalf("code: want=decode_failed got=%q", env.Error.Code)
	}
}
