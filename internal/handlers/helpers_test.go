package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "dompet/internal/errors"
	"dompet/internal/validator"
)

// --- test helpers ---

const (
	testAccountID  = "0190a8f0-1111-7000-8000-000000000001"
	testAccount2ID = "0190a8f0-1111-7000-8000-000000000002"
	testCategoryID = "0190a8f0-2222-7000-8000-000000000001"
	testTrxID      = "0190a8f0-3333-7000-8000-000000000001"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- tests ---

func TestRespondWithError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app error", apperrors.ErrAccountNotFound, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
		{"wrapped app error", apperrors.Wrap(apperrors.ErrReferenceNotFound, errors.New("fk")), http.StatusConflict, "REFERENCE_NOT_FOUND"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) { respondWithError(c, tc.err) })

			rec := doRequest(r, "GET", "/", "")

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), tc.code)
		})
	}

	t.Run("internal cause is not leaked", func(t *testing.T) {
		r := gin.New()
		r.GET("/", func(c *gin.Context) {
			respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, errors.New("pq: password authentication failed")))
		})

		rec := doRequest(r, "GET", "/", "")

		if strings.Contains(rec.Body.String(), "password") {
			t.Errorf("internal error leaked into response: %s", rec.Body.String())
		}
	})
}

func TestParseFlexibleTime(t *testing.T) {
	got, err := parseFlexibleTime("2024-03-05T10:00:00+07:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(time.Date(2024, 3, 5, 3, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected time %v", got)
	}

	got, err = parseFlexibleTime("2024-03-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected midnight UTC, got %v", got)
	}

	if _, err := parseFlexibleTime("05/03/2024"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestParseMonth(t *testing.T) {
	year, month, err := parseMonth("2024-02")
	if err != nil || year != 2024 || month != time.February {
		t.Errorf("expected 2024-02, got %d-%d err=%v", year, month, err)
	}

	for _, bad := range []string{"2024-13", "2024", "Feb 2024"} {
		if _, _, err := parseMonth(bad); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("%q: expected INVALID_INPUT, got %v", bad, err)
		}
	}
}
