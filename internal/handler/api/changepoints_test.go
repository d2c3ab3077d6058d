package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"CPDetect/internal/domain/models"
	xhttp "CPDetect/pkg/http"
	"CPDetect/pkg/logger"
)

func testContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestDetectRequestEmptyBodyKeepsZeroOverrides(t *testing.T) {
	c, _ := testContext(http.MethodPost, "/api/detect", "{}")

	req := &models.DetectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		t.Fatalf("empty request must validate: %v", verr)
	}
	if req.NumChains != 0 || req.NumDraws != 0 || req.NumTune != 0 || req.Seed != 0 {
		t.Fatalf("absent fields must stay zero so configured values win: %+v", req)
	}
}

func TestDetectRequestExplicitValues(t *testing.T) {
	c, _ := testContext(http.MethodPost, "/api/detect", `{"chains":8,"draws":500,"tune":250,"seed":7}`)

	req := &models.DetectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		t.Fatalf("valid request rejected: %v", verr)
	}
	if req.NumChains != 8 || req.NumDraws != 500 || req.NumTune != 250 || req.Seed != 7 {
		t.Fatalf("explicit values not carried: %+v", req)
	}
}

func TestDetectRequestRejectsSingleChain(t *testing.T) {
	c, _ := testContext(http.MethodPost, "/api/detect", `{"chains":1}`)

	req := &models.DetectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr == nil {
		t.Fatalf("chains=1 must fail validation")
	}
}

func alignmentHandler() *Handler {
	day := time.Date(2020, 3, 10, 0, 0, 0, 0, time.UTC)
	h := NewHandler(logger.Nop(), nil, nil, nil, 0, "brent", nil, []models.Event{
		{Date: day.AddDate(0, 0, -4), Description: "opec cut"},
	})
	h.latest = &models.RunResult{
		Dataset: "brent",
		Records: []models.ChangePointRecord{{Date: day}},
	}
	return h
}

func TestAlignmentsWindowRejectsBadValues(t *testing.T) {
	h := alignmentHandler()
	for _, days := range []string{"-5", "0", "1.5", "abc"} {
		c, rec := testContext(http.MethodGet, "/api/alignments?window_days="+days, "")
		if err := h.Alignments(c); err != nil {
			t.Fatalf("window_days=%s: unexpected handler error: %v", days, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("window_days=%s: expected 400, got %d", days, rec.Code)
		}
	}
}

func TestAlignmentsWindowAccepted(t *testing.T) {
	h := alignmentHandler()
	c, rec := testContext(http.MethodGet, "/api/alignments?window_days=30", "")
	if err := h.Alignments(c); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data []models.AlignedEvent `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Event.Description != "opec cut" {
		t.Fatalf("unexpected alignments: %+v", resp.Data)
	}
}
