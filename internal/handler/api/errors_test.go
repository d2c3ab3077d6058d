package api

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"CPDetect/internal/inference"
	"CPDetect/internal/preprocess"
	xhttp "CPDetect/pkg/http"
)

func appErrOf(t *testing.T, err error) *xhttp.AppError {
	t.Helper()
	var appErr *xhttp.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T", err)
	}
	return appErr
}

func TestMapRunErrorValidation(t *testing.T) {
	src := &preprocess.InvalidPriceError{Index: 12, Price: -3}
	appErr := appErrOf(t, mapRunError(src))
	if appErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", appErr.Status)
	}
	if appErr.Params["index"] != 12 {
		t.Fatalf("expected offending index in params, got %v", appErr.Params)
	}
}

func TestMapRunErrorTimeout(t *testing.T) {
	src := &inference.SamplerTimeoutError{Chain: 1, Sweep: 200, Elapsed: time.Minute}
	if appErr := appErrOf(t, mapRunError(src)); appErr.Status != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", appErr.Status)
	}
}

func TestMapRunErrorDivergence(t *testing.T) {
	src := &inference.SamplerDivergenceError{Chain: 2, Sweep: 400, Count: 26, Limit: 25}
	appErr := appErrOf(t, mapRunError(src))
	if appErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", appErr.Status)
	}
	if appErr.Params["chain"] != 2 || appErr.Params["sweep"] != 400 {
		t.Fatalf("expected chain/sweep params, got %v", appErr.Params)
	}
}

func TestMapRunErrorFallback(t *testing.T) {
	src := errors.New("boom")
	appErr := appErrOf(t, mapRunError(src))
	if appErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", appErr.Status)
	}
	if !errors.Is(appErr, src) {
		t.Fatalf("underlying error should be wrapped")
	}
}
