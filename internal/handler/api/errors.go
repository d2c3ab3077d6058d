package api

import (
	"errors"

	"CPDetect/internal/inference"
	"CPDetect/internal/preprocess"
	xhttp "CPDetect/pkg/http"
)

// mapRunError translates engine errors into HTTP application errors, keeping
// the structured context in the response body.
func mapRunError(err error) error {
	var priceErr *preprocess.InvalidPriceError
	var dupErr *preprocess.DuplicateTimestampError
	var covErr *preprocess.CoverageGapError
	var emptyErr *preprocess.EmptySeriesError
	var degErr *inference.DegenerateSeriesError
	var divErr *inference.SamplerDivergenceError
	var toErr *inference.SamplerTimeoutError

	switch {
	case errors.As(err, &priceErr):
		return xhttp.UnprocessableError(priceErr.Error()).
			WithParam("index", priceErr.Index).
			WithParam("price", priceErr.Price)
	case errors.As(err, &dupErr):
		return xhttp.UnprocessableError(dupErr.Error()).WithParam("index", dupErr.Index)
	case errors.As(err, &covErr), errors.As(err, &emptyErr), errors.As(err, &degErr):
		return xhttp.UnprocessableError(err.Error())
	case errors.As(err, &toErr):
		return xhttp.GatewayTimeoutError(toErr.Error())
	case errors.As(err, &divErr):
		return xhttp.InternalError(divErr.Error()).
			WithParam("chain", divErr.Chain).
			WithParam("sweep", divErr.Sweep)
	default:
		return xhttp.InternalError("detection failed").WithError(err)
	}
}
