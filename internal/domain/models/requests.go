package models

// Requests for the detection HTTP endpoints. Defined in domain for consistency and reuse.

type PricesRequest struct {
	Start string `query:"start" json:"start"`
	End   string `query:"end" json:"end"`
}

// DetectRequest carries per-request sampler overrides. Absent fields stay
// zero, which means "use the configured value"; they are never defaulted here
// so operator config keeps authority over the API path.
type DetectRequest struct {
	NumChains int    `query:"chains" json:"chains" validate:"omitempty,gte=2,lte=16"`
	NumDraws  int    `query:"draws" json:"draws" validate:"omitempty,gte=100,lte=50000"`
	NumTune   int    `query:"tune" json:"tune" validate:"omitempty,lte=50000"`
	Seed      uint64 `query:"seed" json:"seed"`
}
