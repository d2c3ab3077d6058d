package preprocess

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// StationarityResult is the outcome of the augmented Dickey-Fuller test.
// Purely informational: a trending series still gets a result, not an error.
type StationarityResult struct {
	Statistic  float64 `json:"statistic"`
	PValue     float64 `json:"p_value"`
	Stationary bool    `json:"stationary"`
	Lags       int     `json:"lags"`
	Alpha      float64 `json:"alpha"`
}

// DefaultSignificance is the level at which Stationary is declared.
const DefaultSignificance = 0.05

// MacKinnon (1994) approximate asymptotic p-values for the constant,
// no-trend regression. p = Phi(polynomial(stat)).
var (
	tauStar   = -1.61
	tauMin    = -18.83
	tauMax    = 2.74
	tauSmallP = []float64{2.1659, 1.4412, 0.038269}
	tauLargeP = []float64{1.7339, 0.93202, -0.12745, -0.010368}
)

// ADFTest runs an augmented Dickey-Fuller unit-root test on the return
// series with an intercept and no trend. Lag order follows the Schwert rule,
// shrunk if the sample leaves too few degrees of freedom.
func ADFTest(values []float64, alpha float64) StationarityResult {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultSignificance
	}
	res := StationarityResult{Statistic: 0, PValue: 1, Alpha: alpha}

	n := len(values)
	if n < 10 {
		return res
	}

	lags := int(math.Floor(12 * math.Pow(float64(n)/100, 0.25)))
	for lags > 0 && n-lags-1 < lags+12 {
		lags--
	}
	res.Lags = lags

	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = values[i] - values[i-1]
	}

	// Rows t = lags..len(diff)-1; response diff[t];
	// columns: intercept, level lag, lagged differences.
	nobs := len(diff) - lags
	k := 2 + lags
	if nobs <= k+2 {
		return res
	}

	x := mat.NewDense(nobs, k, nil)
	y := mat.NewVecDense(nobs, nil)
	for row := 0; row < nobs; row++ {
		t := row + lags
		y.SetVec(row, diff[t])
		x.Set(row, 0, 1)
		x.Set(row, 1, values[t])
		for j := 1; j <= lags; j++ {
			x.Set(row, 1+j, diff[t-j])
		}
	}

	var qr mat.QR
	qr.Factorize(x)
	beta := mat.NewDense(k, 1, nil)
	if err := qr.SolveTo(beta, false, y); err != nil {
		return res
	}

	var fitted mat.Dense
	fitted.Mul(x, beta)
	rss := 0.0
	for row := 0; row < nobs; row++ {
		r := y.AtVec(row) - fitted.At(row, 0)
		rss += r * r
	}
	sigma2 := rss / float64(nobs-k)

	var xtx, inv mat.Dense
	xtx.Mul(x.T(), x)
	if err := inv.Inverse(&xtx); err != nil {
		return res
	}
	se := math.Sqrt(sigma2 * inv.At(1, 1))
	if se == 0 || math.IsNaN(se) {
		return res
	}

	res.Statistic = beta.At(1, 0) / se
	res.PValue = mackinnonP(res.Statistic)
	res.Stationary = res.PValue < alpha
	return res
}

func mackinnonP(stat float64) float64 {
	switch {
	case stat > tauMax:
		return 1
	case stat < tauMin:
		return 0
	}
	coeffs := tauLargeP
	if stat <= tauStar {
		coeffs = tauSmallP
	}
	z, pow := 0.0, 1.0
	for _, c := range coeffs {
		z += c * pow
		pow *= stat
	}
	return distuv.UnitNormal.CDF(z)
}
