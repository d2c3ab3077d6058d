package inference

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"CPDetect/internal/domain/models"
)

// Options configures one sampling run.
type Options struct {
	NumChains      int
	NumDraws       int
	NumTune        int
	Seed           uint64
	MaxDivergences int
}

const defaultMaxDivergences = 25

// Sample draws posterior samples for the model conditioned on the return
// series. Chains are independent and run fork-join on separate goroutines;
// each owns a private RNG seeded from (Seed, chain index), so identical
// inputs reproduce bit-for-bit regardless of scheduling.
//
// Scheme: Metropolis-within-Gibbs. The switch index is drawn from its exact
// categorical full conditional, segment means from their conjugate Normal
// full conditionals, and segment scales by random-walk Metropolis on log
// sigma with step size adapted only during tuning.
func Sample(ctx context.Context, m *Model, returns models.ReturnSeries, opts Options) (*models.Ensemble, error) {
	if opts.NumChains < 2 {
		return nil, fmt.Errorf("num_chains must be >= 2, got %d", opts.NumChains)
	}
	if opts.NumDraws <= 0 {
		return nil, fmt.Errorf("num_draws must be > 0, got %d", opts.NumDraws)
	}
	if opts.NumTune < 0 {
		return nil, fmt.Errorf("num_tune must be >= 0, got %d", opts.NumTune)
	}
	if returns.Len() != m.N {
		return nil, fmt.Errorf("return series length %d does not match model (%d)", returns.Len(), m.N)
	}
	maxDiv := opts.MaxDivergences
	if maxDiv <= 0 {
		maxDiv = defaultMaxDivergences
	}

	// Prefix sums make every segment's sufficient statistics O(1).
	sum := make([]float64, m.N+1)
	sumsq := make([]float64, m.N+1)
	for i, v := range returns.Values {
		sum[i+1] = sum[i] + v
		sumsq[i+1] = sumsq[i] + v*v
	}

	started := time.Now()
	chains := make([]models.Chain, opts.NumChains)
	g, gctx := errgroup.WithContext(ctx)
	for ci := 0; ci < opts.NumChains; ci++ {
		g.Go(func() error {
			seed := chainSeed(opts.Seed, ci)
			c, err := runChain(gctx, m, sum, sumsq, seed, ci, opts.NumDraws, opts.NumTune, maxDiv, started)
			if err != nil {
				return err
			}
			chains[ci] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &models.Ensemble{Chains: chains, NumTune: opts.NumTune}, nil
}

// chainSeed derives a per-chain seed from the run seed via a splitmix64
// finalizer, keeping chains decorrelated even for adjacent run seeds.
func chainSeed(run uint64, chain int) uint64 {
	z := run + uint64(chain+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

type chainState struct {
	tau          int
	mu1, mu2     float64
	ls1, ls2     float64 // log segment scales
	step1, step2 float64
	divergences  int
	logits       []float64
}

func runChain(ctx context.Context, m *Model, sum, sumsq []float64, seed uint64, chain, draws, tune, maxDiv int, started time.Time) (models.Chain, error) {
	rng := rand.New(rand.NewSource(seed))
	st := &chainState{
		tau:    m.SwitchLow + int(rng.Uint64n(uint64(m.SwitchSupport()))),
		mu1:    m.EmpiricalMean,
		mu2:    m.EmpiricalMean,
		ls1:    math.Log(m.EmpiricalSD),
		ls2:    math.Log(m.EmpiricalSD),
		step1:  0.5,
		step2:  0.5,
		logits: make([]float64, m.SwitchSupport()),
	}

	out := models.Chain{Seed: seed, Draws: make([]models.Sample, 0, draws)}
	total := tune + draws
	var windowAcc1, windowAcc2, windowLen int

	for sweep := 0; sweep < total; sweep++ {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return models.Chain{}, &SamplerTimeoutError{Chain: chain, Sweep: sweep, Elapsed: time.Since(started)}
			}
			return models.Chain{}, ctx.Err()
		default:
		}

		sweepMeans(m, st, sum, rng)
		a1, a2, err := sweepScales(m, st, sum, sumsq, rng, chain, sweep, maxDiv)
		if err != nil {
			return models.Chain{}, err
		}
		sweepSwitch(m, st, sum, sumsq, rng)

		tuning := sweep < tune
		if tuning {
			if a1 {
				windowAcc1++
			}
			if a2 {
				windowAcc2++
			}
			windowLen++
			if windowLen == 50 {
				st.step1 = adaptStep(st.step1, windowAcc1, windowLen)
				st.step2 = adaptStep(st.step2, windowAcc2, windowLen)
				windowAcc1, windowAcc2, windowLen = 0, 0, 0
			}
		} else {
			if a1 {
				out.Accepts++
			}
			if a2 {
				out.Accepts++
			}
			out.Draws = append(out.Draws, models.Sample{
				SwitchIndex: st.tau,
				MeanBefore:  st.mu1,
				MeanAfter:   st.mu2,
				ScaleBefore: math.Exp(st.ls1),
				ScaleAfter:  math.Exp(st.ls2),
			})
		}
	}
	out.Divergences = st.divergences
	return out, nil
}

// adaptStep nudges the proposal scale toward ~44% acceptance, the usual
// target for one-dimensional random-walk Metropolis.
func adaptStep(step float64, accepted, window int) float64 {
	rate := float64(accepted) / float64(window)
	switch {
	case rate < 0.25:
		return step * 0.8
	case rate > 0.6:
		return step * 1.25
	}
	return step
}

// sweepMeans redraws both segment means from their conjugate Normal full
// conditionals given the current switch index and scales.
func sweepMeans(m *Model, st *chainState, sum []float64, rng *rand.Rand) {
	m0 := m.MeanPrior.Mu
	v0 := m.MeanPrior.Sigma * m.MeanPrior.Sigma

	draw := func(n float64, segSum, sigma float64) float64 {
		s2 := sigma * sigma
		prec := 1/v0 + n/s2
		postVar := 1 / prec
		postMean := (m0/v0 + segSum/s2) * postVar
		return distuv.Normal{Mu: postMean, Sigma: math.Sqrt(postVar), Src: rng}.Rand()
	}

	n1 := float64(st.tau)
	n2 := float64(m.N - st.tau)
	st.mu1 = draw(n1, sum[st.tau], math.Exp(st.ls1))
	st.mu2 = draw(n2, sum[m.N]-sum[st.tau], math.Exp(st.ls2))
}

// scaleLogTarget is the conditional log-density of log sigma for one segment:
// Normal likelihood with known mean, half-normal prior on sigma, plus the
// log-scale Jacobian.
func scaleLogTarget(ls, n, sse, priorScale float64) float64 {
	sigma2 := math.Exp(2 * ls)
	return -n*ls - sse/(2*sigma2) - sigma2/(2*priorScale*priorScale) + ls
}

func sweepScales(m *Model, st *chainState, sum, sumsq []float64, rng *rand.Rand, chain, sweep, maxDiv int) (bool, bool, error) {
	sse := func(lo, hi int, mu float64) float64 {
		n := float64(hi - lo)
		s := sum[hi] - sum[lo]
		ss := sumsq[hi] - sumsq[lo]
		return ss - 2*mu*s + n*mu*mu
	}

	step := func(cur *float64, stepSize float64, n, sseVal float64) (bool, error) {
		curTarget := scaleLogTarget(*cur, n, sseVal, m.ScalePrior.Sigma)
		prop := *cur + stepSize*rng.NormFloat64()
		propTarget := scaleLogTarget(prop, n, sseVal, m.ScalePrior.Sigma)
		if math.IsNaN(propTarget) || math.IsInf(propTarget, 1) || math.IsNaN(curTarget) {
			st.divergences++
			if st.divergences > maxDiv {
				return false, &SamplerDivergenceError{
					Chain: chain, Sweep: sweep, Count: st.divergences, Limit: maxDiv,
					SwitchIndex: st.tau,
					MeanBefore:  st.mu1, MeanAfter: st.mu2,
					ScaleBefore: math.Exp(st.ls1), ScaleAfter: math.Exp(st.ls2),
				}
			}
			return false, nil
		}
		if math.Log(rng.Float64()) < propTarget-curTarget {
			*cur = prop
			return true, nil
		}
		return false, nil
	}

	a1, err := step(&st.ls1, st.step1, float64(st.tau), sse(0, st.tau, st.mu1))
	if err != nil {
		return false, false, err
	}
	a2, err := step(&st.ls2, st.step2, float64(m.N-st.tau), sse(st.tau, m.N, st.mu2))
	if err != nil {
		return a1, false, err
	}
	return a1, a2, nil
}

// sweepSwitch draws the switch index from its exact full conditional: a
// categorical over the valid indices, uniform prior, with each candidate's
// segment log-likelihoods computed from the prefix sums.
func sweepSwitch(m *Model, st *chainState, sum, sumsq []float64, rng *rand.Rand) {
	s1 := math.Exp(st.ls1)
	s2 := math.Exp(st.ls2)
	v1 := 2 * s1 * s1
	v2 := 2 * s2 * s2
	l1 := math.Log(s1)
	l2 := math.Log(s2)

	maxLogit := math.Inf(-1)
	for i := range st.logits {
		tau := m.SwitchLow + i
		n1 := float64(tau)
		n2 := float64(m.N - tau)
		sse1 := sumsq[tau] - 2*st.mu1*sum[tau] + n1*st.mu1*st.mu1
		sse2 := (sumsq[m.N] - sumsq[tau]) - 2*st.mu2*(sum[m.N]-sum[tau]) + n2*st.mu2*st.mu2
		lw := -n1*l1 - sse1/v1 - n2*l2 - sse2/v2
		st.logits[i] = lw
		if lw > maxLogit {
			maxLogit = lw
		}
	}

	var total float64
	for i, lw := range st.logits {
		w := math.Exp(lw - maxLogit)
		st.logits[i] = w
		total += w
	}

	u := rng.Float64() * total
	acc := 0.0
	for i, w := range st.logits {
		acc += w
		if u < acc {
			st.tau = m.SwitchLow + i
			return
		}
	}
	st.tau = m.SwitchHigh - 1
}
