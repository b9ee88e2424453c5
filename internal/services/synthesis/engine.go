package synthesis

import (
	"fmt"
	"math"
	"sort"

	"TriSight/internal/domain/models"
)

// Weights is the per-context weighting of the three analyses. Values should
// sum to 1 for the all-present case; the engine renormalizes over whichever
// analyses are actually present.
type Weights struct {
	Fundamental float64 `yaml:"fundamental"`
	Technical   float64 `yaml:"technical"`
	ESG         float64 `yaml:"esg"`
}

func (w Weights) forKind(k models.Kind) float64 {
	switch k {
	case models.KindFundamental:
		return w.Fundamental
	case models.KindTechnical:
		return w.Technical
	case models.KindESG:
		return w.ESG
	}
	return 0
}

// Thresholds is the fixed recommendation policy: BUY at or above Buy,
// SELL strictly below Sell, HOLD in between.
type Thresholds struct {
	Buy  int `yaml:"buy"`
	Sell int `yaml:"sell"`
}

// Engine combines the available sub-scores into one verdict.
type Engine struct {
	weights    map[string]Weights
	thresholds Thresholds
}

// NewEngine builds an engine from a context-keyed weight table.
func NewEngine(weights map[string]Weights, th Thresholds) *Engine {
	if th.Buy == 0 && th.Sell == 0 {
		th = Thresholds{Buy: 70, Sell: 40}
	}
	return &Engine{weights: weights, thresholds: th}
}

// Input is whatever subset of analyses is available, already defaulted by the
// degradation handler where needed.
type Input struct {
	Analyses      []models.ScoredAnalysis
	Context       string
	ConfidenceCap float64 // 0 means uncapped
}

// Verdict is the synthesized outcome.
type Verdict struct {
	Score          int
	Recommendation string
	Confidence     float64 // 0-100
	Convergence    []models.ConvergenceFactor
	Divergence     []models.DivergenceFactor
}

// Synthesize computes the weighted score, recommendation, confidence and
// agreement factors for the present analyses.
func (e *Engine) Synthesize(in Input) (Verdict, error) {
	if len(in.Analyses) == 0 {
		return Verdict{}, models.NewAnalysisError(models.CodeSynthesis, models.StageSynthesis, "no analyses available for synthesis")
	}
	w, ok := e.weights[in.Context]
	if !ok {
		return Verdict{}, models.NewAnalysisError(models.CodeSynthesis, models.StageSynthesis,
			fmt.Sprintf("no weight table for context %q", in.Context))
	}

	// Renormalize weights over the analyses actually present rather than
	// silently treating an absent analysis as a zero score.
	total := 0.0
	for _, a := range in.Analyses {
		total += w.forKind(a.Kind)
	}
	if total <= 0 {
		return Verdict{}, models.NewAnalysisError(models.CodeSynthesis, models.StageSynthesis, "weight table sums to zero over present analyses")
	}

	var score, conf float64
	for _, a := range in.Analyses {
		wi := w.forKind(a.Kind) / total
		score += wi * a.Score
		conf += wi * a.Confidence
	}

	if in.ConfidenceCap > 0 && conf > in.ConfidenceCap {
		conf = in.ConfidenceCap
	}

	rounded := int(math.Round(score))
	if rounded < 0 {
		rounded = 0
	}
	if rounded > 100 {
		rounded = 100
	}

	conv, div := agreementFactors(in.Analyses)

	return Verdict{
		Score:          rounded,
		Recommendation: e.recommend(rounded),
		Confidence:     math.Round(conf*100*100) / 100,
		Convergence:    conv,
		Divergence:     div,
	}, nil
}

func (e *Engine) recommend(score int) string {
	switch {
	case score >= e.thresholds.Buy:
		return models.RecommendationBuy
	case score < e.thresholds.Sell:
		return models.RecommendationSell
	default:
		return models.RecommendationHold
	}
}

// agreementFactors groups factor signals by category across analyses and
// emits a convergence factor where two or more analyses point the same way,
// or a divergence factor where they conflict.
func agreementFactors(analyses []models.ScoredAnalysis) ([]models.ConvergenceFactor, []models.DivergenceFactor) {
	type reading struct {
		kind models.Kind
		net  int
		w    float64
	}
	byCategory := map[string][]reading{}

	for _, a := range analyses {
		perCat := map[string]*reading{}
		for _, f := range a.Factors {
			if f.Category == "" || f.Signal == models.SignalNeutral {
				continue
			}
			r, ok := perCat[f.Category]
			if !ok {
				r = &reading{kind: a.Kind}
				perCat[f.Category] = r
			}
			if f.Signal == models.SignalPositive {
				r.net++
			} else {
				r.net--
			}
			r.w += f.Weight
		}
		for cat, r := range perCat {
			if r.net != 0 {
				byCategory[cat] = append(byCategory[cat], *r)
			}
		}
	}

	cats := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	var conv []models.ConvergenceFactor
	var div []models.DivergenceFactor
	for _, cat := range cats {
		rs := byCategory[cat]
		if len(rs) < 2 {
			continue
		}
		pos, neg := []models.Kind{}, []models.Kind{}
		weight := 0.0
		for _, r := range rs {
			weight += r.w
			if r.net > 0 {
				pos = append(pos, r.kind)
			} else {
				neg = append(neg, r.kind)
			}
		}
		switch {
		case len(pos) >= 2 && len(neg) == 0:
			conv = append(conv, models.ConvergenceFactor{
				Category:           cat,
				Description:        fmt.Sprintf("%d analyses agree on a positive %s signal", len(pos), cat),
				Weight:             weight,
				SupportingAnalyses: pos,
			})
		case len(neg) >= 2 && len(pos) == 0:
			conv = append(conv, models.ConvergenceFactor{
				Category:           cat,
				Description:        fmt.Sprintf("%d analyses agree on a negative %s signal", len(neg), cat),
				Weight:             weight,
				SupportingAnalyses: neg,
			})
		case len(pos) >= 1 && len(neg) >= 1:
			div = append(div, models.DivergenceFactor{
				Category:            cat,
				Description:         fmt.Sprintf("analyses disagree on %s", cat),
				Weight:              weight,
				ConflictingAnalyses: append(pos, neg...),
			})
		}
	}
	return conv, div
}
