package models

// Stage identifies one discrete step of the analysis pipeline.
type Stage string

const (
	StageValidation         Stage = "VALIDATION"
	StageAuthentication     Stage = "AUTHENTICATION"
	StageAPIKeyDecryption   Stage = "API_KEY_DECRYPTION"
	StageFundamental        Stage = "FUNDAMENTAL_ANALYSIS"
	StageTechnical          Stage = "TECHNICAL_ANALYSIS"
	StageSentimentEco       Stage = "SENTIMENT_ECO_ANALYSIS"
	StageSynthesis          Stage = "SYNTHESIS"
	StageTradeParameters    Stage = "TRADE_PARAMETERS"
	StageResponseFormatting Stage = "RESPONSE_FORMATTING"
)

// StageOrder lists stages in pipeline order. The three analysis stages are
// concurrent siblings; their relative order here is only used for reporting.
var StageOrder = []Stage{
	StageValidation,
	StageAuthentication,
	StageAPIKeyDecryption,
	StageFundamental,
	StageTechnical,
	StageSentimentEco,
	StageSynthesis,
	StageTradeParameters,
	StageResponseFormatting,
}

// Kind identifies one of the three core analyses.
type Kind string

const (
	KindFundamental Kind = "fundamental"
	KindTechnical   Kind = "technical"
	KindESG         Kind = "esg"
)

// Kinds lists the core analyses in reporting order.
var Kinds = []Kind{KindFundamental, KindTechnical, KindESG}

// Stage returns the pipeline stage that produces this analysis.
func (k Kind) Stage() Stage {
	switch k {
	case KindFundamental:
		return StageFundamental
	case KindTechnical:
		return StageTechnical
	case KindESG:
		return StageSentimentEco
	default:
		return ""
	}
}

// KindForStage returns the analysis kind for an analysis stage, or "" when the
// stage is not one of the three analyses.
func KindForStage(s Stage) Kind {
	switch s {
	case StageFundamental:
		return KindFundamental
	case StageTechnical:
		return KindTechnical
	case StageSentimentEco:
		return KindESG
	default:
		return ""
	}
}

// AnalysisContext selects the synthesis weighting profile.
const (
	ContextInvestment = "investment"
	ContextTrading    = "trading"
)
