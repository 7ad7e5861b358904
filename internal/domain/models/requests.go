package models

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type IndicatorsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"300" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"intraday" validate:"oneof=intraday 5d 30d"`
}

type ProfileRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"300" validate:"gte=1,lte=5000"`
	Bins   int    `query:"bins" json:"bins" default:"20" validate:"gte=1,lte=200"`
	TF     string `query:"tf" json:"tf" default:"intraday" validate:"oneof=intraday 5d 30d"`
}

type ConsensusRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"intraday" validate:"oneof=intraday 5d 30d"`
}

type ConsensusHistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"intraday" validate:"oneof=intraday 5d 30d"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type AggregateRequest struct {
	Symbol string `json:"symbol" validate:"required"`
	TF     string `json:"tf" default:"intraday" validate:"oneof=intraday 5d 30d"`
	Infer  bool   `json:"infer"`
}

// SubmitPredictionRequest is the payload external predictors push.
// Rationale fields beyond the validated core are preserved verbatim.
type SubmitPredictionRequest struct {
	Symbol            string   `json:"symbol" validate:"required"`
	Timeframe         string   `json:"timeframe" validate:"oneof=intraday 5d 30d"`
	Source            string   `json:"source" validate:"required"`
	Label             string   `json:"prediction_label" validate:"oneof=Buy Sell Hold"`
	Confidence        float64  `json:"signal_strength" validate:"gte=0,lte=1"`
	TechnicalAnalysis string   `json:"technical_analysis"`
	SentimentAnalysis string   `json:"sentiment_analysis"`
	KeyFactors        []string `json:"key_factors"`
}

// BarsRequest accepts RFC3339 or unix-second timestamps for the range.
type BarsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	TF     string `query:"tf" json:"tf" default:"intraday" validate:"oneof=intraday 5d 30d"`
}

type RunPredictorsRequest struct {
	Symbol string `json:"symbol" validate:"required"`
	TF     string `json:"tf" default:"intraday" validate:"oneof=intraday 5d 30d"`
}
