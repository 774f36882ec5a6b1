package pipeline

import (
	"time"

	"curator/internal/stage"
)

// StageSet bundles the concrete stage handlers the orchestrator runs.
type StageSet struct {
	Aggregate     stage.Handler
	Cleanse       stage.Handler
	Standardize   stage.Handler
	ValidateRules stage.Handler
	Enrich        stage.Handler
	GoldenRecord  stage.Handler
}

type namedStage struct {
	name    string
	handler stage.Handler
}

func (s StageSet) ordered() []namedStage {
	return []namedStage{
		{name: stage.Aggregate, handler: s.Aggregate},
		{name: stage.Cleanse, handler: s.Cleanse},
		{name: stage.Standardize, handler: s.Standardize},
		{name: stage.ValidateRules, handler: s.ValidateRules},
		{name: stage.Enrich, handler: s.Enrich},
		{name: stage.GoldenRecord, handler: s.GoldenRecord},
	}
}

// ProductResult is the outcome for one input id of a batch.
type ProductResult struct {
	ProductID string `json:"productId"`
	Success   bool   `json:"success"`
	Stage     string `json:"stage,omitempty"`
	Error     string `json:"error,omitempty"`
	Err       error  `json:"-"`
}

// Failure names a product that did not complete and why.
type Failure struct {
	ProductID string `json:"productId"`
	Stage     string `json:"stage,omitempty"`
	Error     string `json:"error"`
}

// BatchResult summarizes a ProcessMany call. SuccessCount+FailureCount always
// equals the number of input ids and Results is in input order.
type BatchResult struct {
	SuccessCount int             `json:"successCount"`
	FailureCount int             `json:"failureCount"`
	Failures     []Failure       `json:"failures"`
	Results      []ProductResult `json:"results"`
	Duration     time.Duration   `json:"durationNs"`
}
