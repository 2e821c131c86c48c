package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/snapsource/internal/types"
)

const (
	tokensPerPricingUnit = 1_000_000

	errorCountTokensFormat = "count tokens: %w"
	summaryBaseFormat      = "Copied to clipboard: %s format"
	summaryTokensFormat    = ", %d tokens, $%.4f est. cost"
	limitWarningFormat     = "WARNING: Token count (%d) exceeds the set limit (%d)."
)

var errNilCounter = errors.New("nil tokenizer counter")

// ModelProfile describes the published input price and context window of one model.
type ModelProfile struct {
	// InputCostPerMillion is the price in US dollars for one million input tokens.
	InputCostPerMillion float64
	ContextWindow       int
}

var modelProfiles = map[string]ModelProfile{
	"gpt-4":                      {InputCostPerMillion: 30, ContextWindow: 8192},
	"gpt-4o":                     {InputCostPerMillion: 2.5, ContextWindow: 128000},
	"gpt-4o-mini":                {InputCostPerMillion: 0.15, ContextWindow: 128000},
	"claude-3-5-sonnet-20240620": {InputCostPerMillion: 3, ContextWindow: 200000},
	"claude-3-opus-20240229":     {InputCostPerMillion: 15, ContextWindow: 200000},
}

// LookupModel returns the profile of a known model.
func LookupModel(model string) (ModelProfile, bool) {
	profile, known := modelProfiles[strings.ToLower(strings.TrimSpace(model))]
	return profile, known
}

// ModelMaxTokens returns the context window of a known model and zero otherwise.
func ModelMaxTokens(model string) int {
	profile, _ := LookupModel(model)
	return profile.ContextWindow
}

// EstimateCost converts an input token count into dollars. Unknown models cost zero.
func EstimateCost(model string, inputTokens int) float64 {
	profile, known := LookupModel(model)
	if !known {
		return 0
	}
	return float64(inputTokens) * profile.InputCostPerMillion / tokensPerPricingUnit
}

// Estimator counts tokens for a snapshot and prices them for one model.
type Estimator struct {
	counter Counter
	model   string
}

// NewEstimator constructs an Estimator around a Counter.
func NewEstimator(counter Counter, model string) *Estimator {
	return &Estimator{counter: counter, model: model}
}

// Estimate counts the input tokens of text and estimates their cost.
func (estimator *Estimator) Estimate(text string) (types.TokenInfo, error) {
	if estimator == nil || estimator.counter == nil {
		return types.TokenInfo{}, errNilCounter
	}
	inputTokens, countError := estimator.counter.CountString(text)
	if countError != nil {
		return types.TokenInfo{}, fmt.Errorf(errorCountTokensFormat, countError)
	}
	return types.TokenInfo{
		InputTokens: inputTokens,
		Cost:        EstimateCost(estimator.model, inputTokens),
	}, nil
}

// TokenLimit returns the ceiling a snapshot is checked against: the configured maximum when
// positive, otherwise the model's context window. Zero means no ceiling.
func TokenLimit(model string, maxTokens int) int {
	if maxTokens > 0 {
		return maxTokens
	}
	return ModelMaxTokens(model)
}

// LimitWarning returns the warning line for a token count above the limit, or an empty string.
func LimitWarning(inputTokens int, limit int) string {
	if limit <= 0 || inputTokens <= limit {
		return ""
	}
	return fmt.Sprintf(limitWarningFormat, inputTokens, limit)
}

// Summary renders the completion message. A nil token info omits the token and cost part.
func Summary(format types.OutputFormat, tokenInfo *types.TokenInfo) string {
	summary := fmt.Sprintf(summaryBaseFormat, format)
	if tokenInfo != nil {
		summary += fmt.Sprintf(summaryTokensFormat, tokenInfo.InputTokens, tokenInfo.Cost)
	}
	return summary
}
