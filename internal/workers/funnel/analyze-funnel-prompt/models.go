// internal/workers/funnel/analyze-funnel-prompt/models.go
package analyzefunnelprompt

import "funnel-workers/internal/funnel/analyzer"

type Input struct {
	Prompt string `json:"prompt"`
}

type Output struct {
	Analysis analyzer.PromptAnalysis `json:"analysis"`
}
