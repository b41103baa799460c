package prompt

import "fmt"

// PromptIDs contains all known prompt identifiers
var PromptIDs = struct {
	AnalysisSummary string
	AnalysisChat    string
}{
	AnalysisSummary: "analysis.summary",
	AnalysisChat:    "analysis.chat",
}

// SummaryPrompt renders the one-shot commentary request around context.
func (r *Registry) SummaryPrompt(context string) (string, error) {
	pt, err := r.GetPrompt(PromptIDs.AnalysisSummary)
	if err != nil {
		return "", err
	}
	return RenderUserPrompt(pt, NewContext().Set("Context", context))
}

// ChatPreamble renders the system instruction sent with every chat turn.
func (r *Registry) ChatPreamble(context string) (string, error) {
	pt, err := r.GetPrompt(PromptIDs.AnalysisChat)
	if err != nil {
		return "", err
	}
	return RenderSystemPrompt(pt, NewContext().Set("Context", context))
}

// CheckAnalysis verifies that both analysis prompts are registered and render
// against a placeholder context. Call it after loading overrides so a broken
// template fails at startup instead of on the first upload.
func (r *Registry) CheckAnalysis() error {
	found := make(map[string]bool)
	for _, pt := range r.ListByCategory("analysis") {
		found[pt.ID] = true
	}
	for _, id := range []string{PromptIDs.AnalysisSummary, PromptIDs.AnalysisChat} {
		if !found[id] {
			return fmt.Errorf("prompt %s is not registered in category analysis", id)
		}
	}

	if _, err := r.SummaryPrompt("-"); err != nil {
		return fmt.Errorf("prompt %s: %w", PromptIDs.AnalysisSummary, err)
	}
	if _, err := r.ChatPreamble("-"); err != nil {
		return fmt.Errorf("prompt %s: %w", PromptIDs.AnalysisChat, err)
	}
	return nil
}
