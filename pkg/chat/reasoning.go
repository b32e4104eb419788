package chat

// ReasoningStep is one entry of an assistant message's reasoning panel
type ReasoningStep struct {
	Step         string     `json:"step,omitempty"`
	Content      string     `json:"content"`
	StepNumber   int        `json:"step_number,omitempty"`
	Query        string     `json:"query,omitempty"`
	Category     string     `json:"category,omitempty"`
	FoundSources int        `json:"found_sources,omitempty"`
	Sources      SourceList `json:"sources,omitempty"`
	Timestamp    string     `json:"timestamp,omitempty"`
}

// Title is the heading shown for the step
func (r ReasoningStep) Title() string {
	if r.Step != "" && r.Step != r.Content {
		return r.Step
	}
	if r.Category != "" {
		return r.Category
	}
	return "Step"
}
