package dto

type SynthesizeRequest struct {
	Query string `json:"query" validate:"required"`
}

type SourceDTO struct {
	Title *string  `json:"title,omitempty"`
	URL   *string  `json:"url,omitempty"`
	Score *float64 `json:"score,omitempty"`
}

type SynthesizeResponse struct {
	Query       string      `json:"query"`
	FinalAnswer string      `json:"final_answer"`
	Sources     []SourceDTO `json:"sources"`
}
