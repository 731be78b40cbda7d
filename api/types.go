package api

import (
	"bytes"
	"encoding/json"

	"github.com/kbukum/wavechat/validation"
)

// Mode selects how the backend frames the analysis. Values are defined by
// the backend and passed through unchanged.
type Mode string

// AnalysisParams are the user-chosen settings for one analysis request.
type AnalysisParams struct {
	Prompt      string  `json:"prompt" mapstructure:"prompt"`
	ModelID     string  `json:"modelId" mapstructure:"model_id" validate:"required"`
	Temperature float64 `json:"temperature" mapstructure:"temperature" validate:"gte=0"`
	// ThinkingBudget is passed through as is; the backend accepts negative
	// sentinels.
	ThinkingBudget int  `json:"thinkingBudget" mapstructure:"thinking_budget"`
	Mode           Mode `json:"mode" mapstructure:"mode" validate:"required"`
	// BPM is sent only when set.
	BPM *float64 `json:"bpm,omitempty" mapstructure:"bpm" validate:"omitempty,gt=0"`
	// Chords are sent only when non-empty, in order.
	Chords []string `json:"chords,omitempty" mapstructure:"chords" validate:"dive,required"`
}

// Validate checks the parameters before any request is made.
func (p AnalysisParams) Validate() error {
	v := validation.New().Finite("temperature", p.Temperature)
	if p.BPM != nil {
		v.Finite("bpm", *p.BPM)
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return validation.Validate(p)
}

// Payload is a decoded JSON response. Raw keeps the exact body; Fields is
// set when the body is a JSON object.
type Payload struct {
	Raw    json.RawMessage
	Fields map[string]any
}

// UnmarshalJSON keeps the raw body and decodes objects into Fields.
func (p *Payload) UnmarshalJSON(data []byte) error {
	p.Raw = append(json.RawMessage(nil), data...)
	p.Fields = nil
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		var v any
		return json.Unmarshal(trimmed, &v)
	}
	return json.Unmarshal(trimmed, &p.Fields)
}

// StringField returns Fields[key] when it is a string.
func (p Payload) StringField(key string) string {
	s, _ := p.Fields[key].(string)
	return s
}

// FirstString returns the first non-empty string field among keys.
func (p Payload) FirstString(keys ...string) string {
	for _, k := range keys {
		if s := p.StringField(k); s != "" {
			return s
		}
	}
	return ""
}

// Compact returns the body as single-line JSON.
func (p Payload) Compact() string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, p.Raw); err != nil {
		return string(p.Raw)
	}
	return buf.String()
}

// PreviewResult is the spectrogram preview response.
type PreviewResult struct {
	Payload
}

// AnalysisResult is the analyze response. SessionID ties later chat
// messages to this analysis.
type AnalysisResult struct {
	Payload
	SessionID string
}

// ChatResult is the chat reply response.
type ChatResult struct {
	Payload
}

// Reply returns the most likely reply text, or the compact body.
func (r ChatResult) Reply() string {
	if s := r.FirstString("reply", "response", "message", "answer", "text"); s != "" {
		return s
	}
	return r.Compact()
}
