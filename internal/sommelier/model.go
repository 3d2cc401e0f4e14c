package sommelier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Product is the read-only catalog view the engine ranks and suggests from.
type Product struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	InStock     bool    `json:"inStock"`
}

// Knowledge entry types used by the dispatch table.
const (
	KnowledgeQA         = "Q&A"
	KnowledgeMapping    = "Mapping"
	KnowledgeBrandStory = "BrandStory"
)

// KnowledgeEntry is one admin-authored key/value rule.
type KnowledgeEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// StepKind is the state kind of a step: question awaits an answer, result ends the flow.
type StepKind string

const (
	KindQuestion StepKind = "question"
	KindResult   StepKind = "result"
)

// Step is one node of a flow; it is either a *QuestionStep or a *ResultStep.
type Step interface {
	StepID() string
	Kind() StepKind
}

// Option is one answer of a question step. An empty NextStepID ends the flow
// without a result step.
type Option struct {
	Label      Text     `json:"label"`
	NextStepID string   `json:"nextStepId,omitempty"`
	Sensory    *Sensory `json:"sensoryScore,omitempty"`
}

// QuestionStep prompts the user and branches on the chosen option.
type QuestionStep struct {
	ID       string   `json:"id"`
	Question Text     `json:"question"`
	Options  []Option `json:"options"`
}

func (s *QuestionStep) StepID() string { return s.ID }
func (s *QuestionStep) Kind() StepKind { return KindQuestion }

// MarshalJSON writes the step with its type discriminator.
func (s *QuestionStep) MarshalJSON() ([]byte, error) {
	type plain QuestionStep
	return json.Marshal(struct {
		Type StepKind `json:"type"`
		*plain
	}{KindQuestion, (*plain)(s)})
}

// ResultMetadata carries optional side effects of reaching a result step.
type ResultMetadata struct {
	TriggerGiftMode    bool   `json:"triggerGiftMode,omitempty"`
	IsWeatherSensitive bool   `json:"isWeatherSensitive,omitempty"`
	RequiresBudgetInfo bool   `json:"requiresBudgetInfo,omitempty"`
	PersonaHint        string `json:"personaHint,omitempty"`
}

// ResultStep terminates a flow with a message and authored product picks.
type ResultStep struct {
	ID                     string          `json:"id"`
	Message                Text            `json:"resultMessage"`
	ProductRecommendations []string        `json:"productRecommendations,omitempty"`
	Metadata               *ResultMetadata `json:"metadata,omitempty"`
}

func (s *ResultStep) StepID() string { return s.ID }
func (s *ResultStep) Kind() StepKind { return KindResult }

// MarshalJSON writes the step with its type discriminator.
func (s *ResultStep) MarshalJSON() ([]byte, error) {
	type plain ResultStep
	return json.Marshal(struct {
		Type StepKind `json:"type"`
		*plain
	}{KindResult, (*plain)(s)})
}

// Flow is an admin-authored decision tree.
type Flow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Trigger     string `json:"trigger"`
	StartStepID string `json:"startStepId"`
	Steps       []Step `json:"steps"`
	Active      bool   `json:"active"`
	PersonaType string `json:"personaType,omitempty"`
}

// Step looks up a step by id.
func (f *Flow) Step(id string) (Step, bool) {
	if f == nil || id == "" {
		return nil, false
	}
	for _, s := range f.Steps {
		if s != nil && s.StepID() == id {
			return s, true
		}
	}
	return nil, false
}

// UnmarshalJSON decodes the step union by its "type" field. Steps may be an
// array or an object keyed by step id (the id field then defaults to the key).
func (f *Flow) UnmarshalJSON(data []byte) error {
	type header struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Trigger     string `json:"trigger"`
		StartStepID string `json:"startStepId"`
		Active      bool   `json:"active"`
		PersonaType string `json:"personaType"`
	}
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return fmt.Errorf("flow: %w", err)
	}
	*f = Flow{
		ID:          h.ID,
		Name:        h.Name,
		Trigger:     h.Trigger,
		StartStepID: h.StartStepID,
		Active:      h.Active,
		PersonaType: h.PersonaType,
	}

	var decodeErr error
	steps := gjson.GetBytes(data, "steps")
	add := func(key, value gjson.Result) bool {
		s, err := decodeStep(value.Raw, key.String())
		if err != nil {
			decodeErr = fmt.Errorf("flow %q: %w", h.ID, err)
			return false
		}
		f.Steps = append(f.Steps, s)
		return true
	}
	switch {
	case steps.IsArray():
		steps.ForEach(func(_, v gjson.Result) bool { return add(gjson.Result{}, v) })
	case steps.IsObject():
		steps.ForEach(add)
	}
	return decodeErr
}

// DecodeFlow parses one flow definition document.
func DecodeFlow(data []byte) (Flow, error) {
	var f Flow
	err := json.Unmarshal(data, &f)
	return f, err
}

func decodeStep(raw, fallbackID string) (Step, error) {
	kind := StepKind(strings.ToLower(gjson.Get(raw, "type").String()))
	var s Step
	switch kind {
	case KindQuestion:
		s = &QuestionStep{}
	case KindResult:
		s = &ResultStep{}
	default:
		return nil, fmt.Errorf("step %q: unknown type %q", gjson.Get(raw, "id").String(), kind)
	}
	if err := json.Unmarshal([]byte(raw), s); err != nil {
		return nil, fmt.Errorf("step: %w", err)
	}
	switch v := s.(type) {
	case *QuestionStep:
		if v.ID == "" {
			v.ID = fallbackID
		}
	case *ResultStep:
		if v.ID == "" {
			v.ID = fallbackID
		}
	}
	return s, nil
}

// Turn is one answered question in a flow traversal.
type Turn struct {
	StepID   string `json:"stepId"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// State is the session-scoped position inside a flow. The caller persists it
// between turns; a nil *State means no flow is active.
type State struct {
	FlowID   string  `json:"flowId"`
	StepID   string  `json:"stepId"`
	History  []Turn  `json:"history,omitempty"`
	Sensory  Sensory `json:"sensory"`
	Persona  string  `json:"personaType,omitempty"`
	GiftMode bool    `json:"giftModeActive,omitempty"`
	// Steps counts transitions taken in the current flow.
	Steps int `json:"steps"`
}

// Clone returns a deep copy so transitions never alias the caller's value.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.History = append([]Turn(nil), s.History...)
	return &c
}

// Active reports whether the state points into a flow.
func (s *State) Active() bool { return s != nil && s.FlowID != "" && s.StepID != "" }
