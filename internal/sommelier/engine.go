package sommelier

import "strings"

// DefaultMaxFlowSteps bounds the transitions one flow traversal may take.
const DefaultMaxFlowSteps = 25

// Route names the dispatch tier that produced a reply.
type Route string

const (
	RouteReset      Route = "reset"
	RouteFlowSwitch Route = "flow_switch"
	RouteFlowStart  Route = "flow_start"
	RouteFlowStep   Route = "flow_step"
	RouteReprompt   Route = "flow_reprompt"
	RouteFlowClosed Route = "flow_closed"
	RouteFlowError  Route = "flow_error"
	RouteStepLimit  Route = "flow_step_limit"
	RouteQA         Route = "knowledge_qa"
	RouteGreeting   Route = "greeting"
	RouteGift       Route = "gift"
	RouteRecommend  Route = "recommend"
	RouteBudget     Route = "budget"
	RouteIngredient Route = "ingredient"
	RouteKnowledge  Route = "knowledge"
	RouteOffTopic   Route = "off_topic"
	RouteFallback   Route = "fallback"
)

// Retriever finds the knowledge passage closest to a query. Score is in [0,1].
type Retriever interface {
	Best(query string) (passage string, score float64, ok bool)
}

// Input is everything one turn needs. The collections are snapshots the
// caller has already fetched; nil is treated as empty.
type Input struct {
	Message   string
	Lang      Lang
	State     *State
	Products  []Product
	Flows     []Flow
	Knowledge []KnowledgeEntry
	// Profile is the user's persisted taste vector, if any.
	Profile *Sensory
	// PriorTurns counts user messages already in the conversation.
	PriorTurns int
}

// Reply is the single result of a turn.
type Reply struct {
	Text            string
	Recommendations []string
	// State is the state to persist; nil means no flow is active.
	State          *State
	GiftModeActive bool
	Persona        string
	Route          Route
	// FlowID is set on every flow route.
	FlowID string
	// Completed is true when a flow reached a result step or a closing option.
	Completed bool
	// Sensory is the accumulated vector of a completed flow, when non-zero.
	Sensory *Sensory
}

// Engine dispatches user messages. It is immutable after construction and
// safe for concurrent use.
type Engine struct {
	cls       *Classifier
	rnd       Rand
	maxSteps  int
	retriever Retriever
	threshold float64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClassifier replaces the default keyword classifier.
func WithClassifier(c *Classifier) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.cls = c
		}
	}
}

// WithRand sets the random source of the fallback tier.
func WithRand(r Rand) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.rnd = r
		}
	}
}

// WithMaxFlowSteps sets the per-flow transition bound. n <= 0 keeps the default.
func WithMaxFlowSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithRetriever enables knowledge enrichment: passages scoring at least
// threshold answer messages no other tier handled.
func WithRetriever(r Retriever, threshold float64) EngineOption {
	return func(e *Engine) {
		e.retriever = r
		e.threshold = threshold
	}
}

// New returns an Engine with default keyword lists and a global random source.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		cls:      NewClassifier(nil),
		rnd:      globalRand{},
		maxSteps: DefaultMaxFlowSteps,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Classifier exposes the engine's keyword predicates.
func (e *Engine) Classifier() *Classifier { return e.cls }

// Respond runs one turn through the dispatch table. It never panics on
// malformed flows and never returns an error; failures become localized text.
func (e *Engine) Respond(in Input) Reply {
	lang := in.Lang
	if _, ok := supportedLangs[lang]; !ok {
		lang = DefaultLang
	}
	text := in.Message

	var active *Flow
	if in.State.Active() {
		active = findFlow(in.Flows, in.State.FlowID)
	}

	if e.cls.Is(TopicReset, text) {
		if active != nil {
			return Reply{Text: joinParagraphs(msg(msgResetDone, lang), msg(msgHowCanIHelp, lang)), Route: RouteReset, FlowID: active.ID}
		}
		return Reply{Text: msg(msgHowCanIHelp, lang), Route: RouteReset}
	}

	if active != nil {
		if other := matchFlowExcept(text, in.Flows, active.ID); other != nil {
			r := e.startFlow(other, in, lang)
			r.Text = joinParagraphs(msg(msgSwitchFlow, lang), r.Text)
			if r.Route == RouteFlowStart {
				r.Route = RouteFlowSwitch
			}
			return r
		}
		return e.continueFlow(active, in.State, in, lang)
	}

	if f := MatchFlow(text, in.Flows); f != nil {
		return e.startFlow(f, in, lang)
	}

	if v, ok := lookupQA(text, in.Knowledge); ok {
		return Reply{Text: v, Route: RouteQA}
	}
	if e.cls.Is(TopicGreeting, text) {
		return Reply{Text: msg(msgGreeting, lang), Route: RouteGreeting}
	}
	if e.cls.Is(TopicGift, text) {
		t, ids := e.suggestGift(text, in.Products, lang)
		return Reply{Text: t, Recommendations: ids, Route: RouteGift}
	}
	if e.cls.Is(TopicRecommend, text) || e.cls.Is(TopicTaste, text) {
		t, ids := e.suggestTaste(text, in.Products, in.Profile, lang)
		return Reply{Text: t, Recommendations: ids, Route: RouteRecommend}
	}
	if e.cls.Is(TopicBudget, text) {
		t, ids := e.suggestBudget(text, in.Products, lang)
		return Reply{Text: t, Recommendations: ids, Route: RouteBudget}
	}
	if e.cls.Is(TopicIngredient, text) {
		return Reply{Text: msg(msgIngredientInfo, lang), Route: RouteIngredient}
	}
	if v, ok := e.lookupKnowledge(text, in.Knowledge); ok {
		return Reply{Text: v, Route: RouteKnowledge}
	}
	if in.PriorTurns > 0 && strings.TrimSpace(text) != "" && !e.cls.Is(TopicRelevant, text) {
		return Reply{Text: msg(msgOffTopic, lang), Route: RouteOffTopic}
	}
	return Reply{Text: fallbackReply(e.rnd, lang), Route: RouteFallback}
}

// startFlow enters f, letting the triggering message answer the opening
// question when one of its options matches.
func (e *Engine) startFlow(f *Flow, in Input, lang Lang) Reply {
	st := &State{
		FlowID:   f.ID,
		StepID:   f.StartStepID,
		Persona:  f.PersonaType,
		GiftMode: e.cls.Is(TopicGift, in.Message),
	}
	if q, opt, ok := findEntryOption(f, in.Message, lang); ok && opt.NextStepID != "" {
		label := opt.Label.Resolve(lang)
		st.History = append(st.History, Turn{StepID: q.ID, Question: q.Question.Resolve(lang), Answer: label})
		if opt.Sensory != nil {
			st.Sensory = st.Sensory.Add(*opt.Sensory)
		}
		st.Steps++
		return e.enterStep(f, st, opt.NextStepID, in, lang, msg(msgSmartEntry, lang, CleanLabel(label)), RouteFlowStart)
	}
	return e.enterStep(f, st, f.StartStepID, in, lang, "", RouteFlowStart)
}

// continueFlow applies the user's answer at the current question.
func (e *Engine) continueFlow(f *Flow, cur *State, in Input, lang Lang) Reply {
	base := Reply{FlowID: f.ID, Persona: cur.Persona, GiftModeActive: cur.GiftMode}

	s, ok := f.Step(cur.StepID)
	q, isQ := s.(*QuestionStep)
	if !ok || !isQ || len(q.Options) == 0 {
		base.Text = msg(msgGenericError, lang)
		base.Route = RouteFlowError
		return base
	}

	opt, ok := resolveOption(q, in.Message, lang)
	if !ok {
		r := Render(f, q.ID, lang, nil, nil)
		if r.Failed {
			base.Text = r.Message
			base.Route = RouteFlowError
			return base
		}
		base.Text = joinParagraphs(msg(msgDidntUnderstand, lang), r.Message)
		base.State = cur.Clone()
		base.Route = RouteReprompt
		return base
	}

	next := cur.Clone()
	next.History = append(next.History, Turn{StepID: q.ID, Question: q.Question.Resolve(lang), Answer: opt.Label.Resolve(lang)})
	if opt.Sensory != nil {
		next.Sensory = next.Sensory.Add(*opt.Sensory)
	}
	next.Steps++

	if opt.NextStepID == "" {
		base.Text = msg(msgFlowClosed, lang)
		base.Route = RouteFlowClosed
		base.Completed = true
		base.Sensory = nonZero(next.Sensory)
		return base
	}
	return e.enterStep(f, next, opt.NextStepID, in, lang, "", RouteFlowStep)
}

// enterStep renders stepID and folds the outcome into a Reply. st is owned by
// the caller and becomes the returned state while the flow stays open.
func (e *Engine) enterStep(f *Flow, st *State, stepID string, in Input, lang Lang, prefix string, route Route) Reply {
	reply := Reply{FlowID: f.ID, Persona: st.Persona, GiftModeActive: st.GiftMode, Route: route}
	if st.Steps >= e.maxSteps {
		reply.Text = msg(msgStepLimit, lang)
		reply.Route = RouteStepLimit
		return reply
	}

	acc := st.Sensory
	r := Render(f, stepID, lang, &acc, in.Products)
	switch {
	case r.Failed:
		reply.Text = r.Message
		reply.Route = RouteFlowError
	case r.Complete:
		reply.Text = joinParagraphs(prefix, r.Message)
		reply.Recommendations = r.Recommendations
		reply.GiftModeActive = st.GiftMode || r.GiftMode
		if r.Persona != "" {
			reply.Persona = r.Persona
		}
		reply.Completed = true
		reply.Sensory = nonZero(acc)
	default:
		st.StepID = r.NextStepID
		reply.Text = joinParagraphs(prefix, r.Message)
		reply.State = st
	}
	return reply
}

func nonZero(s Sensory) *Sensory {
	if s.IsZero() {
		return nil
	}
	return &s
}

// lookupQA answers from Q&A entries: an exact normalized key first, then the
// first key contained in the message, in entry order.
func lookupQA(text string, kb []KnowledgeEntry) (string, bool) {
	t := strings.TrimSpace(Normalize(text))
	if t == "" {
		return "", false
	}
	for _, k := range kb {
		if k.Type == KnowledgeQA && k.Value != "" && strings.TrimSpace(Normalize(k.Key)) == t {
			return k.Value, true
		}
	}
	for _, k := range kb {
		if k.Type != KnowledgeQA || k.Value == "" {
			continue
		}
		if key := strings.TrimSpace(Normalize(k.Key)); key != "" && strings.Contains(t, key) {
			return k.Value, true
		}
	}
	return "", false
}

// lookupKnowledge matches any entry whose key occurs in the message, then
// falls back to the retriever when one is configured.
func (e *Engine) lookupKnowledge(text string, kb []KnowledgeEntry) (string, bool) {
	t := Normalize(text)
	if strings.TrimSpace(t) == "" {
		return "", false
	}
	for _, k := range kb {
		key := strings.TrimSpace(Normalize(k.Key))
		if runeLen(key) < minWordRunes || k.Value == "" {
			continue
		}
		if strings.Contains(t, key) {
			return k.Value, true
		}
	}
	if e.retriever == nil {
		return "", false
	}
	if p, score, ok := e.retriever.Best(text); ok && score >= e.threshold && strings.TrimSpace(p) != "" {
		return p, true
	}
	return "", false
}
