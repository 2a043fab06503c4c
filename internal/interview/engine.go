package interview

import (
	"github.com/hallatan/mockvox/internal/models"
)

const (
	// QuestionLimit ends the interview once reached.
	QuestionLimit = 70
	// QuestionsPerTopic forces a topic switch once reached.
	QuestionsPerTopic = 10
)

// ClosingRemark is returned verbatim, without a gateway call, on every turn
// after the question limit is reached.
const ClosingRemark = "Your interview is over, candidate. Thank you."

// TurnKind tells the caller which path a turn took.
type TurnKind int

const (
	// TurnConcluded: limit reached; no guidance, no gateway call.
	TurnConcluded TurnKind = iota
	// TurnIntroduction: the one-time opening instruction was issued.
	TurnIntroduction
	// TurnQuestion: a regular topic-driven guidance block was issued.
	TurnQuestion
)

// TurnDecision is the outcome of advancing the state machine by one turn.
type TurnDecision struct {
	Kind          TurnKind
	Guidance      string // instruction for the completion gateway; empty when concluded
	TopicSwitched bool
}

// EngineConfig tunes the engine; zero values take the package defaults.
type EngineConfig struct {
	Catalog           []Topic
	SelectTopic       SelectTopic
	QuestionLimit     int
	QuestionsPerTopic int
}

// Engine is the turn policy state machine. It owns no storage: callers load
// ConversationState, advance it here, and persist it again. All methods are
// pure over their inputs apart from the randomness inside topic selection.
type Engine struct {
	catalog           []Topic
	selectTopic       SelectTopic
	questionLimit     int
	questionsPerTopic int
}

func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		catalog:           cfg.Catalog,
		selectTopic:       cfg.SelectTopic,
		questionLimit:     cfg.QuestionLimit,
		questionsPerTopic: cfg.QuestionsPerTopic,
	}
	if len(e.catalog) == 0 {
		e.catalog = Catalog()
	}
	if e.selectTopic == nil {
		e.selectTopic = NextUncovered
	}
	if e.questionLimit <= 0 {
		e.questionLimit = QuestionLimit
	}
	if e.questionsPerTopic <= 0 {
		e.questionsPerTopic = QuestionsPerTopic
	}
	return e
}

// AdvanceTurn applies one incoming turn to the state and decides what the
// interviewer should do next. Order matters: the conclusion check runs
// before any topic logic, and the opening turn consumes a question slot
// without touching topic counters (no topic is active yet).
func (e *Engine) AdvanceTurn(st *models.ConversationState, interests []string) TurnDecision {
	if st.QuestionCount >= e.questionLimit {
		st.ShouldConclude = true
		return TurnDecision{Kind: TurnConcluded}
	}

	if !st.AskedIntroduction {
		st.HasGreeted = true
		st.AskedIntroduction = true
		st.QuestionCount++
		return TurnDecision{Kind: TurnIntroduction, Guidance: introductionInstruction}
	}

	switched := false
	if st.CurrentTopic == "" || st.QuestionsOnCurrentTopic >= e.questionsPerTopic {
		next := e.selectTopic(e.catalog, st.TopicsCovered)
		st.CurrentTopic = next
		st.QuestionsOnCurrentTopic = 0
		st.TopicsCovered = append(st.TopicsCovered, next)
		switched = true
	}

	st.QuestionCount++
	st.QuestionsOnCurrentTopic++

	return TurnDecision{
		Kind:          TurnQuestion,
		Guidance:      e.composeGuidance(st, interests),
		TopicSwitched: switched,
	}
}

// QuestionLimitValue exposes the configured limit for progress reporting.
func (e *Engine) QuestionLimitValue() int { return e.questionLimit }
