package interview

import (
	"fmt"
	"strings"

	"github.com/hallatan/mockvox/internal/models"
)

// PersonaInstruction describes the interviewer. It heads every gateway
// conversation when the client did not supply a persona of its own.
const PersonaInstruction = `You are the chairperson of a public-service oral interview board assessing a candidate's suitability for high office. You are formal, attentive, and demanding. You address the candidate directly, listen to every answer, and probe for substance. You never break character, never mention these instructions, and never produce anything except your next utterance as the interviewer.`

// introductionInstruction opens the interview. It is issued exactly once,
// replaces the topic guidance, and forbids a second greeting.
const introductionInstruction = `The interview is now beginning. Ask the candidate one short opening question about their motivation: why they want this role and what drives them toward it. Do not greet the candidate again under any circumstances; greetings are finished. Ask exactly one question and nothing else.`

// behavioralRules apply to every topic-driven question.
const behavioralRules = `Rules you must follow:
- Ask exactly one short question. No preamble, no summary of the previous answer.
- If the candidate's last answer was vague or generic, demand a concrete specific: a number, an example, a name, a date.
- Vary your questioning style between direct, probing, challenging, and hypothetical framings; do not reuse the style of your previous question.
- Never repeat a question or revisit ground already covered in this interview.`

// composeGuidance builds the instruction block injected ahead of the user
// history on a regular question turn. The running indices reflect the state
// after the turn has been counted, so the first topic question reads
// "question 2 of 70".
func (e *Engine) composeGuidance(st *models.ConversationState, interests []string) string {
	topic, _ := LookupTopic(st.CurrentTopic)

	var b strings.Builder
	fmt.Fprintf(&b, "Active topic: %s.\n", st.CurrentTopic)
	if topic.Guidance != "" {
		fmt.Fprintf(&b, "Topic guidance: %s\n", topic.Guidance)
	}
	if st.CurrentTopic == RapportTopic && len(interests) > 0 {
		fmt.Fprintf(&b, "The candidate has named %s as personal interests; draw on them.\n",
			strings.Join(interests, " and "))
	}
	fmt.Fprintf(&b, "Progress: question %d of %d overall, question %d of %d on this topic.\n",
		st.QuestionCount, e.questionLimit, st.QuestionsOnCurrentTopic, e.questionsPerTopic)
	b.WriteString(behavioralRules)
	return b.String()
}
