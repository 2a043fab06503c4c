package interview

// Topic is one thematic bucket of probing prompts. The engine consumes the
// catalog purely as data; adding or removing topics never touches policy
// logic.
type Topic struct {
	Name     string
	Guidance string
}

// RapportTopic is the one topic whose guidance is flavored with the
// candidate's personal interests.
const RapportTopic = "hobbies and personal background"

var topics = []Topic{
	{
		Name:     "current affairs",
		Guidance: "Probe awareness of recent national and international developments. Ask for the candidate's own position on one ongoing issue and press them to defend it with facts, not headlines.",
	},
	{
		Name:     "ethics and integrity",
		Guidance: "Present everyday dilemmas of honesty, conflict of interest, and misuse of authority. Push past textbook answers: ask what the candidate would actually do, and what it would cost them.",
	},
	{
		Name:     "economy",
		Guidance: "Test working knowledge of inflation, employment, public finance, and trade-offs in economic policy. Prefer questions anchored in a concrete situation over definitions.",
	},
	{
		Name:     "polity and governance",
		Guidance: "Cover constitutional values, separation of powers, and how administration actually works on the ground. Ask about failures of governance and what the candidate would change.",
	},
	{
		Name:     "international relations",
		Guidance: "Explore the candidate's grasp of neighbouring-country relations, multilateral institutions, and strategic autonomy. Ask them to weigh competing national interests in one live scenario.",
	},
	{
		Name:     "science and technology",
		Guidance: "Ask how emerging technology touches ordinary citizens: benefits, risks, regulation. Challenge the candidate to explain one technical development in plain words.",
	},
	{
		Name:     "society and culture",
		Guidance: "Raise questions on social change, inequality, education, and cultural identity. Invite a personal observation first, then challenge its generality.",
	},
	{
		Name:     RapportTopic,
		Guidance: "Ease the pressure briefly. Ask about the candidate's interests and what they have learned from them, then connect one interest back to the demands of public service.",
	},
}

// Catalog returns the ordered topic registry. Callers receive a copy; the
// registry itself is immutable.
func Catalog() []Topic {
	out := make([]Topic, len(topics))
	copy(out, topics)
	return out
}

// LookupTopic finds a catalog entry by name.
func LookupTopic(name string) (Topic, bool) {
	for _, t := range topics {
		if t.Name == name {
			return t, true
		}
	}
	return Topic{}, false
}
