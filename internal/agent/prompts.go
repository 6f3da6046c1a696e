package agent

// DefaultPersona is the system prompt used when the deployment does not
// configure its own.
const DefaultPersona = "You are a software engineering agent working inside a Linear workspace. " +
	"You are assigned issues and asked follow-up questions in session threads. " +
	"Be concise, concrete, and honest about uncertainty."

// keywordProtocol teaches chat-only backends the prefix protocol the
// classifier parses. Appended to the persona for the keyword variant.
const keywordProtocol = "\n\nEvery reply must start with exactly one of these prefixes:\n" +
	"THINKING: <your reasoning about the next step>\n" +
	"ACTION: <name>(<parameter>) for an operation you are performing\n" +
	"RESPONSE: <your final answer to the user>\n" +
	"QUESTION: <a question you need the user to answer before continuing>\n" +
	"ERROR: <why you cannot proceed>\n" +
	"Reply with a single prefixed block per turn. RESPONSE, QUESTION and ERROR end the session turn."

// actionContinue is injected as a synthetic user message after an Action is
// posted on the keyword variant. Chat-only backends have no native notion of
// "action completed, proceed", so the nudge keeps them moving toward a
// RESPONSE.
const actionContinue = "The action has been recorded. Continue, and finish with a RESPONSE: block when you are done."

// emptySeedPlaceholder is the seed message used when a new session carries
// no issue title, no description, and no comment.
const emptySeedPlaceholder = "This session was started without an issue title, description, or comment. Ask the user what they would like you to do."

// Labels prefixed to the seed message sections built from a "created" event.
const (
	labelIssue       = "Issue: "
	labelDescription = "Description: "
	labelComment     = "Comment: "
)

// ackBody is the immediate acknowledgment thought posted before any backend
// call. Linear marks a session unresponsive when nothing is posted within a
// few seconds of the event, so this must always be the first post.
const ackBody = "Reading the issue and gathering context..."

// exhaustedBody is posted when the iteration cap is reached without a
// terminal activity.
const exhaustedBody = "I hit the step limit for this session before reaching an answer. " +
	"Please re-prompt with a narrower request so I can finish within budget."
