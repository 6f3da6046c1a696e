package agent

import (
	"regexp"
	"strings"

	"github.com/loopkit/linearbridge/internal/domain/session"
)

// keywordPrefixes maps the case-insensitive literal prefixes of the keyword
// protocol to activity kinds, in match order.
var keywordPrefixes = []struct {
	prefix string
	kind   session.ActivityKind
}{
	{"THINKING:", session.KindThought},
	{"ACTION:", session.KindAction},
	{"RESPONSE:", session.KindResponse},
	{"QUESTION:", session.KindElicitation},
	{"ERROR:", session.KindError},
}

// actionCallRe matches a call-like "name(parameter)" action body. The
// parameter capture is greedy so nested parentheses stay inside it.
var actionCallRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.-]*)\s*\((.*)\)$`)

// Classify turns one raw keyword-variant backend output into a typed
// activity. Output with no recognized prefix becomes a Response carrying the
// full trimmed text: unparseable output fails open to "final answer", never
// to a silent drop.
func Classify(raw string) session.Activity {
	text := strings.TrimSpace(raw)

	for _, p := range keywordPrefixes {
		if len(text) < len(p.prefix) || !strings.EqualFold(text[:len(p.prefix)], p.prefix) {
			continue
		}
		body := strings.TrimSpace(text[len(p.prefix):])
		if p.kind == session.KindAction {
			return classifyAction(body)
		}
		return session.Activity{Kind: p.kind, Body: body}
	}

	return session.Response(text)
}

// classifyAction parses the call-like "name(parameter)" pattern out of an
// ACTION body. A body that does not parse is downgraded to a Thought with
// the original text; a structurally invalid Action is never emitted.
func classifyAction(body string) session.Activity {
	m := actionCallRe.FindStringSubmatch(strings.TrimSpace(body))
	if m == nil {
		return session.Thought(body)
	}

	name := m[1]
	if arg := strings.TrimSpace(m[2]); arg != "" {
		return session.Action(name, &arg)
	}
	return session.Action(name, nil)
}
