// Package classifier maps a question to a query category and a retrieval
// width using ordered keyword rules. No LLM call, no I/O: the same question
// always classifies the same way.
package classifier

import (
	"regexp"
	"strings"

	"policyassist/types"
)

// Rule precedence encodes intent specificity: gap phrasing beats scenario
// phrasing beats summary phrasing beats numeric phrasing. The final rule
// matches everything, so classification never falls through.
var rules = []rule{
	{
		pattern: regexp.MustCompile(`\b(is there a policy|does the document|does it mention|` +
			`is there any mention|is there information|does the company have|` +
			`do they have a policy|does it cover|is .* covered|` +
			`not mentioned|not covered|missing policy)\b`),
		label:  types.PolicyGap,
		topK:   3,
		reason: "Question asks whether a topic is covered in the document.",
	},
	{
		pattern: regexp.MustCompile(`\b(if i|what if|what happens|suppose|suppose i|scenario|case where|` +
			`i was|i am|i have|i missed|i submitted|i failed to|i did not|` +
			`employee who|worker who|staff who|can i|am i eligible|will i|` +
			`would i|is it allowed|is it permissible|can an employee)\b`),
		label:  types.ScenarioAnalysis,
		topK:   7,
		reason: "Question describes a hypothetical or real-world scenario.",
	},
	{
		pattern: regexp.MustCompile(`\b(summarize|summary|overview|outline|briefly|what does .* say|` +
			`give me an overview|describe the|explain the|what is the .* section|` +
			`what are the main points|key points|highlights)\b`),
		label:  types.SummaryRequest,
		topK:   10,
		reason: "Question asks for a summary or overview.",
	},
	{
		pattern: regexp.MustCompile(`\b(how much|how many|maximum|minimum|limit|rate|amount|percentage|` +
			`reimbursement|salary|allowance|days|hours|quota|cap|ceiling|floor|` +
			`penalty|fine|fee|cost|price|budget)\b`),
		label:  types.NumericLookup,
		topK:   4,
		reason: "Question asks for a numeric value or limit.",
	},
}

type rule struct {
	pattern *regexp.Regexp
	label   types.QueryLabel
	topK    int
	reason  string
}

// Classify returns the query class for a question. Matching is
// case-insensitive; the first rule that matches wins.
func Classify(question string) types.QueryClass {
	q := strings.ToLower(strings.TrimSpace(question))

	for _, r := range rules {
		if r.pattern.MatchString(q) {
			return types.QueryClass{Label: r.label, TopK: r.topK, Reason: r.reason}
		}
	}

	return types.QueryClass{
		Label:  types.FactualLookup,
		TopK:   5,
		Reason: "General factual policy question.",
	}
}
