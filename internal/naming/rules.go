package naming

import "strings"

// rule is one entry in the fixed semantic rule table evaluated against a
// field's kind and surrounding text, in priority order. A rule matches
// when its predicate holds; name is the resulting fully-qualified name.
type rule struct {
	desc      string
	predicate func(kind string, haystack string) bool
	name      string
}

var agreementWords = []string{"agree", "acknowledge", "consent", "certify", "authorize"}

var ruleTable = []rule{
	{
		desc:      "signature",
		predicate: func(kind, haystack string) bool { return kind == "signature" },
		name:      "signatures_owner",
	},
	{
		desc: "date",
		predicate: func(kind, haystack string) bool {
			return strings.Contains(haystack, "date")
		},
		name: "general_date",
	},
	{
		desc: "checkbox agreement",
		predicate: func(kind, haystack string) bool {
			if kind != "checkbox" {
				return false
			}
			for _, w := range agreementWords {
				if strings.Contains(haystack, w) {
					return true
				}
			}
			return false
		},
		name: "acknowledgment_agreement",
	},
	{
		desc: "name",
		predicate: func(kind, haystack string) bool {
			return kind == "text" && strings.Contains(haystack, "name")
		},
		name: "owner-information_name",
	},
	{
		desc: "address",
		predicate: func(kind, haystack string) bool {
			return kind == "text" && strings.Contains(haystack, "address")
		},
		name: "owner-information_address",
	},
	{
		desc: "phone",
		predicate: func(kind, haystack string) bool {
			return kind == "text" && (strings.Contains(haystack, "phone") || strings.Contains(haystack, "telephone"))
		},
		name: "contact_phone-number",
	},
}

// EvaluateRules runs the fixed semantic rule table over label+nearbyText
// for a field of the given kind, returning the first matching rule's
// name. For radio_group fields it derives the block token from label and
// builds selection_{block} ahead of the generic table.
func EvaluateRules(kind, label string, nearbyText []string) (name string, matched bool) {
	if kind == "radio_group" {
		token := NormalizeSegment(label, "choice")
		return "selection_" + token, true
	}

	haystack := strings.ToLower(label)
	for _, t := range nearbyText {
		haystack += " " + strings.ToLower(t)
	}

	for _, r := range ruleTable {
		if r.predicate(kind, haystack) {
			return r.name, true
		}
	}
	return "", false
}
