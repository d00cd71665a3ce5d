package extract

import (
	"regexp"
	"strings"

	"annual-report-analyzer/internal/types"
)

// Matcher is one candidate pattern and the capture group holding its value.
type Matcher struct {
	Pattern *regexp.Regexp
	Group   int
}

// FirstMatch tries matchers in order and returns the first captured value.
// Blank captures count as no match.
func FirstMatch(text string, matchers []Matcher) (string, bool) {
	for _, m := range matchers {
		sub := m.Pattern.FindStringSubmatch(text)
		if m.Group >= len(sub) {
			continue
		}
		if v := strings.TrimSpace(sub[m.Group]); v != "" {
			return v, true
		}
	}
	return "", false
}

func m(expr string) Matcher {
	return Matcher{Pattern: regexp.MustCompile(expr), Group: 1}
}

const (
	currency = `(?:₹|Rs\.|INR|₨|₦|\$)?`
	amount   = `([\d,]+(?:\.\d+)?(?:/-)?)`
)

// Narrative sections capture from the heading cue to the next known cue or
// the end of the text. Case-insensitive, spanning lines.
var sectionMatchers = map[string][]Matcher{
	types.SectionMDA: {
		m(`(?is)(?:Management['’]?s?\s+(?:Discussion\s+)?(?:&|and)\s+(?:Analysis|Review)|MD&A|Operational Review|Directors['’]?\s+Report|Management Commentary)\s*(.*?)(?:Financial Statements|Notes to Accounts|Auditors['’]?\s+Report|\z)`),
	},
	types.SectionAuditorOpinion: {
		m(`(?is)(?:Independent )?Auditor['’]?s (?:Report|Opinion)\s*(.*?)(?:Notes|\z)`),
	},
	types.SectionRiskFactors: {
		m(`(?is)Risk Factors\s*(.*?)(?:Management|\z)`),
	},
}

// Metric candidates differ in phrasing and currency notation; the first hit wins.
var metricMatchers = map[string][]Matcher{
	types.MetricRevenue: {
		m(`(?im)Revenue\s+(?:from\s+(?:operations|sales)\s+)?(?:of\s+)?` + currency + `\s*` + amount),
		m(`(?im)Total\s+Revenue\s+(?:\(consolidated\)\s+)?(?:\(standalone\)\s+)?` + currency + `\s*` + amount),
		m(`(?im)Operating\s+Revenue\s+` + currency + `\s*` + amount),
	},
	types.MetricNetProfit: {
		m(`(?im)(?:Net\s+(?:Profit|Income)|Profit\s+After\s+Tax|Loss\s+After\s+Tax).*?` + currency + `\s*` + amount),
		m(`(?im)Profit\s+After\s+Tax[:\s]+(?:₹|Rs\.|INR|₨|₦|\$)\s*` + amount),
		m(`(?im)Net\s+Income\s+` + currency + `\s*` + amount),
	},
	types.MetricEBITDA: {
		m(`(?im)\bEBITDA\b\s*\(?(?:consolidated|standalone)?\)?[:\s]+` + currency + `\s*` + amount),
		m(`(?im)(?:Earnings\s+Before\s+Interest.*?Tax.*?Depreciation.*?Amortization)\s*[:\s]+` + currency + `\s*` + amount),
		m(`(?im)EBITDA\s+for\s+the\s+period\s+` + currency + amount),
		m(`(?im)Adjusted\s+EBITDA\s+` + currency + `\s*` + amount),
	},
	types.MetricTotalAssets: {
		m(`(?im)Total\s+Assets[:\s]+(?:\(consolidated\)\s+)?(?:\(standalone\)\s+)?` + currency + `\s*` + amount),
		m(`(?im)Net\s+worth\s+of\s+the\s+Company\s+` + currency + `\s*` + amount),
		m(`(?im)Gross\s+Assets\s+` + currency + amount),
		m(`(?im)Total\s+Non-Current\s+Assets\s+` + currency + `\s*` + amount),
	},
	types.MetricTotalLiabilities: {
		m(`(?im)Total\s+Liabilities[:\s]+(?:\(consolidated\)\s+)?(?:\(standalone\)\s+)?` + currency + `\s*` + amount),
		m(`(?im)Liabilities\s+and\s+Provisions\s+` + currency + amount),
		m(`(?im)Total\s+Non-Current\s+Liabilities\s+` + currency + `\s*` + amount),
	},
	types.MetricEPS: {
		m(`(?im)EPS[:\s]+` + amount),
		m(`(?im)Earnings\s+Per\s+Share[:\s]+` + amount),
		m(`(?im)Diluted\s+EPS[:\s]+` + currency + amount),
	},
}

var reportDateMatchers = []Matcher{
	m(`(?i)Annual Report\s*(\d{1,2}\s\w+\s\d{4})`),
	m(`(?i)Report Date:\s*(\d{1,2}/\d{1,2}/\d{4})`),
	m(`(?i)Year Ended\s*(\w+\s\d{4})`),
}

// Company-name candidates stay on one line.
var companyMatchers = []Matcher{
	m(`(?i)(?:Company|Name of Entity|Entity Name|To,|Dear Sir/Madam,)[ \t]*:[ \t]*([A-Za-z0-9 .,&-]+)`),
	m(`(?i)\bFor[ \t]+([A-Za-z0-9 .,&-]+?(?:Limited|Ltd\.?|Inc\.?|Corp\.?|Corporation|plc))\b`),
	m(`(?i)([A-Za-z0-9 .,&-]+?)[ \t]+Annual Report`),
}
