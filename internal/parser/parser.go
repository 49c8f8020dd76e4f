// Package parser turns free-text bank messages into candidate transactions.
//
// Rules are tried in a fixed order and the first one that fires wins. Each
// rule is a predicate plus extractor and can be exercised on its own through
// Rules.
package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Directions reported by the parser.
const (
	DirectionExpense = "expense"
	DirectionEarning = "earning"
)

// FallbackCategory is used whenever a rule cannot capture a category phrase.
const FallbackCategory = "Others"

// IncomeCategory is the fixed category of bank credit messages.
const IncomeCategory = "Income"

// Result is one candidate transaction extracted from text.
type Result struct {
	Amount    decimal.Decimal `json:"amount"`
	Direction string          `json:"type"`
	Category  string          `json:"category"`
	Rule      string          `json:"rule"`
}

// Match pairs a Result with the raw line it came from.
type Match struct {
	Raw string `json:"raw"`
	Result
}

// Rule is a single predicate+extractor pair.
type Rule struct {
	Name    string
	Extract func(text string) (Result, bool)
}

const (
	amountPattern   = `(\d+(?:\.\d+)?)`
	currencyPattern = `(?:\brs\.?|\binr|₹)\s*`

	maxFractionDigits = 2
)

var (
	thousandsRe = regexp.MustCompile(`(\d),(\d)`)

	debitRe = regexp.MustCompile(`(?i)` + currencyPattern + amountPattern +
		`\s+(?:has\s+been\s+|was\s+|is\s+)?(?:debited|spent|paid|withdrawn|used)\b(.*)$`)
	debitPhraseRe = regexp.MustCompile(`(?i)\b(?:for|at|to|towards|on)\s+`)

	upiKeywordRe  = regexp.MustCompile(`(?i)\bupi\b`)
	upiAmountRe   = regexp.MustCompile(`(?i)` + currencyPattern + amountPattern)
	upiPhraseRe   = regexp.MustCompile(`(?i)\b(?:to|from)\s+`)
	creditWordsRe = regexp.MustCompile(`(?i)\b(?:credited|received|deposited)\b`)

	creditAfterRe = regexp.MustCompile(`(?i)` + currencyPattern + amountPattern +
		`\s+(?:has\s+been\s+|was\s+|is\s+)?(?:credited|received|added|deposited)\b`)
	creditBeforeRe = regexp.MustCompile(`(?i)\b(?:credited|received|deposited)\s+(?:with\s+|of\s+)?` +
		currencyPattern + amountPattern)

	spendVerbRe = regexp.MustCompile(`(?i)\b(?:spent|paid|buy|bought)\s+(?:` + currencyPattern + `)?` +
		amountPattern + `\s+(?:at|on|for)\s+([A-Za-z][\w&']*)`)
	earnVerbRe = regexp.MustCompile(`(?i)\b(?:received|salary|got|earned)\s+(?:` + currencyPattern + `)?` +
		amountPattern + `\s+(?:from|for)\s+([A-Za-z][\w&']*)`)

	anyNumberRe = regexp.MustCompile(amountPattern)
)

// words that end a captured category phrase
var stopWords = map[string]bool{
	"on": true, "at": true, "for": true, "via": true, "using": true, "ref": true,
	"refno": true, "avl": true, "avbl": true, "bal": true, "balance": true,
	"info": true, "from": true, "dated": true, "date": true, "is": true,
	"if": true, "not": true, "call": true, "txn": true, "upi": true,
	"a/c": true, "ac": true, "acct": true, "and": true, "by": true,
	"with": true, "thru": true, "through": true, "in": true, "to": true,
}

// phrases starting with one of these describe the account, not the payee
var accountWords = map[string]bool{
	"card": true, "a/c": true, "ac": true, "acct": true, "account": true,
	"your": true, "ur": true,
}

// Rules returns the parser rules in priority order.
func Rules() []Rule {
	return []Rule{
		{Name: "debit", Extract: matchDebit},
		{Name: "upi", Extract: matchUPI},
		{Name: "credit", Extract: matchCredit},
		{Name: "verb", Extract: matchVerb},
		{Name: "number", Extract: matchAnyNumber},
	}
}

var rules = Rules()

// Parse runs the rules against one message. ok is false when nothing fired.
func Parse(text string) (Result, bool) {
	text = Normalize(text)
	if text == "" {
		return Result{}, false
	}
	for _, r := range rules {
		res, ok := r.Extract(text)
		if !ok || !res.Amount.IsPositive() {
			continue
		}
		res.Rule = r.Name
		return res, true
	}
	return Result{}, false
}

// ParseBulk parses every non-empty line of text and keeps the matches in
// input order.
func ParseBulk(text string) []Match {
	var out []Match
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		res, ok := Parse(line)
		if !ok {
			continue
		}
		out = append(out, Match{Raw: line, Result: res})
	}
	return out
}

// Normalize trims the text and removes thousands separators between digits.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	for {
		next := thousandsRe.ReplaceAllString(text, "$1$2")
		if next == text {
			return text
		}
		text = next
	}
}

// ---------- rules ----------

func matchDebit(text string) (Result, bool) {
	m := debitRe.FindStringSubmatch(text)
	if m == nil {
		return Result{}, false
	}
	amount, ok := parseAmount(m[1])
	if !ok {
		return Result{}, false
	}
	return Result{
		Amount:    amount,
		Direction: DirectionExpense,
		Category:  phraseAfter(m[2], debitPhraseRe),
	}, true
}

func matchUPI(text string) (Result, bool) {
	if !upiKeywordRe.MatchString(text) || creditWordsRe.MatchString(text) {
		return Result{}, false
	}
	m := upiAmountRe.FindStringSubmatch(text)
	if m == nil {
		m = anyNumberRe.FindStringSubmatch(text)
	}
	if m == nil {
		return Result{}, false
	}
	amount, ok := parseAmount(m[1])
	if !ok {
		return Result{}, false
	}
	return Result{
		Amount:    amount,
		Direction: DirectionExpense,
		Category:  phraseAfter(text, upiPhraseRe),
	}, true
}

func matchCredit(text string) (Result, bool) {
	m := creditAfterRe.FindStringSubmatch(text)
	if m == nil {
		m = creditBeforeRe.FindStringSubmatch(text)
	}
	if m == nil {
		return Result{}, false
	}
	amount, ok := parseAmount(m[1])
	if !ok {
		return Result{}, false
	}
	return Result{Amount: amount, Direction: DirectionEarning, Category: IncomeCategory}, true
}

func matchVerb(text string) (Result, bool) {
	if m := spendVerbRe.FindStringSubmatch(text); m != nil {
		if amount, ok := parseAmount(m[1]); ok {
			return Result{Amount: amount, Direction: DirectionExpense, Category: titleCase(m[2])}, true
		}
	}
	if m := earnVerbRe.FindStringSubmatch(text); m != nil {
		if amount, ok := parseAmount(m[1]); ok {
			return Result{Amount: amount, Direction: DirectionEarning, Category: titleCase(m[2])}, true
		}
	}
	return Result{}, false
}

// matchAnyNumber fires on any digit run, so unrelated numeric text is
// reported as an expense. Callers review bulk results before committing.
func matchAnyNumber(text string) (Result, bool) {
	m := anyNumberRe.FindStringSubmatch(text)
	if m == nil {
		return Result{}, false
	}
	amount, ok := parseAmount(m[1])
	if !ok {
		return Result{}, false
	}
	return Result{Amount: amount, Direction: DirectionExpense, Category: FallbackCategory}, true
}

// ---------- helpers ----------

// parseAmount rejects more than two decimal places instead of truncating.
func parseAmount(s string) (decimal.Decimal, bool) {
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > maxFractionDigits {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// phraseAfter returns the first usable category phrase that follows one of
// the keywords matched by re, or FallbackCategory.
func phraseAfter(text string, re *regexp.Regexp) string {
	for _, loc := range re.FindAllStringIndex(text, -1) {
		phrase := text[loc[1]:]
		first := strings.ToLower(firstWord(phrase))
		if first == "" || accountWords[first] {
			continue
		}
		if c := cleanCategory(phrase); c != "" {
			return c
		}
	}
	return FallbackCategory
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,:;!-")
}

// cleanCategory keeps the leading words of a phrase up to the first stop
// word or digit-bearing token, at most three words, title-cased.
func cleanCategory(phrase string) string {
	var kept []string
	for _, tok := range strings.Fields(phrase) {
		tok = strings.Trim(tok, ".,:;!()\"-")
		if tok == "" {
			break
		}
		if stopWords[strings.ToLower(tok)] || strings.ContainsAny(tok, "0123456789@/") {
			break
		}
		kept = append(kept, tok)
		if len(kept) == 3 {
			break
		}
	}
	return titleCase(strings.Join(kept, " "))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
