package querytable

import (
	"regexp"
	"strconv"
	"strings"
)

// Expr is a parsed filter expression.
type Expr interface {
	match(c cell) bool
}

// All places no restriction.
type All struct{}

// Literal matches text case-insensitively as a prefix of the value, so a
// bare kat also keeps katte and katastrofe. Quoting the token sets Exact and
// restores whole-value matching: "kat" keeps only kat.
type Literal struct {
	Text  string
	Exact bool
}

// Wildcard matches the whole value, with * standing for any run of runes.
type Wildcard struct {
	Pattern string
	re      *regexp.Regexp
}

type And struct{ Terms []Expr }

type Or struct{ Terms []Expr }

type Not struct{ Term Expr }

// Operand is a number or a date string, depending on the column kind.
type Operand struct {
	Num  float64
	Text string
}

// Range is inclusive at both ends.
type Range struct {
	Kind   Kind
	Lo, Hi Operand
}

type Op string

const (
	OpGT Op = ">"
	OpGE Op = ">="
	OpLT Op = "<"
	OpLE Op = "<="
	OpEQ Op = "="
	OpNE Op = "!="
)

type Comparison struct {
	Kind Kind
	Op   Op
	Arg  Operand
}

// Set matches any of a list of exact numbers. Null matches the Empty entry.
type Set struct {
	Values []float64
	Null   bool
}

// Prefix matches dates starting with any of the given days.
type Prefix struct {
	Values []string
}

func (All) match(cell) bool { return true }

func (l Literal) match(c cell) bool {
	if c.null {
		return l.Exact && l.Text == Empty
	}
	v := strings.ToLower(c.text)
	if l.Exact {
		return v == l.Text
	}
	return strings.HasPrefix(v, l.Text)
}

func (w Wildcard) match(c cell) bool {
	return w.re.MatchString(c.text)
}

func (a And) match(c cell) bool {
	for _, t := range a.Terms {
		if !t.match(c) {
			return false
		}
	}
	return true
}

func (o Or) match(c cell) bool {
	for _, t := range o.Terms {
		if t.match(c) {
			return true
		}
	}
	return false
}

func (n Not) match(c cell) bool { return !n.Term.match(c) }

func (r Range) match(c cell) bool {
	if c.null {
		return false
	}
	lo, hi := r.Lo, r.Hi
	if compareOperand(r.Kind, lo, hi) > 0 {
		lo, hi = hi, lo
	}
	return compareCell(r.Kind, c, lo) >= 0 && compareCell(r.Kind, c, hi) <= 0
}

func (cmp Comparison) match(c cell) bool {
	if c.null {
		return cmp.Op == OpNE
	}
	d := compareCell(cmp.Kind, c, cmp.Arg)
	switch cmp.Op {
	case OpGT:
		return d > 0
	case OpGE:
		return d >= 0
	case OpLT:
		return d < 0
	case OpLE:
		return d <= 0
	case OpEQ:
		return d == 0
	case OpNE:
		return d != 0
	}
	return true
}

func (s Set) match(c cell) bool {
	if c.null {
		return s.Null
	}
	for _, v := range s.Values {
		if c.num == v {
			return true
		}
	}
	return false
}

func (p Prefix) match(c cell) bool {
	for _, v := range p.Values {
		if strings.HasPrefix(c.text, v) {
			return true
		}
	}
	return false
}

func compareCell(kind Kind, c cell, o Operand) int {
	if kind == Number {
		return compareFloat(c.num, o.Num)
	}
	return strings.Compare(c.text, o.Text)
}

func compareOperand(kind Kind, a, b Operand) int {
	if kind == Number {
		return compareFloat(a.Num, b.Num)
	}
	return strings.Compare(a.Text, b.Text)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Match reports whether a raw value satisfies e for a column of the given
// kind.
func Match(e Expr, kind Kind, v any) bool {
	if e == nil {
		return true
	}
	return e.match(toCell(kind, v))
}

var opPattern = regexp.MustCompile(`^(>=|<=|!=|=|>|<)\s*(.+)$`)

// ParseFilter parses a raw filter expression for a column of the given
// kind. It never fails: anything it cannot make sense of places no
// restriction.
func ParseFilter(kind Kind, raw string) Expr {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return All{}
	}
	switch kind {
	case Number:
		return parseNumber(raw)
	case Date:
		return parseDate(raw)
	default:
		return parseText(raw)
	}
}

func parseNumber(raw string) Expr {
	if strings.Contains(raw, "|") && !strings.Contains(raw, "..") && !opPattern.MatchString(raw) {
		var s Set
		for _, part := range splitOr(raw) {
			part = unquote(part)
			if part == Empty {
				s.Null = true
				continue
			}
			if n, err := strconv.ParseFloat(part, 64); err == nil {
				s.Values = append(s.Values, n)
			}
		}
		if len(s.Values) == 0 && !s.Null {
			return All{}
		}
		return s
	}
	if lo, hi, ok := strings.Cut(raw, ".."); ok {
		a, errA := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		b, errB := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if errA != nil || errB != nil {
			return All{}
		}
		return Range{Kind: Number, Lo: Operand{Num: a}, Hi: Operand{Num: b}}
	}
	op, arg := OpEQ, unquote(raw)
	if m := opPattern.FindStringSubmatch(raw); m != nil {
		op, arg = Op(m[1]), strings.TrimSpace(m[2])
	}
	if arg == Empty && op == OpEQ {
		return Set{Null: true}
	}
	n, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return All{}
	}
	return Comparison{Kind: Number, Op: op, Arg: Operand{Num: n}}
}

func parseDate(raw string) Expr {
	if lo, hi, ok := strings.Cut(raw, ".."); ok {
		lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)
		if lo == "" || hi == "" {
			return All{}
		}
		return Range{Kind: Date, Lo: Operand{Text: lo}, Hi: Operand{Text: hi}}
	}
	if m := opPattern.FindStringSubmatch(raw); m != nil {
		return Comparison{Kind: Date, Op: Op(m[1]), Arg: Operand{Text: strings.TrimSpace(m[2])}}
	}
	parts := splitOr(raw)
	days := make([]string, 0, len(parts))
	for _, p := range parts {
		p = unquote(p)
		if !isPlainDate(p) {
			days = nil
			break
		}
		days = append(days, p)
	}
	if len(days) > 0 {
		return Prefix{Values: days}
	}
	return parseText(raw)
}

func isPlainDate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, r := range s {
		if i == 4 || i == 7 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseText(raw string) Expr {
	var groups []Expr
	for _, part := range splitOr(raw) {
		var terms []Expr
		for _, tok := range splitAnd(part) {
			if t := parseToken(tok); t != nil {
				terms = append(terms, t)
			}
		}
		switch len(terms) {
		case 0:
		case 1:
			groups = append(groups, terms[0])
		default:
			groups = append(groups, And{Terms: terms})
		}
	}
	switch len(groups) {
	case 0:
		return All{}
	case 1:
		return groups[0]
	}
	return Or{Terms: groups}
}

func parseToken(tok string) Expr {
	neg := false
	if strings.HasPrefix(tok, "!") {
		neg = true
		tok = strings.TrimSpace(tok[1:])
	}
	if tok == "" {
		return nil
	}
	var e Expr
	switch {
	case isQuoted(tok):
		e = Literal{Text: strings.ToLower(unquote(tok)), Exact: true}
	case strings.Contains(strings.ReplaceAll(tok, `\*`, ""), "*"):
		e = newWildcard(tok)
	default:
		e = Literal{Text: strings.ToLower(strings.ReplaceAll(tok, `\*`, "*"))}
	}
	if neg {
		return Not{Term: e}
	}
	return e
}

func newWildcard(tok string) Wildcard {
	var b strings.Builder
	b.WriteString("(?i)^")
	for i := 0; i < len(tok); i++ {
		switch {
		case tok[i] == '\\' && i+1 < len(tok) && tok[i+1] == '*':
			b.WriteString(`\*`)
			i++
		case tok[i] == '*':
			b.WriteString(".*")
		default:
			j := i
			for j < len(tok) && tok[j] != '*' && tok[j] != '\\' {
				j++
			}
			if j == i {
				j = i + 1
			}
			b.WriteString(regexp.QuoteMeta(tok[i:j]))
			i = j - 1
		}
	}
	b.WriteString("$")
	return Wildcard{Pattern: tok, re: regexp.MustCompile(b.String())}
}

// splitOr splits on | outside double quotes.
func splitOr(raw string) []string {
	return splitOutsideQuotes(raw, func(r rune) bool { return r == '|' })
}

// splitAnd splits on whitespace and & outside double quotes.
func splitAnd(raw string) []string {
	return splitOutsideQuotes(raw, func(r rune) bool {
		return r == '&' || r == ' ' || r == '\t' || r == '\n'
	})
}

func splitOutsideQuotes(raw string, sep func(rune) bool) []string {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, r := range raw {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case !inQuote && sep(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if isQuoted(s) {
		return s[1 : len(s)-1]
	}
	return s
}
