// Package parser turns loosely structured one-line restaurant mentions
// ("1. Cactus bellevue", "Korea house - https://...") into queries.
//
// Parsing never fails: malformed or empty lines yield a best-effort query.
package parser

import (
	"regexp"
	"strings"
	"unicode"

	"go-restaurant-grid/pkg/models"
)

// DefaultLocation is used when a line carries no location token at all.
const DefaultLocation = "Bothell, WA"

var enumeration = regexp.MustCompile(`^\s*\d+[.)]\s*`)

// Rule is one step of the parsing chain. Apply reports false when the rule
// does not recognise the line's shape, handing it to the next rule.
type Rule struct {
	Name  string
	Apply func(line string, p *Parser) (name, hint string, ok bool)
}

// Parser applies its rules in order; the first matching rule wins.
type Parser struct {
	defaultLocation string
	rules           []Rule
}

type Option func(*Parser)

// WithDefaultLocation overrides the place used for single-token lines.
func WithDefaultLocation(location string) Option {
	return func(p *Parser) {
		if strings.TrimSpace(location) != "" {
			p.defaultLocation = location
		}
	}
}

// New returns a parser using DefaultRules.
func New(opts ...Option) *Parser {
	p := &Parser{defaultLocation: DefaultLocation, rules: DefaultRules()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultRules returns the parsing chain in precedence order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "dash", Apply: splitOnDash},
		{Name: "comma", Apply: splitOnComma},
		{Name: "trailing-token", Apply: splitTrailingToken},
	}
}

// Parse parses line with the default parser.
func Parse(line string) models.RestaurantQuery {
	return New().Parse(line)
}

// Parse strips a leading enumeration marker ("1.", "2)") and runs the rule
// chain. Extracted location hints are title-cased; the unknown sentinel and
// the configured default location are returned verbatim.
func (p *Parser) Parse(line string) models.RestaurantQuery {
	line = StripEnumeration(line)

	for _, rule := range p.rules {
		name, hint, ok := rule.Apply(line, p)
		if !ok {
			continue
		}
		if hint != models.UnknownLocation && hint != p.defaultLocation {
			hint = TitleCase(hint)
		}
		return models.RestaurantQuery{Name: name, LocationHint: hint}
	}
	return models.RestaurantQuery{Name: line, LocationHint: p.defaultLocation}
}

// Rules exposes the chain, in order, for inspection.
func (p *Parser) Rules() []Rule {
	return p.rules
}

// StripEnumeration removes surrounding space and a leading list marker.
func StripEnumeration(line string) string {
	return enumeration.ReplaceAllString(strings.TrimSpace(line), "")
}

func splitOnDash(line string, _ *Parser) (string, string, bool) {
	name, rest, found := strings.Cut(line, " - ")
	if !found {
		return "", "", false
	}
	rest = strings.TrimSpace(rest)
	if hasURLScheme(rest) {
		return strings.TrimSpace(name), models.UnknownLocation, true
	}
	return strings.TrimSpace(name), rest, true
}

func splitOnComma(line string, _ *Parser) (string, string, bool) {
	name, rest, found := strings.Cut(line, ",")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(name), strings.TrimSpace(rest), true
}

func splitTrailingToken(line string, p *Parser) (string, string, bool) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return line, p.defaultLocation, true
	}
	last := len(tokens) - 1
	return strings.Join(tokens[:last], " "), tokens[last], true
}

func hasURLScheme(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "http")
}

// TitleCase upper-cases the first letter of every run of letters and
// lower-cases the rest ("bellevue" -> "Bellevue", "o'neil" -> "O'Neil").
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		isLetter := unicode.IsLetter(r)
		switch {
		case isLetter && !prevLetter:
			b.WriteRune(unicode.ToUpper(r))
		case isLetter:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return b.String()
}
