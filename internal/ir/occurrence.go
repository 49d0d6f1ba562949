package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// OccurrenceKind enumerates the cardinality constraint shapes.
type OccurrenceKind uint8

const (
	Once OccurrenceKind = iota
	NoneOrOnce
	NoneOrMore
	OnceOrMore
	Exactly
	Range
	NoneOrUpTo
	OnceOrUpTo
)

var occurrenceKindNames = [...]string{
	Once:       "once",
	NoneOrOnce: "none_or_once",
	NoneOrMore: "none_or_more",
	OnceOrMore: "once_or_more",
	Exactly:    "exactly",
	Range:      "range",
	NoneOrUpTo: "none_or_up_to",
	OnceOrUpTo: "once_or_up_to",
}

func (k OccurrenceKind) String() string {
	if int(k) < len(occurrenceKindNames) {
		return occurrenceKindNames[k]
	}
	return fmt.Sprintf("occurrence(%d)", uint8(k))
}

// Occurrence is a repetition constraint attached to a reference from an
// operation to a declaration.
//
// Lo and Hi are only meaningful for the parameterised kinds: Exactly uses Lo,
// Range uses Lo and Hi, NoneOrUpTo and OnceOrUpTo use Hi.
type Occurrence struct {
	Kind OccurrenceKind
	Lo   uint16
	Hi   uint16
}

// Shorthands for the unit kinds.
var (
	OccOnce       = Occurrence{Kind: Once}
	OccNoneOrOnce = Occurrence{Kind: NoneOrOnce}
	OccNoneOrMore = Occurrence{Kind: NoneOrMore}
	OccOnceOrMore = Occurrence{Kind: OnceOrMore}
)

// Constructors for the parameterised kinds.
func OccExactly(n uint16) Occurrence { return Occurrence{Kind: Exactly, Lo: n} }
func OccRange(lo, hi uint16) Occurrence { return Occurrence{Kind: Range, Lo: lo, Hi: hi} }
func OccNoneOrUpTo(n uint16) Occurrence { return Occurrence{Kind: NoneOrUpTo, Hi: n} }
func OccOnceOrUpTo(n uint16) Occurrence { return Occurrence{Kind: OnceOrUpTo, Hi: n} }

// MinValue returns the minimal number of items the occurrence demands.
func (o Occurrence) MinValue() uint16 {
	switch o.Kind {
	case Once, OnceOrMore, OnceOrUpTo:
		return 1
	case Exactly, Range:
		return o.Lo
	default:
		return 0
	}
}

// MaxValue returns the maximal number of items the occurrence admits.
// The second result is false for unbounded occurrences.
func (o Occurrence) MaxValue() (uint16, bool) {
	switch o.Kind {
	case Once, NoneOrOnce:
		return 1, true
	case NoneOrMore, OnceOrMore:
		return 0, false
	case Exactly:
		return o.Lo, true
	default:
		return o.Hi, true
	}
}

// AllowsMultiple reports whether more than one item may be supplied.
func (o Occurrence) AllowsMultiple() bool {
	hi, bounded := o.MaxValue()
	return !bounded || hi > 1
}

// String renders the grammar sugar used by the textual interface form.
// Once renders as the empty string.
func (o Occurrence) String() string {
	switch o.Kind {
	case Once:
		return ""
	case NoneOrOnce:
		return "(?)"
	case NoneOrMore:
		return "(*)"
	case OnceOrMore:
		return "(+)"
	case NoneOrUpTo:
		return fmt.Sprintf("(..%d)", o.Hi)
	case OnceOrUpTo:
		return fmt.Sprintf("(1..%d)", o.Hi)
	case Exactly:
		return fmt.Sprintf("(%d)", o.Lo)
	case Range:
		return fmt.Sprintf("(%d..%d)", o.Lo, o.Hi)
	default:
		return fmt.Sprintf("(!%d)", uint8(o.Kind))
	}
}

// ParseOccurrence parses occurrence sugar, with or without the surrounding
// parentheses. "" and "once" denote Once. "1..n" parses as OnceOrUpTo and
// "..n" as NoneOrUpTo, so Range(1..n) does not round-trip through text.
func ParseOccurrence(s string) (Occurrence, error) {
	body := strings.TrimSpace(s)
	if strings.HasPrefix(body, "(") && strings.HasSuffix(body, ")") {
		body = strings.TrimSpace(body[1 : len(body)-1])
	}

	switch body {
	case "", "once":
		return OccOnce, nil
	case "?":
		return OccNoneOrOnce, nil
	case "*":
		return OccNoneOrMore, nil
	case "+":
		return OccOnceOrMore, nil
	}

	lo, hi, isRange := strings.Cut(body, "..")
	if !isRange {
		n, err := parseBound(body)
		if err != nil {
			return Occurrence{}, fmt.Errorf("invalid occurrence %q: %w", s, err)
		}
		return OccExactly(n), nil
	}

	upper, err := parseBound(hi)
	if err != nil {
		return Occurrence{}, fmt.Errorf("invalid occurrence %q: upper bound: %w", s, err)
	}
	switch lo {
	case "":
		return OccNoneOrUpTo(upper), nil
	case "1":
		return OccOnceOrUpTo(upper), nil
	}
	lower, err := parseBound(lo)
	if err != nil {
		return Occurrence{}, fmt.Errorf("invalid occurrence %q: lower bound: %w", s, err)
	}
	return OccRange(lower, upper), nil
}

func parseBound(s string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}

// MarshalText renders the occurrence sugar without parentheses; Once is
// written as "once" so that the text is never empty.
func (o Occurrence) MarshalText() ([]byte, error) {
	if o.Kind == Once {
		return []byte("once"), nil
	}
	s := o.String()
	return []byte(s[1 : len(s)-1]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Occurrence) UnmarshalText(text []byte) error {
	parsed, err := ParseOccurrence(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// MarshalJSON keeps Range(1..n) exact, which the sugar cannot express.
func (o Occurrence) MarshalJSON() ([]byte, error) {
	if o.Kind == Range {
		return json.Marshal(fmt.Sprintf("range:%d..%d", o.Lo, o.Hi))
	}
	text, err := o.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Occurrence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if rest, ok := strings.CutPrefix(s, "range:"); ok {
		lo, hi, found := strings.Cut(rest, "..")
		if !found {
			return fmt.Errorf("invalid range occurrence %q", s)
		}
		lower, err := parseBound(lo)
		if err != nil {
			return fmt.Errorf("invalid range occurrence %q: %w", s, err)
		}
		upper, err := parseBound(hi)
		if err != nil {
			return fmt.Errorf("invalid range occurrence %q: %w", s, err)
		}
		*o = OccRange(lower, upper)
		return nil
	}
	return o.UnmarshalText([]byte(s))
}
