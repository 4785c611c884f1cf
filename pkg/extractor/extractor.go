package extractor

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"label-intake-api/internal/models"
)

// explicitSeparators may follow a label anywhere on a line. A label that is
// followed only by whitespace counts at the start of a line, or mid-line
// when it is distinctive (see distinctive).
const explicitSeparators = ":#="

const valueLeadTrim = " \t:#=-."

const valueTailTrim = " \t.,;:|-_"

type labelPattern struct {
	field Field
	label string
	re    *regexp.Regexp
}

// Extractor turns raw OCR text into candidate identity fields.
type Extractor struct {
	patterns []labelPattern
	classes  []Class
	fallback models.Classification
}

// New compiles a rule table.
func New(rs *RuleSet) (*Extractor, error) {
	if rs == nil {
		return nil, fmt.Errorf("rule table required")
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	e := &Extractor{
		classes: rs.Classes,
		fallback: models.Classification{
			ItemType: rs.Fallback.ItemType,
			Category: rs.Fallback.Category,
		},
	}
	if e.fallback.ItemType == "" {
		e.fallback.ItemType = models.DefaultItemType
	}
	if e.fallback.Category == "" {
		e.fallback.Category = "Unknown"
	}
	for _, rule := range rs.Rules {
		seen := map[string]bool{}
		for _, label := range rule.Labels {
			label = strings.TrimSpace(label)
			key := strings.ToLower(label)
			if seen[key] {
				continue
			}
			seen[key] = true
			re, err := regexp.Compile(`(?i)` + labelExpr(label))
			if err != nil {
				return nil, fmt.Errorf("compile label %q: %w", label, err)
			}
			e.patterns = append(e.patterns, labelPattern{field: rule.Field, label: label, re: re})
		}
	}
	return e, nil
}

// Default returns an extractor over the embedded rule table.
func Default() *Extractor {
	rs, err := ParseRuleSet(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("embedded rule table: %v", err))
	}
	e, err := New(rs)
	if err != nil {
		panic(fmt.Sprintf("embedded rule table: %v", err))
	}
	return e
}

// labelExpr lets any run of whitespace inside a label match any run in the
// text, so "Serial  Number" still matches "Serial Number".
func labelExpr(label string) string {
	parts := strings.Fields(label)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(parts, `\s+`)
}

type occurrence struct {
	field      Field
	start      int
	labelEnd   int
	valueStart int
}

// Extract never fails. Fields that are not found are nil.
func (e *Extractor) Extract(raw string) models.ExtractedFields {
	lines := splitLines(raw)
	found := make([][]occurrence, len(lines))
	for i, line := range lines {
		found[i] = e.scanLine(line)
	}

	values := map[Field]string{}
	for i, line := range lines {
		occ := found[i]
		for j, o := range occ {
			if _, ok := values[o.field]; ok {
				continue
			}
			end := len(line)
			if j+1 < len(occ) {
				end = occ[j+1].start
			}
			value := ""
			if o.valueStart < end {
				value = normalize(line[o.valueStart:end])
			}
			if value == "" && j == len(occ)-1 {
				value = e.valueOnNextLine(lines, found, i)
			}
			if value == "" {
				continue
			}
			values[o.field] = value
		}
	}

	return models.ExtractedFields{
		Model:        fieldPtr(values, FieldModel),
		Serial:       fieldPtr(values, FieldSerial),
		PartNumber:   fieldPtr(values, FieldPartNumber),
		Manufacturer: fieldPtr(values, FieldManufacturer),
	}
}

// valueOnNextLine handles labels printed above their value. The next
// non-empty line is used unless it starts with a label of its own.
func (e *Extractor) valueOnNextLine(lines []string, found [][]occurrence, i int) string {
	for k := i + 1; k < len(lines); k++ {
		if strings.TrimSpace(lines[k]) == "" {
			continue
		}
		for _, o := range found[k] {
			if strings.TrimSpace(lines[k][:o.start]) == "" {
				return ""
			}
		}
		end := len(lines[k])
		if len(found[k]) > 0 {
			end = found[k][0].start
		}
		return normalize(lines[k][:end])
	}
	return ""
}

func (e *Extractor) scanLine(line string) []occurrence {
	var occ []occurrence
	for _, p := range e.patterns {
		for _, m := range p.re.FindAllStringIndex(line, -1) {
			if o, ok := checkOccurrence(line, p.label, m[0], m[1]); ok {
				o.field = p.field
				occ = append(occ, o)
			}
		}
	}
	sort.SliceStable(occ, func(a, b int) bool {
		if occ[a].start != occ[b].start {
			return occ[a].start < occ[b].start
		}
		return occ[a].labelEnd > occ[b].labelEnd
	})
	kept := occ[:0]
	lastEnd := -1
	for _, o := range occ {
		if o.start < lastEnd {
			continue
		}
		kept = append(kept, o)
		lastEnd = o.labelEnd
	}
	return kept
}

func checkOccurrence(line, label string, start, end int) (occurrence, bool) {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(line[:start])
		if isWordRune(r) {
			return occurrence{}, false
		}
	}
	if end < len(line) {
		r, _ := utf8.DecodeRuneInString(line[end:])
		if isWordRune(r) {
			return occurrence{}, false
		}
	}
	rest := line[end:]
	afterSpace := strings.TrimLeft(rest, " \t")
	explicit := afterSpace != "" && strings.ContainsRune(explicitSeparators, rune(afterSpace[0]))
	atLineStart := strings.TrimSpace(line[:start]) == ""
	spaced := afterSpace != "" && len(afterSpace) < len(rest)
	if !explicit && !atLineStart && !(spaced && distinctive(label, line[start:end])) {
		return occurrence{}, false
	}
	valueStart := end + len(rest) - len(strings.TrimLeft(rest, valueLeadTrim))
	return occurrence{start: start, labelEnd: end, valueStart: valueStart}, true
}

// distinctive reports whether a label may stand mid-line without a
// separator: it has inner punctuation ("S/N") or several words ("Part
// No"), or it is an upper-case label matched in its exact case ("SN").
func distinctive(label, matched string) bool {
	if strings.ContainsFunc(label, func(r rune) bool { return !isWordRune(r) }) {
		return true
	}
	return label == strings.ToUpper(label) && matched == label
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func normalize(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	v = strings.TrimLeft(v, valueLeadTrim)
	return strings.TrimRight(v, valueTailTrim)
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	return strings.Split(raw, "\n")
}

func fieldPtr(values map[Field]string, f Field) *string {
	v, ok := values[f]
	if !ok {
		return nil
	}
	return &v
}
