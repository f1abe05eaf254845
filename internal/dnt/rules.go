package dnt

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalidRuleList indicates the rule source body is not valid JSON.
var ErrInvalidRuleList = errors.New("invalid DNT rule list")

// Match conditions.
const (
	ConditionExists     = "exists"
	ConditionEquals     = "equals"
	ConditionBeginsWith = "beginsWith"
)

// Actions.
const (
	ActionDNT    = "dnt"     // mark the matched element
	ActionDNTRow = "dnt-row" // mark the matched element's parent
)

// InlineLinkSelector addresses links directly inside top-level sections.
const InlineLinkSelector = "body > div > a"

// Operation is one match rule attached to a selector.
type Operation struct {
	Condition string
	Match     []string // empty for ConditionExists
	Action    string
}

// RuleRecord is one row of the remote rule list.
type RuleRecord struct {
	BlockScope string // comma-separated block names
	Pattern    string // "", "*" or "condition(v1||v2)"
	Action     string
	Row        string
	Column     string
}

// RuleList is the remote rule list: a sheet whose data rows are RuleRecords.
type RuleList struct {
	Data []RuleRecord
}

// ParseRuleList reads a rule list from its JSON form ({"data":[...]}).
// Non-string cell values are read as their text form.
func ParseRuleList(data []byte) (*RuleList, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidRuleList
	}

	list := &RuleList{}
	gjson.GetBytes(data, "data").ForEach(func(_, rec gjson.Result) bool {
		list.Data = append(list.Data, RuleRecord{
			BlockScope: rec.Get("block_scope").String(),
			Pattern:    rec.Get("pattern").String(),
			Action:     rec.Get("action").String(),
			Row:        rec.Get("row").String(),
			Column:     rec.Get("column").String(),
		})
		return true
	})
	return list, nil
}

// RuleSet maps selectors to their operations. Operations for a selector
// keep their arrival order.
type RuleSet struct {
	selectors []string
	ops       map[string][]Operation
}

// NewRuleSet returns an empty RuleSet. An empty set is valid and annotates
// nothing.
func NewRuleSet() *RuleSet {
	return &RuleSet{ops: make(map[string][]Operation)}
}

// Add appends op to the operations of selector.
func (s *RuleSet) Add(selector string, op Operation) {
	if _, ok := s.ops[selector]; !ok {
		s.selectors = append(s.selectors, selector)
	}
	s.ops[selector] = append(s.ops[selector], op)
}

// Selectors returns the selectors in first-seen order.
func (s *RuleSet) Selectors() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.selectors))
	copy(out, s.selectors)
	return out
}

// Operations returns the operations registered for selector.
func (s *RuleSet) Operations(selector string) []Operation {
	if s == nil {
		return nil
	}
	return s.ops[selector]
}

// Len returns the number of distinct selectors.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.selectors)
}

// Compile builds a RuleSet from a rule list. The inline-link rule, which
// protects absolute URLs written as link text, is always appended.
// A nil list compiles to the inline-link rule alone.
func Compile(list *RuleList) *RuleSet {
	set := NewRuleSet()
	if list != nil {
		for _, rec := range list.Data {
			condition, match := ParsePattern(rec.Pattern)
			addr := AddressRule{Column: rec.Column, Row: rec.Row}
			for _, scope := range strings.Split(rec.BlockScope, ",") {
				scope = strings.TrimSpace(scope)
				if scope == "" {
					continue
				}
				set.Add(BuildSelector(scope, addr), Operation{
					Condition: condition,
					Match:     match,
					Action:    rec.Action,
				})
			}
		}
	}
	set.Add(InlineLinkSelector, Operation{
		Condition: ConditionBeginsWith,
		Match:     []string{"http://", "https://"},
		Action:    ActionDNT,
	})
	return set
}

// ParsePattern splits "condition(v1||v2)" into its condition and values.
// An empty pattern, "*", or one without a "(" followed by ")" yields
// ConditionExists and no values.
func ParsePattern(pattern string) (string, []string) {
	if pattern == "" || pattern == Wildcard {
		return ConditionExists, nil
	}
	open := strings.Index(pattern, "(")
	end := strings.Index(pattern, ")")
	if open < 0 || end < open {
		return ConditionExists, nil
	}

	values := strings.Split(pattern[open+1:end], "||")
	for i, v := range values {
		values[i] = strings.TrimSpace(v)
	}
	return strings.TrimSpace(pattern[:open]), values
}
