package dnt

import "strings"

// Wildcard addresses every position of a dimension.
const Wildcard = "*"

// NoBlockScope is the block scope for content that lives outside any block.
const NoBlockScope = "noblock"

// NoBlockSelector selects the top-level sections directly under the body.
const NoBlockSelector = "body > div"

// AddressRule locates cells inside a block. Each dimension is either
// Wildcard or a 1-based child index written as text.
type AddressRule struct {
	Column string
	Row    string
}

// BuildSelector derives the DOM selector for a block scope and address.
//
// When both dimensions are concrete the row and column steps are chained,
// which addresses the column-th child of the row-th child (a nested
// grandchild), not a cell of a two-dimensional grid.
func BuildSelector(scope string, rule AddressRule) string {
	if scope == NoBlockScope {
		return NoBlockSelector
	}

	block := "." + BlockClass(scope)
	row := dimension(rule.Row)
	column := dimension(rule.Column)
	if row == Wildcard && column == Wildcard {
		return block
	}
	return block + childStep(row) + childStep(column)
}

// BlockClass normalizes a human-readable block name into its CSS class:
// lowercase, with each run of Unicode whitespace (NBSP included) turned
// into a single hyphen.
func BlockClass(scope string) string {
	return strings.Join(strings.Fields(strings.ToLower(scope)), "-")
}

// dimension trims an address value; an empty value means Wildcard.
func dimension(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return Wildcard
	}
	return v
}

func childStep(index string) string {
	if index == Wildcard {
		return " > div"
	}
	return " > div:nth-child(" + index + ")"
}
