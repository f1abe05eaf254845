// Package dnt marks do-not-translate regions in HTML documents.
//
// A remote rule list names block scopes (e.g. "Hero"), a row/column address
// inside the block and an optional pattern such as
// "beginsWith(http://||https://)". Compile turns that list into a RuleSet
// keyed by DOM selector; Annotate walks a parsed document and sets
// translate="no" on every element (or its parent row) that qualifies.
//
// The selector grammar is the small one produced by BuildSelector. Selectors
// the engine cannot compile are skipped and reported, never fatal.
package dnt
