// Package tabular converts spreadsheet-style JSON documents to a nested
// HTML encoding that survives a trip through a translation service, and
// back.
//
// A document is either a single table or a multi-sheet document whose
// :names list fixes sheet order. Each sheet becomes
//
//	<div total=".." offset=".." limit=".." name=".." data-type="sheet">
//	  <div data-type="row"><span key="Key" data-type="col">value</span>...</div>
//	</div>
//
// under <body>. All values are text; numbers are not restored on decode.
package tabular
