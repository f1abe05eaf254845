// Package locprep prepares web content for a translation service.
//
// # Quick Start
//
// Create a localizer, prepare a page, and close when done:
//
//	l := locprep.NewLocalizer(
//	    locprep.WithRulesURL("https://example.com/configs/dnt-config-v2.json"),
//	    locprep.WithMediaBaseURL("https://main--site--org.hlx.page"),
//	)
//	defer l.Close()
//
//	page, err := l.PreparePage(ctx, "https://example.com/products/overview")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(page.HTML)     // elements to keep untranslated carry translate="no"
//	fmt.Println(page.Markdown) // the same content as Markdown
//
// # Page Pipeline
//
//  1. Fetch <path>.plain.html and <path>.md (any failure aborts the run)
//  2. Render the page metadata table of the Markdown as a block
//  3. Compile the DNT rule list and annotate the combined HTML
//  4. Point ./media_ references at the media base URL
//  5. Convert to Markdown, and to PDF through headless Chrome when enabled
//
// An unreachable rule list is logged and the page is prepared without
// annotations.
//
// # Sheets
//
// PrepareSheet encodes a JSON table as sheet/row/col divisions the
// translation service can process. RestoreSheet decodes the translated
// HTML back into JSON and a workbook:
//
//	sheet, err := l.PrepareSheet(ctx, "https://example.com/placeholders.json")
//	// ... translate sheet.HTML ...
//	restored, err := l.RestoreSheet(translated)
//	err = restored.Workbook.SaveAs("placeholders.xlsx")
//
// # Parallel Processing
//
// For batches of pages, LocalizerPool hands out Localizers that each own a
// browser:
//
//	pool := locprep.NewLocalizerPool(4, opts...)
//	defer pool.Close()
//
//	l := pool.Acquire()
//	defer pool.Release(l)
package locprep
