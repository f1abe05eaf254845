package locprep

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-locprep/internal/fileutil"
	"github.com/alnah/go-locprep/internal/process"
)

// documentRenderer renders a standalone HTML document to PDF.
type documentRenderer interface {
	Render(ctx context.Context, htmlContent string) ([]byte, error)
	Close() error
}

var _ documentRenderer = (*rodRenderer)(nil)

// paper describes the printed page in inches.
type paper struct {
	width, height float64
	margin        float64
	footer        float64 // bottom margin holding the page footer
}

// letterPaper is the layout of rendered previews.
var letterPaper = paper{width: 8.5, height: 11, margin: 0.5, footer: 0.75}

// footerTemplate prints the document title and page numbers. Chrome fills
// the title, pageNumber and totalPages classes.
const footerTemplate = `<div style="font-size:8px;width:100%;padding:0 0.5in;color:#666;display:flex;justify-content:space-between">` +
	`<span class="title"></span><span><span class="pageNumber"></span>/<span class="totalPages"></span></span></div>`

// rodRenderer implements documentRenderer using go-rod.
// Rod downloads Chromium on first use when no browser is found.
type rodRenderer struct {
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
	paper    paper
}

func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout, paper: letterPaper}
}

// newLauncher configures Chrome from the environment: ROD_BROWSER_BIN points
// at a pre-installed browser, and CI or a custom binary disable the sandbox.
func newLauncher() *launcher.Launcher {
	l := launcher.New()
	bin := os.Getenv("ROD_BROWSER_BIN")
	if bin != "" {
		l = l.Bin(bin)
	}
	if bin != "" || os.Getenv("CI") == "true" {
		l = l.NoSandbox(true)
	}
	return l
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := newLauncher()
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.launcher, r.browser = l, browser
	return browser, nil
}

// loadTimeout bounds page loading by the renderer timeout or the context
// deadline, whichever comes first.
func (r *rodRenderer) loadTimeout(ctx context.Context) (time.Duration, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return r.timeout, nil
	}
	left := time.Until(deadline)
	if left <= 0 {
		return 0, context.DeadlineExceeded
	}
	return min(left, r.timeout), nil
}

// Render writes htmlContent to a temp file, opens it in headless Chrome and
// prints it to PDF.
func (r *rodRenderer) Render(ctx context.Context, htmlContent string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + tmpPath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	timeout, err := r.loadTimeout(ctx)
	if err != nil {
		return nil, err
	}
	if err := page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	reader, err := page.Context(ctx).PDF(r.paper.printOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentRender, err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrDocumentRender, err)
	}
	return pdf, nil
}

// Close releases browser resources. The browser process group is killed
// in case Chrome left children behind.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	if pid := r.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	r.launcher.Kill()
	r.browser, r.launcher = nil, nil
	return err
}

func (p paper) printOptions() *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		PaperWidth:          floatPtr(p.width),
		PaperHeight:         floatPtr(p.height),
		MarginTop:           floatPtr(p.margin),
		MarginBottom:        floatPtr(p.footer),
		MarginLeft:          floatPtr(p.margin),
		MarginRight:         floatPtr(p.margin),
		PrintBackground:     true,
		DisplayHeaderFooter: true,
		HeaderTemplate:      "<span></span>",
		FooterTemplate:      footerTemplate,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
