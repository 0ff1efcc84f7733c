package adapter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeLoader renders pages in headless Chrome, for careers pages that
// build their vacancy lists with JavaScript. Set CHROME_PATH to pick the
// browser binary.
type ChromeLoader struct {
	timeout time.Duration
	waitFor string // CSS selector that must be present before reading the DOM
}

// NewChromeLoader creates a loader. waitFor is usually the item selector;
// empty means "body".
func NewChromeLoader(timeout time.Duration, waitFor string) *ChromeLoader {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if waitFor == "" {
		waitFor = "body"
	}
	return &ChromeLoader{timeout: timeout, waitFor: waitFor}
}

func (l *ChromeLoader) Load(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if p := os.Getenv("CHROME_PATH"); p != "" {
		opts = append(opts, chromedp.ExecPath(p))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	runCtx, cancelRun := context.WithTimeout(cctx, l.timeout)
	defer cancelRun()

	var page string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady(l.waitFor, chromedp.ByQuery),
		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", pageURL, err)
	}
	return page, nil
}
