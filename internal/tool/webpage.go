package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mentat/internal/domain"

	"github.com/chromedp/chromedp"
)

const defaultWebPageTimeout = 20

// WebPageTool loads a URL in headless Chrome and returns the rendered page
// text. Rendering through a real browser picks up content that plain HTTP
// fetches miss on script-heavy pages.
type WebPageTool struct {
	timeoutSeconds int
	maxOutputBytes int
}

type WebPageConfig struct {
	TimeoutSeconds int
	MaxOutputBytes int
}

func NewWebPageTool(cfg WebPageConfig) *WebPageTool {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultWebPageTimeout
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = defaultMaxOutputBytes
	}
	return &WebPageTool{
		timeoutSeconds: cfg.TimeoutSeconds,
		maxOutputBytes: cfg.MaxOutputBytes,
	}
}

func (w *WebPageTool) Name() string { return "web_page" }

func (w *WebPageTool) Description() string {
	return "Fetch a web page and return its visible text content. Use for reading articles, documentation, or any URL."
}

func (w *WebPageTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"url": {Type: "string", Description: "The URL to fetch (must start with http:// or https://)"},
		},
		[]string{"url"},
	)
}

func (w *WebPageTool) Execute(ctx context.Context, args map[string]any, tc *domain.ToolContext) (string, error) {
	url := strings.TrimSpace(ArgsString(args, "url"))
	if url == "" {
		return "", fmt.Errorf("missing argument: url")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("invalid url: %s", url)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, time.Duration(w.timeoutSeconds)*time.Second)
	defer timeoutCancel()

	var title, text string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Title(&title),
		chromedp.Evaluate(`document.body.innerText || document.body.textContent || ''`, &text),
	)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}

	out := fmt.Sprintf("# %s\n\n%s", title, strings.TrimSpace(text))
	if len(out) > w.maxOutputBytes {
		out = out[:w.maxOutputBytes] + "\n... (output truncated)"
	}
	return out, nil
}

var _ domain.Tool = (*WebPageTool)(nil)
