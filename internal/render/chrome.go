// internal/render/chrome.go
package render

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghost/internal/config"
)

// ChromeRenderer renders frames in a headless browser, so overlay markup
// and text are drawn for real. One browser is shared; each render gets
// its own tab.
type ChromeRenderer struct {
	mu            sync.Mutex
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	timeout       time.Duration
	logger        *zap.Logger
}

// execOptions translates the render config into chromedp allocator options.
func execOptions(cfg config.RenderConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	for _, arg := range cfg.ChromeFlags {
		arg = strings.TrimPrefix(arg, "--")
		if key, value, ok := strings.Cut(arg, "="); ok {
			opts = append(opts, chromedp.Flag(key, value))
			continue
		}
		opts = append(opts, chromedp.Flag(arg, true))
	}
	return opts
}

// NewChromeRenderer starts the browser. It is stopped by Close or when ctx
// is cancelled.
func NewChromeRenderer(ctx context.Context, cfg config.RenderConfig, logger *zap.Logger) (*ChromeRenderer, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, execOptions(cfg)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ChromeRenderer{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		timeout:       timeout,
		logger:        logger.Named("render.chrome"),
	}, nil
}

func (c *ChromeRenderer) Render(ctx context.Context, f Frame) ([]byte, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	browserCtx := c.browserCtx
	c.mu.Unlock()
	if browserCtx == nil {
		return nil, fmt.Errorf("render: browser is closed")
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	runCtx, cancel := context.WithTimeout(tabCtx, c.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	doc := Document(f)
	var shot []byte
	err := chromedp.Run(runCtx,
		chromedp.EmulateViewport(int64(f.Width), int64(f.Height)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.WaitReady("#stage", chromedp.ByQuery),
		chromedp.CaptureScreenshot(&shot),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("chrome render: %w", err)
	}
	c.logger.Debug("Rendered frame", zap.Int("objects", len(f.Objects)), zap.Int("bytes", len(shot)))
	return shot, nil
}

// Close stops the browser.
func (c *ChromeRenderer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browserCtx == nil {
		return
	}
	c.cancelBrowser()
	c.cancelAlloc()
	c.browserCtx = nil
}
