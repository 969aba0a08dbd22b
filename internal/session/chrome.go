package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Chrome is a Session backed by a chromedp-controlled browser.
type Chrome struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	logger  *zap.Logger
}

// NewChrome starts a browser. The returned session must be closed.
func NewChrome(parent context.Context, opts Options, logger *zap.Logger) (*Chrome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	allocOpts, creds, err := allocatorOptions(opts)
	if err != nil {
		return nil, err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	c := &Chrome{
		ctx: ctx,
		cancel: func() {
			ctxCancel()
			allocCancel()
		},
		timeout: opts.Timeout,
		logger:  logger,
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}

	if creds != nil {
		c.authenticateProxy(creds)
	}

	// Launch the browser eagerly so start-up failures surface here.
	if err := chromedp.Run(ctx); err != nil {
		c.cancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	if creds != nil {
		if err := chromedp.Run(ctx, fetch.Enable().WithHandleAuthRequests(true)); err != nil {
			c.cancel()
			return nil, fmt.Errorf("enable proxy auth: %w", err)
		}
	}

	return c, nil
}

func allocatorOptions(opts Options) ([]chromedp.ExecAllocatorOption, *url.Userinfo, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	if opts.Proxy == "" {
		return allocOpts, nil, nil
	}

	u, err := url.Parse(opts.Proxy)
	if err != nil || u.Host == "" {
		return nil, nil, fmt.Errorf("invalid proxy url %q", opts.Proxy)
	}

	// Chrome ignores credentials in --proxy-server; they are answered through
	// the fetch domain instead.
	allocOpts = append(allocOpts, chromedp.ProxyServer(u.Scheme+"://"+u.Host))
	return allocOpts, u.User, nil
}

func (c *Chrome) authenticateProxy(creds *url.Userinfo) {
	password, _ := creds.Password()
	username := creds.Username()

	chromedp.ListenTarget(c.ctx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *fetch.EventAuthRequired:
			go func() {
				err := chromedp.Run(c.ctx, fetch.ContinueWithAuth(ev.RequestID, &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseProvideCredentials,
					Username: username,
					Password: password,
				}))
				if err != nil {
					c.logger.Debug("proxy auth reply failed", zap.Error(err))
				}
			}()
		case *fetch.EventRequestPaused:
			go func() {
				if err := chromedp.Run(c.ctx, fetch.ContinueRequest(ev.RequestID)); err != nil {
					c.logger.Debug("continue paused request failed", zap.Error(err))
				}
			}()
		}
	})
}

func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	// Actions run on the browser context; the caller's context only bounds the wait.
	runCtx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (c *Chrome) Navigate(ctx context.Context, target string) error {
	c.logger.Debug("navigate", zap.String("url", target))
	if err := c.run(ctx, chromedp.Navigate(target), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	return nil
}

func (c *Chrome) Content(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page content: %w", err)
	}
	return html, nil
}

func (c *Chrome) FindElement(ctx context.Context, selector string) (Handle, error) {
	var nodes []*cdp.Node
	if err := c.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return Handle{}, fmt.Errorf("find %s: %w", selector, err)
	}
	if len(nodes) == 0 {
		return Handle{}, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return Handle{Selector: selector}, nil
}

func (c *Chrome) SetValue(ctx context.Context, h Handle, value string) error {
	if err := c.run(ctx, chromedp.SetValue(h.Selector, value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("set value on %s: %w", h.Selector, err)
	}
	return nil
}

// selectOptionsJS marks the wanted options of a <select> as selected, clears
// the others and fires input and change events. It evaluates to the number of
// selected options, or -1 when the selector matches nothing.
const selectOptionsJS = `(function(selector, wanted) {
	const el = document.querySelector(selector);
	if (!el) { return -1; }
	let selected = 0;
	for (const option of el.options) {
		option.selected = wanted.includes(option.value) || wanted.includes(option.text.trim());
		if (option.selected) { selected++; }
	}
	el.dispatchEvent(new Event("input", { bubbles: true }));
	el.dispatchEvent(new Event("change", { bubbles: true }));
	return selected;
})(%s, %s)`

func selectOptionsScript(selector string, values []string) (string, error) {
	sel, err := json.Marshal(selector)
	if err != nil {
		return "", err
	}
	if values == nil {
		values = []string{}
	}
	wanted, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(selectOptionsJS, sel, wanted), nil
}

func (c *Chrome) SelectOptions(ctx context.Context, h Handle, values []string) error {
	script, err := selectOptionsScript(h.Selector, values)
	if err != nil {
		return err
	}

	var selected int
	if err := c.run(ctx, chromedp.Evaluate(script, &selected)); err != nil {
		return fmt.Errorf("select options on %s: %w", h.Selector, err)
	}

	switch {
	case selected < 0:
		return fmt.Errorf("%w: %s", ErrElementNotFound, h.Selector)
	case selected == 0 && len(values) > 0:
		return fmt.Errorf("no option of %s matches %v", h.Selector, values)
	}
	return nil
}

func (c *Chrome) Click(ctx context.Context, h Handle) error {
	if err := c.run(ctx, chromedp.Click(h.Selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %s: %w", h.Selector, err)
	}
	return nil
}

func (c *Chrome) UploadFile(ctx context.Context, h Handle, path string) error {
	if err := c.run(ctx, chromedp.SetUploadFiles(h.Selector, []string{path}, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("upload %s to %s: %w", path, h.Selector, err)
	}
	return nil
}

func (c *Chrome) Close() error {
	c.cancel()
	return nil
}
