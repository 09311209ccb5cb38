// SPDX-License-Identifier: AGPL-3.0-only
package tools

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Browser is the headless control surface used by the page-platform
// fallback: launch, set cookies, navigate, evaluate, read text, close.
type Browser struct {
	ctx         context.Context
	ctxCancel   context.CancelFunc
	allocCancel context.CancelFunc
}

func OpenBrowser(parent context.Context, headless bool) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("headless", headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "en-US"),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	// Starts the browser process so later actions fail fast if launch
	// is impossible.
	if err := chromedp.Run(ctx); err != nil {
		ctxCancel()
		allocCancel()
		return nil, err
	}

	return &Browser{ctx: ctx, ctxCancel: ctxCancel, allocCancel: allocCancel}, nil
}

func (b *Browser) Close() {
	b.ctxCancel()
	b.allocCancel()
}

func (b *Browser) SetCookies(domain string, pairs []CookiePair) error {
	return chromedp.Run(b.ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, p := range pairs {
				err := network.SetCookie(p.Name, p.Value).
					WithDomain("." + domain).
					WithPath("/").
					WithSecure(true).
					WithHTTPOnly(false).
					Do(ctx)
				if err != nil {
					return err
				}
			}
			return nil
		}),
	)
}

// Navigate loads the URL and sleeps so rendered content settles before
// anything is read off the page.
func (b *Browser) Navigate(url string, settle time.Duration) error {
	return chromedp.Run(b.ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(settle),
	)
}

func (b *Browser) Evaluate(js string, out any) error {
	return chromedp.Run(b.ctx, chromedp.Evaluate(js, out))
}

func (b *Browser) PageText() (string, error) {
	var text string
	err := chromedp.Run(b.ctx, chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text))
	return text, err
}

func (b *Browser) PageHTML() (string, error) {
	var html string
	err := chromedp.Run(b.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (b *Browser) Location() (string, error) {
	var loc string
	err := chromedp.Run(b.ctx, chromedp.Location(&loc))
	return loc, err
}
