package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	DefaultPageURL           = "https://www.reddit.com/comments/%s"
	defaultNavigationTimeout = 45 * time.Second
)

type Config struct {
	// ControlURL attaches to an already running browser instead of launching one.
	ControlURL        string
	ExecPath          string
	Headless          bool
	PageURL           string
	NavigationTimeout time.Duration
}

func (c Config) pageURL(discussionID string) string {
	pattern := c.PageURL
	if pattern == "" {
		pattern = DefaultPageURL
	}
	if !strings.Contains(pattern, "%s") {
		return strings.TrimRight(pattern, "/") + "/" + discussionID
	}
	return fmt.Sprintf(pattern, discussionID)
}

func (c Config) navigationTimeout() time.Duration {
	if c.NavigationTimeout <= 0 {
		return defaultNavigationTimeout
	}
	return c.NavigationTimeout
}

// Browser keeps one page open on the discussion currently being recovered.
// Loading the page makes upstream mint a fresh live comment socket. The
// browser process starts on first Navigate.
type Browser struct {
	cfg Config

	launch  func(Config) (controlURL string, cleanup func(), err error)
	connect func(controlURL string) (*rod.Browser, error)

	mu      sync.Mutex
	cleanup func()
	browser *rod.Browser
	page    *rod.Page
	pageOf  string
}

var _ ports.RecoveryBrowser = (*Browser)(nil)

func New(cfg Config) *Browser {
	return &Browser{cfg: cfg, launch: launchLocal, connect: connectTo}
}

func launchLocal(cfg Config) (string, func(), error) {
	l := launcher.New().Headless(cfg.Headless)
	if cfg.ExecPath != "" {
		l = l.Bin(cfg.ExecPath)
	}
	url, err := l.Launch()
	if err != nil {
		l.Kill()
		return "", nil, err
	}
	return url, l.Cleanup, nil
}

func connectTo(controlURL string) (*rod.Browser, error) {
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, err
	}
	return browser, nil
}

func (b *Browser) Navigate(ctx context.Context, discussionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureStarted(); err != nil {
		return err
	}

	if b.page == nil {
		page, err := b.browser.Page(proto.TargetCreateTarget{})
		if err != nil {
			return fmt.Errorf("open recovery page: %w", err)
		}
		b.page = page
	}

	target := b.cfg.pageURL(discussionID)
	page := b.page.Context(ctx).Timeout(b.cfg.navigationTimeout())
	if err := page.Navigate(target); err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for %s: %w", target, err)
	}
	b.pageOf = discussionID
	return nil
}

// Refresh reloads the page opened by the last successful Navigate.
func (b *Browser) Refresh(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.page == nil || b.pageOf == "" {
		return fmt.Errorf("refresh: %w", domain.ErrRecoveryUnavailable)
	}

	page := b.page.Context(ctx).Timeout(b.cfg.navigationTimeout())
	if err := page.Reload(); err != nil {
		return fmt.Errorf("reload %s: %w", b.pageOf, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for %s: %w", b.pageOf, err)
	}
	return nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	if b.page != nil {
		if err := b.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close recovery page: %w", err))
		}
		b.page = nil
		b.pageOf = ""
	}
	// an attached browser belongs to someone else; only drop the connection
	if b.browser != nil && !b.attached() {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close recovery browser: %w", err))
		}
	}
	b.browser = nil
	b.releaseProcess()
	return errors.Join(errs...)
}

func (b *Browser) attached() bool {
	return b.cfg.ControlURL != ""
}

func (b *Browser) releaseProcess() {
	if b.cleanup != nil {
		b.cleanup()
		b.cleanup = nil
	}
}

func (b *Browser) ensureStarted() error {
	if b.browser != nil {
		if _, err := b.browser.Version(); err == nil {
			return nil
		}
		if !b.attached() {
			_ = b.browser.Close()
		}
		b.browser = nil
		b.page = nil
		b.pageOf = ""
	}
	b.releaseProcess()

	controlURL := b.cfg.ControlURL
	if !b.attached() {
		url, cleanup, err := b.launch(b.cfg)
		if err != nil {
			return fmt.Errorf("%w: launch: %w", domain.ErrRecoveryUnavailable, err)
		}
		b.cleanup = cleanup
		controlURL = url
	}

	browser, err := b.connect(controlURL)
	if err != nil {
		b.releaseProcess()
		return fmt.Errorf("%w: connect: %w", domain.ErrRecoveryUnavailable, err)
	}
	b.browser = browser
	return nil
}
