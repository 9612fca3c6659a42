package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"aether/internal/logger"
)

// RodConfig says how to reach Chrome.
type RodConfig struct {
	// ControlURL attaches to an already running browser. When empty, Bin is
	// launched (or rod picks a browser when Bin is empty too).
	ControlURL        string
	Bin               string
	Headless          bool
	NavigationTimeout time.Duration
}

// RodDriver keeps one Chrome page per tab.
type RodDriver struct {
	cfg     RodConfig
	browser *rod.Browser

	mu    sync.Mutex
	pages map[string]*rod.Page
}

// StartRod connects to (or launches) Chrome.
func StartRod(ctx context.Context, cfg RodConfig) (*RodDriver, error) {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}

	controlURL := cfg.ControlURL
	if controlURL == "" {
		launch := launcher.New().Headless(cfg.Headless)
		if cfg.Bin != "" {
			launch = launch.Bin(cfg.Bin)
		}
		u, err := launch.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	logger.Info("Browser connected", "control_url", controlURL)
	return &RodDriver{cfg: cfg, browser: browser, pages: make(map[string]*rod.Page)}, nil
}

func (r *RodDriver) Open(ctx context.Context, id, url string) error {
	page, err := r.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	r.mu.Lock()
	r.pages[id] = page
	r.mu.Unlock()
	return nil
}

func (r *RodDriver) page(id string) (*rod.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.pages[id]
	if !ok {
		return nil, fmt.Errorf("page for %s: %w", id, ErrTabNotFound)
	}
	return page, nil
}

// Load navigates the tab's page and waits for the load event.
func (r *RodDriver) Load(ctx context.Context, id, url string) (PageInfo, error) {
	page, err := r.page(id)
	if err != nil {
		return PageInfo{}, err
	}
	p := page.Context(ctx).Timeout(r.cfg.NavigationTimeout)
	if err := p.Navigate(url); err != nil {
		return PageInfo{}, err
	}
	if err := p.WaitLoad(); err != nil {
		logger.Warn("Page did not finish loading", "id", id, "url", url, "error", err)
	}

	info, err := page.Info()
	if err != nil || info == nil {
		return PageInfo{URL: url}, nil
	}
	return PageInfo{URL: info.URL, Title: info.Title}, nil
}

func (r *RodDriver) Activate(ctx context.Context, id string) error {
	page, err := r.page(id)
	if err != nil {
		return err
	}
	_, err = page.Activate()
	return err
}

func (r *RodDriver) ClosePage(ctx context.Context, id string) error {
	r.mu.Lock()
	page, ok := r.pages[id]
	delete(r.pages, id)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return page.Close()
}

// Shutdown closes every page and the browser.
func (r *RodDriver) Shutdown() error {
	r.mu.Lock()
	var errs []error
	for id, page := range r.pages {
		if err := page.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.pages, id)
	}
	r.mu.Unlock()

	if err := r.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	logger.Info("Browser shutdown complete")
	return errors.Join(errs...)
}
