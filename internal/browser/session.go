// File: internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/framescope/internal/config"
	"github.com/xkilldash9x/framescope/internal/observability"
)

// Session owns one browser process and one page target. Out-of-process
// iframe targets are attached on demand and detached as soon as the
// operation that needed them finishes.
type Session struct {
	id     string
	cfg    *config.Config
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	pageCtx     context.Context
	pageCancel  context.CancelFunc

	limiter *rate.Limiter
	main    *Executor
}

// NewSession launches the browser and opens a blank page target.
func NewSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	s := &Session{
		id:     uuid.New().String(),
		cfg:    cfg,
		logger: observability.GetLogger().Named("browser"),
	}
	if cfg.Protocol.MaxRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Protocol.MaxRPS), 1)
	}

	opts := buildAllocatorOptions(cfg.Browser)
	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	s.pageCtx, s.pageCancel = chromedp.NewContext(s.allocCtx)

	// Confirm the browser is alive before handing the session out.
	startCtx, cancelStart := context.WithTimeout(s.pageCtx, 30*time.Second)
	defer cancelStart()
	if err := chromedp.Run(startCtx, chromedp.Navigate("about:blank")); err != nil {
		s.pageCancel()
		s.allocCancel()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	s.main = newExecutor(s.pageCtx, cfg.Protocol, s.limiter, s.logger)
	s.logger.Info("Browser session established", zap.String("session_id", s.id))
	return s, nil
}

func buildAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	opts = append(opts,
		// Defaults cannot be filtered, so the automation banner flag is
		// overridden after the fact instead.
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("ignore-certificate-errors", cfg.IgnoreTLSErrors),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", cfg.Headless),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)

	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		flagName := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(flagName, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(flagName, true))
		}
	}

	// Required when running inside containers.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Navigate loads the given URL in the page target and waits for the
// configured settle period so late-arriving frames can register.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := CombineContext(s.pageCtx, ctx)
	defer cancel()
	navCtx, cancelNav := context.WithTimeout(navCtx, s.cfg.Browser.NavigationTimeout)
	defer cancelNav()

	s.logger.Info("Navigating", zap.String("url", url))
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %q failed: %w", url, err)
	}
	if wait := s.cfg.Browser.PostLoadWait; wait > 0 {
		select {
		case <-time.After(wait):
		case <-navCtx.Done():
			return navCtx.Err()
		}
	}
	return nil
}

// Executor returns the executor bound to the page target.
func (s *Session) Executor() *Executor { return s.main }

// FrameExecutor returns an executor that can reach the given frame, plus a
// release function the caller must invoke once the operation completes.
// Frames hosted by the page target share the main executor; frames promoted
// to their own targets get a temporary attachment that release tears down.
// A promoted frame's id doubles as its target id.
func (s *Session) FrameExecutor(ctx context.Context, frameID cdp.FrameID) (*Executor, func(), error) {
	promoted, err := s.framePromoted(ctx, frameID)
	if err != nil {
		return nil, nil, err
	}
	if !promoted {
		return s.main, func() {}, nil
	}

	attachCtx, cancel := chromedp.NewContext(s.pageCtx, chromedp.WithTargetID(target.ID(frameID)))
	if err := chromedp.Run(attachCtx); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("attach to frame target %s failed: %w", frameID, err)
	}

	exec := newExecutor(attachCtx, s.cfg.Protocol, s.limiter, s.logger)
	release := func() { cancel() }
	return exec, release, nil
}

// framePromoted reports whether the frame runs in its own target.
func (s *Session) framePromoted(ctx context.Context, frameID cdp.FrameID) (bool, error) {
	checkCtx, cancel := CombineContext(s.pageCtx, ctx)
	defer cancel()
	checkCtx, cancelCheck := context.WithTimeout(checkCtx, s.cfg.Protocol.CallTimeout)
	defer cancelCheck()

	var infos []*target.Info
	err := chromedp.Run(checkCtx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		infos, err = target.GetTargets().Do(c)
		return err
	}))
	if err != nil {
		return false, fmt.Errorf("target enumeration failed: %w", err)
	}
	for _, info := range infos {
		if info.Type == "iframe" && info.TargetID == target.ID(frameID) {
			return true, nil
		}
	}
	return false, nil
}

// Close tears down the page target and the browser process.
func (s *Session) Close() {
	s.logger.Info("Closing browser session", zap.String("session_id", s.id))
	if s.pageCancel != nil {
		s.pageCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}
