package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/client/authflow"
	"github.com/dmitrijs2005/impacthands/internal/client/client"
	"github.com/dmitrijs2005/impacthands/internal/client/config"
	"github.com/dmitrijs2005/impacthands/internal/client/enroll"
	"github.com/dmitrijs2005/impacthands/internal/client/models"
	"github.com/dmitrijs2005/impacthands/internal/client/notify"
	"github.com/dmitrijs2005/impacthands/internal/client/profile"
	"github.com/dmitrijs2005/impacthands/internal/client/session"
	"github.com/dmitrijs2005/impacthands/internal/logging"
)

type App struct {
	config   *config.Config
	sessions *session.Manager
	api      client.AuthService
	auth     *authflow.Controller
	profile  *profile.Controller
	enroll   *enroll.Service
	notifier notify.Notifier
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp wires the client against the backend at c.ServerBaseURL, reading
// commands from stdin and printing to stdout.
func NewApp(c *config.Config) (*App, error) {
	if c.ServerBaseURL == "" {
		return nil, errors.New("server base URL is required")
	}
	log := logging.NewTextLogger(os.Stderr, slog.LevelWarn)
	return newApp(c, os.Stdin, os.Stdout, log), nil
}

func newApp(c *config.Config, in io.Reader, out io.Writer, log logging.Logger) *App {
	sessions := session.NewManager()
	api := client.NewHTTPClient(c.ServerBaseURL, sessions)
	n := notify.NewWriterNotifier(out)

	a := &App{
		config:   c,
		sessions: sessions,
		api:      api,
		notifier: n,
		log:      log,
		reader:   bufio.NewReader(in),
		out:      out,
	}
	a.profile = profile.NewController(api, api, api, sessions, n, log)
	a.auth = authflow.NewController(api, sessions, n, c.RedirectOrigin, a.onAuthenticated, log)
	a.enroll = enroll.NewService(api, sessions, n, log)

	sessions.OnEnd(a.onSessionEnd)
	return a
}

func (a *App) onAuthenticated(ctx context.Context, id models.Identity) {
	// failures are reported by the controller; "reload" retries
	_ = a.profile.OnIdentityEstablished(ctx, id)
}

func (a *App) onSessionEnd(reason session.EndReason) {
	a.auth.Reset()
	a.profile.End()
	if reason == session.Expired {
		a.notifier.Notify(notify.Toast{Kind: notify.Info, Title: "Session expired", Message: "Please sign in again."})
	}
}

// Run starts the session watcher and the REPL and blocks until the user
// exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.auth.Close()

	fmt.Fprintln(a.out, "Welcome to ImpactHands (type 'help' for commands)")

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.StartSessionWatcher(ctx, a.config.SessionCheckInterval)
	}()

	runREPL(ctx, a, a.getStatus, a.reader)

	cancel()
	<-done
}

func (a *App) isLoggedIn() bool {
	return a.sessions.Active()
}

// StartSessionWatcher asks the backend every interval whether the session
// is still accepted. A rejected session is expired by the HTTP client,
// which in turn resets both controllers. Interval <= 0 disables the check.
func (a *App) StartSessionWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkSession(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkSession(ctx context.Context) {
	if !a.sessions.Active() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := a.api.GetUser(ctx); err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			a.log.Warn(ctx, "session check: server unavailable", "error", err)
			return
		}
		a.log.Info(ctx, "session check failed", "error", err)
	}
}
