package authflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/client/client"
	"github.com/dmitrijs2005/impacthands/internal/client/models"
	"github.com/dmitrijs2005/impacthands/internal/client/notify"
	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/dmitrijs2005/impacthands/internal/logging"
)

// CooldownSeconds is how long a resend stays disabled after a code is sent.
const CooldownSeconds = 60

var (
	ErrEmptyEmail     = errors.New("email is required")
	ErrInvalidCode    = errors.New("invalid code")
	ErrBusy           = errors.New("operation already in progress")
	ErrCooldownActive = errors.New("resend is not available yet")
	ErrWrongState     = errors.New("operation not allowed in current state")
	ErrSuperseded     = errors.New("operation superseded")
)

// State is the position of the Controller in the sign-in flow.
type State int

const (
	EnteringEmail State = iota
	AwaitingCode
	Authenticated
)

func (s State) String() string {
	switch s {
	case AwaitingCode:
		return "awaiting-code"
	case Authenticated:
		return "authenticated"
	default:
		return "entering-email"
	}
}

// Auth is the part of the auth service the flow needs.
type Auth interface {
	SendCode(ctx context.Context, email, redirectTo string) error
	VerifyCode(ctx context.Context, email, code string) (models.AuthSession, error)
}

// Sessions receives the session created by a successful verification.
type Sessions interface {
	Establish(s models.AuthSession)
}

// Status is a consistent snapshot of the Controller.
type Status struct {
	State    State
	Email    string
	Cooldown int
	Code     string
}

type op int

const (
	opSend op = iota
	opVerify
)

// Controller implements the sign-in flow. It is safe for concurrent use.
type Controller struct {
	auth            Auth
	sessions        Sessions
	notifier        notify.Notifier
	redirectTo      string
	onAuthenticated func(ctx context.Context, id models.Identity)
	log             logging.Logger

	// newTicker is a test seam for time.NewTicker.
	newTicker func(d time.Duration) (<-chan time.Time, func())

	mu       sync.Mutex
	state    State
	email    string
	code     string
	cooldown int
	inflight map[op]bool
	// epoch changes whenever the pending verification is discarded, so
	// results of calls started before that are dropped.
	epoch      uint64
	stopTick   context.CancelFunc
	tickerDone chan struct{}
}

// NewController builds a Controller. onAuthenticated, when not nil, is
// called once per successful verification after the session is
// established.
func NewController(auth Auth, sessions Sessions, n notify.Notifier, redirectTo string,
	onAuthenticated func(ctx context.Context, id models.Identity), log logging.Logger) *Controller {
	return &Controller{
		auth:            auth,
		sessions:        sessions,
		notifier:        n,
		redirectTo:      redirectTo,
		onAuthenticated: onAuthenticated,
		log:             log.With("module", "authflow"),
		newTicker:       realTicker,
		inflight:        map[op]bool{},
	}
}

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{State: c.state, Email: c.email, Cooldown: c.cooldown, Code: c.code}
}

// InputCode replaces the code buffer with the digits of value, truncated to
// the code length, and returns the result.
func (c *Controller) InputCode(value string) string {
	var b strings.Builder
	for _, r := range value {
		if b.Len() == common.OTPLength {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.code = b.String()
	return c.code
}

// RequestCode mails a code to email and starts the resend cooldown.
func (c *Controller) RequestCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		c.notifier.Notify(notify.Toast{Kind: notify.Error, Title: "Error", Message: "Please enter your email address."})
		return ErrEmptyEmail
	}

	c.mu.Lock()
	if c.state != EnteringEmail {
		c.mu.Unlock()
		return ErrWrongState
	}
	epoch, err := c.beginLocked(opSend)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	return c.send(ctx, email, epoch)
}

// ResendCode mails a new code to the pending email. It does nothing while
// the cooldown is running.
func (c *Controller) ResendCode(ctx context.Context) error {
	c.mu.Lock()
	if c.state != AwaitingCode {
		c.mu.Unlock()
		return ErrWrongState
	}
	if c.cooldown > 0 {
		c.mu.Unlock()
		return ErrCooldownActive
	}
	email := c.email
	epoch, err := c.beginLocked(opSend)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	return c.send(ctx, email, epoch)
}

func (c *Controller) send(ctx context.Context, email string, epoch uint64) error {
	err := c.auth.SendCode(ctx, email, c.redirectTo)

	c.mu.Lock()
	c.inflight[opSend] = false
	if epoch != c.epoch {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		c.mu.Unlock()
		c.log.Warn(ctx, "send code failed", "error", err)
		c.notifier.Notify(notify.Toast{Kind: notify.Error, Title: "Error", Message: client.Message(err)})
		return err
	}
	c.state = AwaitingCode
	c.email = email
	c.code = ""
	c.startCooldownLocked()
	c.mu.Unlock()

	c.notifier.Notify(notify.Toast{Kind: notify.Success, Title: "OTP Sent!", Message: "Check your email for the verification code."})
	return nil
}

// VerifyCode exchanges code for a session. Codes that are not exactly six
// digits are rejected without a network call.
func (c *Controller) VerifyCode(ctx context.Context, code string) error {
	c.mu.Lock()
	if c.state != AwaitingCode {
		c.mu.Unlock()
		return ErrWrongState
	}
	if !validCode(code) {
		c.mu.Unlock()
		c.notifyInvalidCode()
		return ErrInvalidCode
	}
	email := c.email
	epoch, err := c.beginLocked(opVerify)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	s, err := c.auth.VerifyCode(ctx, email, code)

	c.mu.Lock()
	c.inflight[opVerify] = false
	if epoch != c.epoch {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		c.mu.Unlock()
		c.log.Warn(ctx, "verify code failed", "error", err)
		c.notifyInvalidCode()
		return fmt.Errorf("%w: %w", ErrInvalidCode, err)
	}
	done := c.stopCooldownLocked()
	c.epoch++
	c.state = Authenticated
	c.code = ""
	c.cooldown = 0
	c.mu.Unlock()
	wait(done)

	c.sessions.Establish(s)
	c.log.Info(ctx, "signed in", "user_id", s.Identity.ID)
	c.notifier.Notify(notify.Toast{Kind: notify.Success, Title: "Welcome!", Message: "You have been logged in successfully."})
	if c.onAuthenticated != nil {
		c.onAuthenticated(ctx, s.Identity)
	}
	return nil
}

// ChangeEmail discards the pending verification and returns to email entry.
func (c *Controller) ChangeEmail() error {
	c.mu.Lock()
	if c.state != AwaitingCode {
		c.mu.Unlock()
		return ErrWrongState
	}
	done := c.resetLocked()
	c.mu.Unlock()
	wait(done)
	return nil
}

// Reset returns to email entry from any state. It is called when the
// session ends.
func (c *Controller) Reset() {
	c.mu.Lock()
	done := c.resetLocked()
	c.mu.Unlock()
	wait(done)
}

// Close stops the cooldown task.
func (c *Controller) Close() {
	c.mu.Lock()
	done := c.stopCooldownLocked()
	c.mu.Unlock()
	wait(done)
}

func (c *Controller) resetLocked() chan struct{} {
	done := c.stopCooldownLocked()
	c.epoch++
	c.state = EnteringEmail
	c.email = ""
	c.code = ""
	c.cooldown = 0
	return done
}

func (c *Controller) beginLocked(o op) (uint64, error) {
	if c.inflight[o] {
		return 0, ErrBusy
	}
	c.inflight[o] = true
	return c.epoch, nil
}

func (c *Controller) notifyInvalidCode() {
	c.notifier.Notify(notify.Toast{Kind: notify.Error, Title: "Verification Failed", Message: "Invalid or expired code."})
}

func validCode(code string) bool {
	if len(code) != common.OTPLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
