// Package profile loads, shows and edits the signed-in user's profile.
package profile

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/client/client"
	"github.com/dmitrijs2005/impacthands/internal/client/models"
	"github.com/dmitrijs2005/impacthands/internal/client/notify"
	"github.com/dmitrijs2005/impacthands/internal/logging"
)

var (
	ErrNameRequired = errors.New("full name is required")
	ErrBusy         = errors.New("operation already in progress")
	ErrWrongState   = errors.New("operation not allowed in current state")
	ErrSuperseded   = errors.New("operation superseded")
)

type State int

const (
	Inactive State = iota
	Loading
	NewEditing
	Viewing
	Editing
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case NewEditing:
		return "new-editing"
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	default:
		return "inactive"
	}
}

func (s State) editing() bool { return s == Editing || s == NewEditing }

// Store is the profile part of the data store.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error
}

// SignOuter invalidates the session at the auth service.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

// Sessions is the local session the controller tears down on sign-out.
type Sessions interface {
	Destroy()
}

// Status is a snapshot of the controller. Record and Form are copies.
type Status struct {
	State    State
	Identity models.Identity
	Record   *models.Profile
	Form     Form
	NewUser  bool
}

type op int

const (
	opFetch op = iota
	opUpload
	opSave
	opSignOut
)

// Controller implements the profile session. It is safe for concurrent use.
type Controller struct {
	store    Store
	avatars  client.BlobStore
	auth     SignOuter
	sessions Sessions
	notifier notify.Notifier
	log      logging.Logger

	// now is a test seam for the avatar cache buster.
	now func() time.Time

	mu       sync.Mutex
	state    State
	identity models.Identity
	record   *models.Profile
	form     Form
	newUser  bool
	inflight map[op]bool
	// epoch changes when the identity does; results of requests started
	// under an older epoch are discarded.
	epoch uint64
}

func NewController(store Store, avatars client.BlobStore, auth SignOuter, sessions Sessions,
	n notify.Notifier, log logging.Logger) *Controller {
	return &Controller{
		store:    store,
		avatars:  avatars,
		auth:     auth,
		sessions: sessions,
		notifier: n,
		log:      log.With("module", "profile"),
		now:      time.Now,
		inflight: map[op]bool{},
	}
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:    c.state,
		Identity: c.identity,
		Record:   c.record.Clone(),
		Form:     c.form,
		NewUser:  c.newUser,
	}
}

// OnIdentityEstablished starts a session for id and fetches its profile.
func (c *Controller) OnIdentityEstablished(ctx context.Context, id models.Identity) error {
	c.mu.Lock()
	c.epoch++
	c.inflight = map[op]bool{}
	c.identity = id
	c.record = nil
	c.form = Form{}
	c.newUser = false
	c.state = Loading
	epoch, err := c.beginLocked(opFetch)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	return c.fetch(ctx, id, epoch, Loading)
}

// Reload repeats the profile fetch, typically after it failed. When the
// fetch fails the controller goes back to the state it was in.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Loading && c.state != Viewing {
		c.mu.Unlock()
		return ErrWrongState
	}
	prev := c.state
	id := c.identity
	epoch, err := c.beginLocked(opFetch)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = Loading
	c.mu.Unlock()

	return c.fetch(ctx, id, epoch, prev)
}

// fetch loads the profile of id. On failure the state is set back to prev.
func (c *Controller) fetch(ctx context.Context, id models.Identity, epoch uint64, prev State) error {
	p, err := c.store.GetProfile(ctx, id.ID)

	c.mu.Lock()
	if !c.endLocked(opFetch, epoch) {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		c.state = prev
		c.mu.Unlock()
		c.log.Warn(ctx, "fetch profile failed", "user_id", id.ID, "error", err)
		c.fail(err)
		return err
	}
	if p.IsNew() {
		c.state = NewEditing
		c.newUser = true
		c.record = p
		c.form = Form{Email: id.Email}
	} else {
		c.state = Viewing
		c.newUser = false
		c.record = p
		c.form = Form{}
	}
	c.mu.Unlock()
	return nil
}

// BeginEdit copies the displayed record into the edit buffer.
func (c *Controller) BeginEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Viewing {
		return ErrWrongState
	}
	c.form = formFrom(c.record, c.identity.Email)
	c.state = Editing
	return nil
}

// CancelEdit discards the edit buffer.
func (c *Controller) CancelEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Editing {
		return ErrWrongState
	}
	c.form = Form{}
	c.state = Viewing
	return nil
}

// Edit applies fn to the edit buffer.
func (c *Controller) Edit(fn func(f *Form)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.editing() {
		return ErrWrongState
	}
	email := c.form.Email
	fn(&c.form)
	c.form.Email = email
	return nil
}

// UploadAvatar stores data as the user's avatar and immediately saves the
// new URL on its own, independent of the rest of the form.
func (c *Controller) UploadAvatar(ctx context.Context, data []byte, contentType string) error {
	c.mu.Lock()
	if !c.state.editing() {
		c.mu.Unlock()
		return ErrWrongState
	}
	id := c.identity
	epoch, err := c.beginLocked(opUpload)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	url, err := c.uploadAndPersist(ctx, id.ID, epoch, data, contentType)

	c.mu.Lock()
	if !c.endLocked(opUpload, epoch) {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		c.mu.Unlock()
		c.log.Warn(ctx, "avatar upload failed", "user_id", id.ID, "error", err)
		c.fail(err)
		return err
	}
	c.form.AvatarURL = url
	if c.record != nil {
		c.record.AvatarURL = url
	}
	c.mu.Unlock()

	c.notifier.Notify(notify.Toast{Kind: notify.Success, Title: "Avatar Updated", Message: "Your new photo has been saved."})
	return nil
}

func (c *Controller) uploadAndPersist(ctx context.Context, userID string, epoch uint64, data []byte, contentType string) (string, error) {
	path := userID + "/avatar"
	if err := c.avatars.Upload(ctx, path, data, contentType, true); err != nil {
		return "", err
	}
	if !c.current(epoch) {
		return "", ErrSuperseded
	}
	url := c.avatars.PublicURL(path) + "?t=" + strconv.FormatInt(c.now().UnixNano(), 10)
	if err := c.store.UpdateProfile(ctx, userID, models.ProfilePatch{AvatarURL: &url}); err != nil {
		return "", err
	}
	return url, nil
}

// SaveProfile writes the edit buffer except the avatar URL. The full name
// must not be blank.
func (c *Controller) SaveProfile(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.editing() {
		c.mu.Unlock()
		return ErrWrongState
	}
	if strings.TrimSpace(c.form.FullName) == "" {
		c.mu.Unlock()
		c.notifier.Notify(notify.Toast{Kind: notify.Error, Title: "Error", Message: "Full name is required."})
		return ErrNameRequired
	}
	id := c.identity
	rec := c.form.record(id.ID)
	epoch, err := c.beginLocked(opSave)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	// the avatar is persisted by UploadAvatar alone, so an upload finishing
	// while this save is in flight is not overwritten
	patch := models.FullPatch(rec)
	patch.AvatarURL = nil
	err = c.store.UpdateProfile(ctx, id.ID, patch)

	c.mu.Lock()
	if !c.endLocked(opSave, epoch) {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		c.mu.Unlock()
		c.log.Warn(ctx, "save profile failed", "user_id", id.ID, "error", err)
		c.fail(err)
		return err
	}
	rec.AvatarURL = c.form.AvatarURL
	c.record = rec
	c.form = Form{}
	c.newUser = false
	c.state = Viewing
	c.mu.Unlock()

	c.notifier.Notify(notify.Toast{Kind: notify.Success, Title: "Profile Updated", Message: "Your profile has been saved successfully."})
	return nil
}

// SignOut ends the session at the auth service and locally. The local
// session is destroyed even when the service call fails.
func (c *Controller) SignOut(ctx context.Context) error {
	c.mu.Lock()
	if c.state == Inactive {
		c.mu.Unlock()
		return ErrWrongState
	}
	if _, err := c.beginLocked(opSignOut); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	err := c.auth.SignOut(ctx)
	if err != nil {
		c.log.Warn(ctx, "sign out failed", "error", err)
	}
	c.sessions.Destroy()
	c.End()

	if err != nil && !errors.Is(err, client.ErrUnauthorized) {
		c.fail(err)
		return err
	}
	c.notifier.Notify(notify.Toast{Kind: notify.Info, Title: "Signed out"})
	return nil
}

// End discards the identity and the record and returns to Inactive. It is
// called when the session ends for any reason.
func (c *Controller) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.inflight = map[op]bool{}
	c.identity = models.Identity{}
	c.record = nil
	c.form = Form{}
	c.newUser = false
	c.state = Inactive
}

func (c *Controller) beginLocked(o op) (uint64, error) {
	if c.inflight[o] {
		return 0, ErrBusy
	}
	c.inflight[o] = true
	return c.epoch, nil
}

// endLocked clears the in-flight mark and reports whether epoch is still
// current.
func (c *Controller) endLocked(o op, epoch uint64) bool {
	if epoch != c.epoch {
		return false
	}
	c.inflight[o] = false
	return true
}

func (c *Controller) current(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return epoch == c.epoch
}

func (c *Controller) fail(err error) {
	c.notifier.Notify(notify.Toast{Kind: notify.Error, Title: "Error", Message: client.Message(err)})
}
