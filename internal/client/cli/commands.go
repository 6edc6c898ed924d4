package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/impacthands/internal/client/authflow"
	"github.com/dmitrijs2005/impacthands/internal/client/catalog"
	"github.com/dmitrijs2005/impacthands/internal/client/enroll"
	"github.com/dmitrijs2005/impacthands/internal/client/models"
	"github.com/dmitrijs2005/impacthands/internal/client/profile"
	"github.com/dmitrijs2005/impacthands/internal/filex"
)

// maxAvatarSize mirrors the storage limit of the backend.
const maxAvatarSize = 5 << 20

func (a *App) getStatus() string {
	if id, ok := a.sessions.Identity(); ok {
		return fmt.Sprintf("(%s %s)", id.Email, a.profile.Status().State)
	}
	st := a.auth.Status()
	switch {
	case st.State == authflow.AwaitingCode && st.Cooldown > 0:
		return fmt.Sprintf("(%s %s, resend in %ds)", st.Email, st.State, st.Cooldown)
	case st.State == authflow.AwaitingCode:
		return fmt.Sprintf("(%s %s)", st.Email, st.State)
	}
	return fmt.Sprintf("(%s)", st.State)
}

// Login asks for an email and mails a one-time code to it.
func (a *App) Login(ctx context.Context) error {
	if id, ok := a.sessions.Identity(); ok {
		fmt.Fprintf(a.out, "Already signed in as %s\n", id.Email)
		return nil
	}
	if st := a.auth.Status(); st.State == authflow.AwaitingCode {
		fmt.Fprintf(a.out, "A code was sent to %s; use 'code', 'resend' or 'change-email'\n", st.Email)
		return authflow.ErrWrongState
	}

	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	return a.report(a.auth.RequestCode(ctx, email))
}

// Code verifies the mailed code. Without an argument it is prompted for.
func (a *App) Code(ctx context.Context, code string) error {
	if a.auth.Status().State != authflow.AwaitingCode {
		fmt.Fprintln(a.out, "No code pending; use 'login' first")
		return authflow.ErrWrongState
	}
	if code == "" {
		var err error
		if code, err = GetCode(a.reader, a.out); err != nil {
			return err
		}
	}
	return a.report(a.auth.VerifyCode(ctx, a.auth.InputCode(code)))
}

func (a *App) Resend(ctx context.Context) error {
	err := a.auth.ResendCode(ctx)
	switch {
	case errors.Is(err, authflow.ErrCooldownActive):
		fmt.Fprintf(a.out, "You can resend in %d seconds\n", a.auth.Status().Cooldown)
	case errors.Is(err, authflow.ErrWrongState):
		fmt.Fprintln(a.out, "No code pending; use 'login' first")
	default:
		return a.report(err)
	}
	return err
}

func (a *App) ChangeEmail(ctx context.Context) error {
	if err := a.auth.ChangeEmail(); err != nil {
		fmt.Fprintln(a.out, "No code pending")
		return err
	}
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st := a.auth.Status()
	fmt.Fprintf(a.out, "sign-in:  %s\n", st.State)
	if st.State == authflow.AwaitingCode {
		fmt.Fprintf(a.out, "email:    %s\n", st.Email)
		fmt.Fprintf(a.out, "resend:   %ds\n", st.Cooldown)
	}
	if id, ok := a.sessions.Identity(); ok {
		ps := a.profile.Status()
		fmt.Fprintf(a.out, "user:     %s (%s)\n", id.Email, id.ID)
		fmt.Fprintf(a.out, "profile:  %s\n", ps.State)
		if ps.NewUser {
			fmt.Fprintln(a.out, "new user: yes")
		}
	}
	return nil
}

// Profile prints the profile, or the edit buffer while editing.
func (a *App) Profile(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	st := a.profile.Status()
	switch st.State {
	case profile.Loading:
		fmt.Fprintln(a.out, "Profile is loading; use 'reload' if it failed")
	case profile.NewEditing:
		fmt.Fprintln(a.out, "Welcome! Complete your profile with 'edit' and 'save'.")
		printForm(a.out, st.Form)
	case profile.Editing:
		fmt.Fprintln(a.out, "Editing (use 'save' or 'cancel'):")
		printForm(a.out, st.Form)
	case profile.Viewing:
		printRecord(a.out, st.Identity.Email, st.Record)
	}
	return nil
}

func (a *App) Reload(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	return a.report(a.profile.Reload(ctx))
}

// Edit opens the edit buffer and prompts for every field. Enter keeps a
// value and "-" clears it.
func (a *App) Edit(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	st := a.profile.Status()
	if st.State == profile.Viewing {
		if err := a.profile.BeginEdit(); err != nil {
			return a.report(err)
		}
		st = a.profile.Status()
	}
	if st.State != profile.Editing && st.State != profile.NewEditing {
		fmt.Fprintln(a.out, "Profile is not loaded yet")
		return profile.ErrWrongState
	}

	f := st.Form
	fields := []struct {
		prompt string
		value  *string
	}{
		{"Full name", &f.FullName},
		{"Username", &f.Username},
		{"Phone", &f.Phone},
		{"Date of birth (YYYY-MM-DD)", &f.DateOfBirth},
		{"Gender", &f.Gender},
		{"Street", &f.Street},
		{"City", &f.City},
		{"State", &f.State},
		{"Country", &f.Country},
		{"Postal code", &f.PostalCode},
		{"Bio", &f.Bio},
		{"Skills (comma separated)", &f.Skills},
		{"Interests (comma separated)", &f.Interests},
	}
	for _, fld := range fields {
		v, err := GetWithDefault(a.reader, fld.prompt, *fld.value, a.out)
		if err != nil {
			return err
		}
		*fld.value = v
	}

	err := a.profile.Edit(func(cur *profile.Form) {
		// the avatar may have been replaced while prompting
		f.AvatarURL = cur.AvatarURL
		*cur = f
	})
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Changes buffered; use 'save' to store them or 'cancel' to discard")
	return nil
}

func (a *App) Save(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	return a.report(a.profile.SaveProfile(ctx))
}

func (a *App) Cancel(ctx context.Context) error {
	if err := a.profile.CancelEdit(); err != nil {
		fmt.Fprintln(a.out, "Nothing to cancel")
		return err
	}
	return nil
}

// Avatar uploads the image at path as the profile picture.
func (a *App) Avatar(ctx context.Context, path string) error {
	if !a.requireLogin() {
		return nil
	}
	up, err := filex.ReadUpload(path, maxAvatarSize)
	if err != nil {
		fmt.Fprintf(a.out, "Cannot read %s: %v\n", path, err)
		return err
	}
	return a.report(a.profile.UploadAvatar(ctx, up.Data, up.ContentType))
}

// Events lists the catalog of the given kind.
func (a *App) Events(ctx context.Context, kind string) error {
	k, ok := catalog.ParseKind(kind)
	if !ok {
		fmt.Fprintln(a.out, "Unknown kind; use events, gigs or opportunities")
		return nil
	}
	for _, it := range catalog.List(k) {
		spots := ""
		switch {
		case it.Left > 0:
			spots = fmt.Sprintf("%d/%d spots left", it.Left, it.Spots)
		case it.Spots > 0:
			spots = fmt.Sprintf("%d slots", it.Spots)
		}
		fmt.Fprintf(a.out, "%3d. %-30s %-16s %-20s %s\n", it.ID, it.Title, it.Date, it.Location, spots)
	}
	return nil
}

// Enroll signs the user up for the catalog item kind/id, prompting for the
// form with prefilled contact details.
func (a *App) Enroll(ctx context.Context, kind, id string) error {
	if !a.requireLogin() {
		return nil
	}
	k, ok := catalog.ParseKind(kind)
	if !ok {
		fmt.Fprintln(a.out, "Unknown kind; use event, gig or opportunity")
		return nil
	}
	target, ok := catalog.Find(k, id)
	if !ok {
		fmt.Fprintf(a.out, "No %s with id %s\n", k, id)
		return nil
	}

	form, err := a.enroll.Prefill(ctx)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Enrolling in %q\n", target.Title)
	if form.FullName, err = GetWithDefault(a.reader, "Full name", form.FullName, a.out); err != nil {
		return err
	}
	if form.Email, err = GetWithDefault(a.reader, "Email", form.Email, a.out); err != nil {
		return err
	}
	if form.Phone, err = GetWithDefault(a.reader, "Phone", form.Phone, a.out); err != nil {
		return err
	}
	for _, q := range questions(k) {
		v, err := GetSimpleText(a.reader, q.prompt, a.out)
		if err != nil {
			return err
		}
		if q.key == "" {
			form.Message = v
			continue
		}
		if v != "" {
			if form.Details == nil {
				form.Details = map[string]string{}
			}
			form.Details[q.key] = v
		}
	}

	_, err = a.enroll.Submit(ctx, target, form)
	return a.report(err)
}

type question struct {
	key    string
	prompt string
}

// questions returns the kind-specific prompts. An empty key is the free-text
// message.
func questions(k models.Kind) []question {
	switch k {
	case models.KindGig:
		return []question{{"skills", "Relevant skills"}, {"availability", "Availability"}}
	case models.KindOpportunity:
		return []question{
			{"location", "Location"},
			{"experience", "Experience"},
			{"motivation", "Why do you want to join?"},
			{"availability", "Availability"},
		}
	}
	return []question{{"", "Message (optional)"}}
}

func (a *App) Enrollments(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	list, err := a.enroll.List(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No enrollments yet")
		return nil
	}
	for _, e := range list {
		fmt.Fprintf(a.out, "%-12s %-30s %s\n", e.Kind, e.TargetTitle, e.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	return a.report(a.profile.SignOut(ctx))
}

func (a *App) requireLogin() bool {
	if a.sessions.Active() {
		return true
	}
	fmt.Fprintln(a.out, "Not signed in; use 'login' first")
	return false
}

// report prints errors the controllers do not turn into toasts.
func (a *App) report(err error) error {
	switch {
	case err == nil:
	case errors.Is(err, authflow.ErrBusy), errors.Is(err, profile.ErrBusy), errors.Is(err, enroll.ErrBusy):
		fmt.Fprintln(a.out, "Please wait, the previous request is still running")
	case errors.Is(err, authflow.ErrWrongState), errors.Is(err, profile.ErrWrongState):
		fmt.Fprintln(a.out, "Not available right now")
	case errors.Is(err, enroll.ErrNotAuthenticated):
		fmt.Fprintln(a.out, "Not signed in; use 'login' first")
	}
	return err
}
