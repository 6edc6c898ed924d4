package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Code(ctx context.Context, code string) error
	Resend(ctx context.Context) error
	ChangeEmail(ctx context.Context) error
	Status(ctx context.Context) error
	Profile(ctx context.Context) error
	Reload(ctx context.Context) error
	Edit(ctx context.Context) error
	Save(ctx context.Context) error
	Cancel(ctx context.Context) error
	Avatar(ctx context.Context, path string) error
	Events(ctx context.Context, kind string) error
	Enroll(ctx context.Context, kind, id string) error
	Enrollments(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the ImpactHands client.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF, when ctx is done, or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                 - show available commands
//	  - login                - ask for an email and mail a code
//	  - code [digits]        - enter the mailed code
//	  - resend               - mail a new code once the cooldown is over
//	  - change-email         - start over with another email
//	  - events [kind]        - list events, gigs or opportunities
//	  - exit | quit          - leave the program
//
//	Logged in:
//	  - status               - show the session and profile state
//	  - profile              - show the profile
//	  - reload               - fetch the profile again
//	  - edit                 - edit profile fields
//	  - save                 - save the edited profile
//	  - cancel               - discard edits
//	  - avatar <path>        - upload a profile picture
//	  - enroll <kind> <id>   - sign up for an event, gig or opportunity
//	  - enrollments          - list your sign-ups
//	  - logout               - sign out
//
// Errors returned by command handlers are not printed here; handlers and the
// controllers behind them report failures as toasts.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("ih %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: status, profile, reload, edit, save, cancel, avatar <path>, events [kind], enroll <kind> <id>, enrollments, logout, exit")
			} else {
				printlnFn("Available commands: login, code [digits], resend, change-email, events [kind], exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "code":
			code := ""
			if len(args) > 0 {
				code = args[0]
			}
			_ = a.Code(ctx, code)

		case "resend":
			_ = a.Resend(ctx)

		case "change-email":
			_ = a.ChangeEmail(ctx)

		case "status":
			_ = a.Status(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "reload":
			_ = a.Reload(ctx)

		case "edit":
			_ = a.Edit(ctx)

		case "save":
			_ = a.Save(ctx)

		case "cancel":
			_ = a.Cancel(ctx)

		case "avatar":
			if len(args) == 0 {
				printlnFn("Usage: avatar <path>")
				continue
			}
			_ = a.Avatar(ctx, args[0])

		case "events":
			kind := "events"
			if len(args) > 0 {
				kind = args[0]
			}
			_ = a.Events(ctx, kind)

		case "enroll":
			if len(args) < 2 {
				printlnFn("Usage: enroll <event|gig|opportunity> <id>")
				continue
			}
			_ = a.Enroll(ctx, args[0], args[1])

		case "enrollments":
			_ = a.Enrollments(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
