// Package cli provides the interactive ImpactHands volunteer client.
//
// It wires configuration, the explicit session, the backend client and the
// two controllers of the authenticated area (sign-in flow and profile
// session) behind a line-oriented REPL. Toasts are printed as lines.
//
// Typical flow: login with an email, enter the mailed code, then view or
// edit the profile and enroll in events, gigs or opportunities. A
// background watcher asks the backend periodically whether the session is
// still valid and ends it locally when it is not.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
