// Package authflow drives the two-step passwordless sign-in: an email is
// submitted, a 6-digit code is mailed, and the code is exchanged for a
// session.
//
// The Controller moves through EnteringEmail, AwaitingCode and
// Authenticated. While AwaitingCode a resend cooldown counts down once per
// second on its own goroutine; the goroutine is cancelled whenever the
// owning state is left. Each operation may have only one call in flight;
// a second concurrent call fails with ErrBusy before touching the network.
package authflow
