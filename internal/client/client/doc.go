// Package client talks to the ImpactHands backend.
//
// The AuthService, DataStore and BlobStore interfaces are the contract the
// controllers consume. HTTPClient implements all three over the JSON API.
// It adds the bearer token from a TokenSource and, when the backend answers
// 401 "token expired", rotates the refresh token once and replays the call.
// If rotation fails the session is expired through the TokenSource.
//
// Errors match ErrUnavailable, ErrUnauthorized and ErrNotFound with
// errors.Is. Other backend failures are *ServiceError values whose Message
// comes straight from the server.
package client
