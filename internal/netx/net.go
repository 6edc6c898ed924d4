// Package netx has small HTTP helpers.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 4 << 10

// PutBytes uploads body to url with a PUT request. Extra headers are applied
// after Content-Type. Any 2xx status is success; otherwise the returned
// *StatusError carries the status code and the start of the response body.
func PutBytes(ctx context.Context, client *http.Client, url string, body []byte, contentType string, header http.Header) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: b}
	}
	return io.ReadAll(resp.Body)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upload failed: %d %s; body: %s", e.Code, http.StatusText(e.Code), string(e.Body))
}
