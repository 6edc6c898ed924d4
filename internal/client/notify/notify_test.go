package notify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriterNotifier(&buf)

	n.Notify(Toast{Kind: Success, Title: "OTP Sent!", Message: "Check your email for the verification code."})
	n.Notify(Toast{Kind: Info, Title: "Signed out"})
	Errorf(n, "Error", "code %s", "rejected")

	assert.Equal(t,
		"[ok] OTP Sent!: Check your email for the verification code.\n"+
			"[info] Signed out\n"+
			"[error] Error: code rejected\n",
		buf.String())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_, ok := r.Last()
	assert.False(t, ok)

	r.Notify(Toast{Kind: Info, Title: "a"})
	r.Notify(Toast{Kind: Error, Title: "b"})

	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, "b", last.Title)
	assert.Len(t, r.Toasts(), 2)

	r.Reset()
	assert.Empty(t, r.Toasts())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "info", Info.String())
	assert.Equal(t, "ok", Success.String())
	assert.Equal(t, "error", Error.String())
}
