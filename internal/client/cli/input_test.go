package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("  a@b.com \n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Enter email", &out)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", got)
	assert.Equal(t, "Enter email\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(in, "Name?", &out)
	assert.Error(t, err)
}

func TestGetWithDefault(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("\n-\nNew\n"))
	var out bytes.Buffer

	v, err := GetWithDefault(in, "City", "Riga", &out)
	require.NoError(t, err)
	assert.Equal(t, "Riga", v)
	assert.Contains(t, out.String(), "City [Riga]")

	v, err = GetWithDefault(in, "City", "Riga", &out)
	require.NoError(t, err)
	assert.Empty(t, v)

	v, err = GetWithDefault(in, "City", "", &out)
	require.NoError(t, err)
	assert.Equal(t, "New", v)
}

func TestGetCode_NotATerminal(t *testing.T) {
	origIsTerm := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = origIsTerm })

	in := bufio.NewReader(strings.NewReader("123456\n"))
	var out bytes.Buffer
	got, err := GetCode(in, &out)
	require.NoError(t, err)
	assert.Equal(t, "123456", got)
}

func TestGetCode_TerminalHidesInput(t *testing.T) {
	origIsTerm, origRead := isTerminal, readPassword
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte(" 654321 "), nil }
	t.Cleanup(func() { isTerminal, readPassword = origIsTerm, origRead })

	var out bytes.Buffer
	got, err := GetCode(bufio.NewReader(strings.NewReader("")), &out)
	require.NoError(t, err)
	assert.Equal(t, "654321", got)
	assert.Equal(t, "Enter the 6-digit code: \n", out.String())
}

func TestGetCode_ReadError(t *testing.T) {
	origIsTerm, origRead := isTerminal, readPassword
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return nil, errors.New("tty gone") }
	t.Cleanup(func() { isTerminal, readPassword = origIsTerm, origRead })

	_, err := GetCode(bufio.NewReader(strings.NewReader("")), &bytes.Buffer{})
	assert.EqualError(t, err, "tty gone")
}
