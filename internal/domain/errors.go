// Package domain holds the error taxonomy shared by the session layer and
// the request dispatcher.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotReady indicates an operation that requires a live session was
// attempted while the session was not Ready.
var ErrNotReady = errors.New("discord session not ready")

// ErrConnectTimeout indicates a login attempt did not reach Ready within
// the login timeout window.
var ErrConnectTimeout = errors.New("discord login timed out")

// NotFoundError reports a missing channel or message, naming the subject so
// the caller's error text can identify what was looked up.
type NotFoundError struct {
	Kind string // "channel" or "message"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// ChannelNotFound builds a NotFoundError for a channel name that matched no
// text channel in any joined guild.
func ChannelNotFound(name string) error {
	return &NotFoundError{Kind: "channel", Name: name}
}

// MessageNotFound builds a NotFoundError for a message ID.
func MessageNotFound(id string) error {
	return &NotFoundError{Kind: "message", Name: id}
}

// ConnectError wraps a login failure (platform error signal, immediate open
// failure, or timeout).
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("discord connect failed: %v", e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// TransportError wraps a platform call that failed after a Ready session
// existed (send, react, delete, fetch).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("discord %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// LooksLikeAuthFailure reports whether an error's text suggests a credential
// problem rather than a connectivity one. Used only to pick the suggestion
// text in queued-send responses.
func LooksLikeAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "token") || strings.Contains(msg, "auth")
}
