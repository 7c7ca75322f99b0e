package session

import "strings"

// ActiveEssayKey is the store key of the active pointer of the default session.
const ActiveEssayKey = "activeEssayId"

// Context identifies the session an editor runs in.
// The zero value is the default session.
type Context struct {
	// ID distinguishes concurrent sessions (tabs, API clients). Empty means default.
	ID string
}

// Default returns the default session.
func Default() Context {
	return Context{}
}

// New returns the session with the given id.
func New(id string) Context {
	return Context{ID: strings.TrimSpace(id)}
}

// IsDefault reports whether c is the default session.
func (c Context) IsDefault() bool {
	return c.ID == ""
}

// ActiveKey returns the store key holding this session's active essay id.
func (c Context) ActiveKey() string {
	if c.IsDefault() {
		return ActiveEssayKey
	}
	return ActiveEssayKey + ":" + c.ID
}

func (c Context) String() string {
	if c.IsDefault() {
		return "default"
	}
	return c.ID
}
