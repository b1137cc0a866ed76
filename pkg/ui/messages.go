package ui

import (
	session "github.com/fd1az/wallet-dashboard/business/session/domain"
)

// SessionMsg carries a session snapshot published by the store.
type SessionMsg struct {
	Session session.Session
}

// flashMsg shows a transient status line.
type flashMsg struct {
	text string
	ok   bool
}

// clearFlashMsg clears the flash with the matching id. A newer flash
// replaces the id, so stale clears are ignored.
type clearFlashMsg struct {
	id int
}
