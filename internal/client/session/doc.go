// Package session owns the client's authenticated session: the current
// identity, the persisted credential and the timer that refreshes the
// credential before it expires.
//
// A Manager is the single authority for the session of one process. The
// transport package consults it on every request and asks it to refresh
// when the API answers 401.
package session
