// Package cli provides the interactive rainwise command-line client.
//
// It wires configuration, the credential store, the session manager and the
// API services into a REPL. Every command is bound to a client route and
// may be protected by a guard:
//
//   - authGuard requires a live session and, optionally, one of a set of
//     roles; it redirects to sign-in (with reason=expired when the token has
//     lapsed) or to the landing route of the user's role.
//   - unauthGuard keeps signed-in users away from the sign-in and sign-up
//     flows.
//
// Redirects are printed by the terminal Navigator. The REPL is started with
// App.Run, which blocks until the user exits or ctx is cancelled.
package cli
