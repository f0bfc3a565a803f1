// Package client is the HTTP/JSON client of the rainwise API.
//
// # Overview
//
// HTTPClient speaks the JSON contract of the API: the auth endpoints
// (Login, RefreshToken, Register, ConfirmEmail), a health probe (Ping) and
// the generic resource helpers List, Get, Create, Update and Delete used by
// the catalog services.
//
// HTTPClient does not authenticate by itself. Build it over an
// *http.Client whose transport is a transport.Authenticator to get bearer
// tokens and transparent refresh; the session manager uses a second,
// plain instance for the auth endpoints.
//
// # Error Handling
//
// Non-2xx replies become *APIError carrying the status and the server's
// message verbatim. APIError unwraps to a sentinel so callers can use
// errors.Is: ErrUnauthorized, common.ErrorForbidden, common.ErrorNotFound,
// common.ErrorValidation, ErrConflict or ErrUnavailable. Network failures
// wrap ErrUnavailable; errors raised by the transport itself are returned
// unchanged.
package client
