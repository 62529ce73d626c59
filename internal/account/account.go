// Package account defines the account-provider collaborator: locate an
// account by the identity a legacy client presents, and mint an access
// token for it. The real OAuth2 account system is an opaque external
// service behind the Provider interface; this package also ships a
// file-backed reference Provider so the proxy is runnable end-to-end.
package account

import "context"

// Account is an opaque handle returned by Provider.Find. It carries no
// credentials of its own; a fresh token is requested from the provider
// each time credentials are substituted.
type Account struct {
	Username string
}

// Status is the tagged result of a Token call.
type Status int

const (
	// StatusOK indicates the returned token is usable.
	StatusOK Status = iota
	// StatusCredentialRejected indicates the provider's own stored
	// credentials for the account are no longer valid (e.g. revoked
	// consent), not a mismatch with anything the legacy client presented.
	StatusCredentialRejected
	// StatusTokenUnavailable indicates the provider could not mint a
	// token right now (e.g. the upstream OAuth2 token endpoint failed).
	StatusTokenUnavailable
)

// Provider is the account-provider collaborator. Implementations MUST be
// safe for concurrent use: one mediator goroutine per connection calls
// Find and Token independently, and a Token call is synchronous from the
// caller's perspective and may block that connection's goroutine alone.
type Provider interface {
	// Find locates an account by the presentation identity a legacy
	// client supplied (the SMTP AUTH PLAIN authcid, or the IMAP LOGIN
	// username). ok is false if no such account is known.
	Find(ctx context.Context, username string) (acct Account, ok bool)

	// Token mints a fresh access token for acct. The legacy password the
	// client presented is never passed here and never checked: OAuth2
	// authorization already happened out of band when the account was
	// provisioned with the provider.
	Token(ctx context.Context, acct Account) (token string, status Status)
}
