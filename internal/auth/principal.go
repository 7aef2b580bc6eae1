// Package auth resolves bearer tokens into principals and hashes passwords.
package auth

// Principal is the authenticated identity attached to a request.
// Read paths take a *Principal; nil means an anonymous caller.
type Principal struct {
	UserID uint
	Email  string
}
