// Package authtoken issues and verifies the signed bearer tokens that
// carry a caller's identity and permission set between requests.
//
// Tokens are HMAC-SHA256 JWTs built directly on crypto/hmac: the payload
// embeds the subject email, the flattened permission-name set, a principal
// snapshot taken at login, and the tenant binding. Verification is pure and
// stateless; the server keeps no token records, so expiry (12 hours by
// default) is the only revocation mechanism.
package authtoken
