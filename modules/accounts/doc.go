// Package accounts handles credential storage and login for tenant accounts
// and superusers. Both flows run the same code; which schema the credentials
// live in is decided by the tenant routing middleware before the request
// gets here.
package accounts
