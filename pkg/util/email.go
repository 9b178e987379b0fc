package util

import (
	"strings"
)

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the part after the last "@", or "" when there is none.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// EmailPolicy decides which identities may sign in.
type EmailPolicy struct {
	AllowedDomain string
	AllowedEmails []string
	AdminEmails   []string
}

// IsAdmin reports whether email is on the admin list.
func (p EmailPolicy) IsAdmin(email string) bool {
	return contains(p.AdminEmails, NormalizeEmail(email))
}

// Allows reports whether email may sign in. An empty AllowedDomain disables the domain check.
func (p EmailPolicy) Allows(email string) bool {
	email = NormalizeEmail(email)
	if EmailDomain(email) == "" {
		return false
	}
	if p.IsAdmin(email) || contains(p.AllowedEmails, email) {
		return true
	}
	if p.AllowedDomain == "" {
		return true
	}
	return EmailDomain(email) == strings.ToLower(p.AllowedDomain)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
