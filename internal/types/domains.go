package types

import "strings"

// consumerEmailDomains lists free-mail providers that never participate in
// domain-based auto-join. A signup from one of these domains says nothing
// about which company the user belongs to.
var consumerEmailDomains = map[string]bool{
	"gmail.com":       true,
	"googlemail.com":  true,
	"yahoo.com":       true,
	"yahoo.co.uk":     true,
	"hotmail.com":     true,
	"hotmail.co.uk":   true,
	"outlook.com":     true,
	"live.com":        true,
	"msn.com":         true,
	"aol.com":         true,
	"icloud.com":      true,
	"me.com":          true,
	"mac.com":         true,
	"protonmail.com":  true,
	"proton.me":       true,
	"gmx.com":         true,
	"gmx.de":          true,
	"yandex.com":      true,
	"yandex.ru":       true,
	"mail.com":        true,
	"mail.ru":         true,
	"zoho.com":        true,
	"fastmail.com":    true,
	"hey.com":         true,
	"tutanota.com":    true,
	"qq.com":          true,
	"163.com":         true,
	"web.de":          true,
	"t-online.de":     true,
	"comcast.net":     true,
	"verizon.net":     true,
	"att.net":         true,
	"rediffmail.com":  true,
	"rocketmail.com":  true,
	"ymail.com":       true,
	"duck.com":        true,
	"pm.me":           true,
}

// EmailDomain extracts the lowercased domain part of an email address.
// Returns "" when the address has no domain.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

// IsConsumerEmailDomain reports whether the domain belongs to a free-mail
// provider and is therefore excluded from auto-join.
func IsConsumerEmailDomain(domain string) bool {
	return consumerEmailDomains[strings.ToLower(domain)]
}
