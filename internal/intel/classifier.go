package intel

import (
	"strings"
	"unicode"
)

const (
	minAccountDigits = 9
	maxAccountDigits = 18
	minIDLength      = 4
)

// AddressKind is the outcome of classifying a local@domain token.
type AddressKind int

const (
	AddressRejected AddressKind = iota
	AddressUPI
	AddressEmail
)

func (k AddressKind) String() string {
	switch k {
	case AddressUPI:
		return "upi"
	case AddressEmail:
		return "email"
	}
	return "rejected"
}

// ClassificationContext carries what earlier stages of one extraction
// found, so later stages can reject candidates that are really a phone
// number or a payment-address domain in disguise. It lives for a single
// extraction call.
type ClassificationContext struct {
	phones  set
	domains set
}

// NewClassificationContext returns an empty context.
func NewClassificationContext() *ClassificationContext {
	return &ClassificationContext{phones: set{}, domains: set{}}
}

// AddPhone records a confirmed phone number.
func (c *ClassificationContext) AddPhone(phone string) {
	c.phones[phone] = struct{}{}
}

// AddAddress records the domain base of a confirmed UPI ID or email.
func (c *ClassificationContext) AddAddress(addr string) {
	if base := domainBase(addr); base != "" {
		c.domains[base] = struct{}{}
	}
}

// IsPhone reports whether digits equals a confirmed phone number.
func (c *ClassificationContext) IsPhone(digits string) bool {
	return c.phones.has(digits)
}

func (c *ClassificationContext) containsPhone(digits string) bool {
	for p := range c.phones {
		if strings.Contains(digits, p) {
			return true
		}
	}
	return false
}

// ClassifyAtToken decides whether a local@domain token is a UPI ID, an
// email, or neither. Known payment handlers win, then dot-less domains are
// treated as UPI, then public mailbox providers are emails. Anything else
// is rejected. The returned token is lowercased with trailing dots removed.
func ClassifyAtToken(token string) (AddressKind, string) {
	t := strings.TrimRight(strings.ToLower(strings.TrimSpace(token)), ".")
	local, domain, ok := strings.Cut(t, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return AddressRejected, ""
	}
	switch {
	case paymentHandlers.has(domain):
		return AddressUPI, t
	case !strings.Contains(domain, "."):
		return AddressUPI, t
	case emailProviders.has(domainBase(t)):
		return AddressEmail, t
	}
	return AddressRejected, ""
}

// domainBase returns the first label of the domain part of an address.
func domainBase(addr string) string {
	_, domain, ok := strings.Cut(strings.ToLower(addr), "@")
	if !ok {
		return ""
	}
	base, _, _ := strings.Cut(domain, ".")
	return base
}

// ClassifyDigitRun decides whether a digit string is a bank account
// number. Phones, phone-bearing strings short enough to be a prefixed
// phone, repetitive filler and toll-free numbers are rejected.
func ClassifyDigitRun(digits string, ctx *ClassificationContext) bool {
	n := len(digits)
	if n < minAccountDigits || n > maxAccountDigits || !allDigits(digits) {
		return false
	}
	if ctx.IsPhone(digits) {
		return false
	}
	if strings.HasPrefix(digits, "91") && ctx.IsPhone(digits[2:]) {
		return false
	}
	if n <= 12 && ctx.containsPhone(digits) {
		return false
	}
	if uniqueDigits(digits) <= 2 {
		return false
	}
	return !strings.HasPrefix(digits, "1800")
}

// ClassifyCard decides whether a card-shaped digit string is a payment
// card number. Cards are reported with bank accounts.
func ClassifyCard(digits string, ctx *ClassificationContext) bool {
	n := len(digits)
	if n < 13 || n > 19 || !allDigits(digits) {
		return false
	}
	if ctx.IsPhone(digits) || isTollFree(digits) || strings.HasPrefix(digits, "1800") {
		return false
	}
	return uniqueDigits(digits) > 1
}

// ClassifyTelegram validates a handle candidate and returns it as a
// lowercase "@handle". Brand names and handles equal to the domain of an
// address found in the same message are rejected.
func ClassifyTelegram(handle string, ctx *ClassificationContext) (string, bool) {
	h := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
	if len(h) < 5 {
		return "", false
	}
	if telegramFalsePositives.has(h) || ctx.domains.has(h) {
		return "", false
	}
	return "@" + h, true
}

// NormalizeIDLabel strips the label word, qualifier, copula and any glued
// code prefix from a matched identifier span and returns the bare
// identifier with the category its label implies. Spans that leave fewer
// than four characters or no digit are rejected.
//
//	"case number CASE-88217" -> "88217", caseIds
//	"Policy No: POL-55-1234" -> "55-1234", policyNumbers
func NormalizeIDLabel(span string) (string, Category, bool) {
	fields := strings.FieldsFunc(span, func(r rune) bool {
		return unicode.IsSpace(r) || r == ':' || r == '#'
	})

	var cat Category
	i := 0
	for ; i < len(fields); i++ {
		word := strings.Trim(strings.ToLower(fields[i]), ".-")
		if c, ok := idLabels[word]; ok {
			if cat == "" {
				cat = c
			}
			continue
		}
		if isIDFiller(word) {
			continue
		}
		break
	}
	if i >= len(fields) {
		return "", "", false
	}

	id := strings.Trim(fields[i], ".-/,;)")
	if c, rest, ok := cutIDPrefix(id); ok {
		if cat == "" {
			cat = c
		}
		id = rest
	}
	if cat == "" || len(id) < minIDLength || !hasDigit(id) || !validIDChars(id) {
		return "", "", false
	}
	return id, cat, true
}

func isIDFiller(word string) bool {
	switch word {
	case "", "no", "number", "num", "id", "is", "was":
		return true
	}
	return false
}

// cutIDPrefix removes a known code prefix such as POL- or TXN from the
// front of an identifier when digits follow.
func cutIDPrefix(id string) (Category, string, bool) {
	upper := strings.ToUpper(id)
	for p, c := range idPrefixes {
		if !strings.HasPrefix(upper, p) {
			continue
		}
		rest := strings.TrimLeft(id[len(p):], "-/#:")
		if rest != "" && rest[0] >= '0' && rest[0] <= '9' {
			return c, rest, true
		}
	}
	return "", "", false
}

func validIDChars(id string) bool {
	for _, r := range id {
		if !(r == '-' || r == '/' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isASCIIDigit(s[i]) {
			return false
		}
	}
	return true
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
}

func uniqueDigits(s string) int {
	var seen [10]bool
	n := 0
	for i := 0; i < len(s); i++ {
		d := s[i] - '0'
		if !seen[d] {
			seen[d] = true
			n++
		}
	}
	return n
}

// suppressedDomain reports whether a bare-domain match duplicates a URL
// already taken from the same message, by span overlap or equal host.
func suppressedDomain(start, end int, host string, urlSpans [][2]int, urlHosts set) bool {
	for _, s := range urlSpans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return urlHosts.has(host)
}
