// Package intel turns free-text scam messages into typed, deduplicated
// identifier sets and accumulates them across a conversation.
package intel

import "fmt"

// Category names one identifier set in a Record. The string value is the
// stable wire name used in JSON output.
type Category string

const (
	PhoneNumbers       Category = "phoneNumbers"
	BankAccounts       Category = "bankAccounts"
	UPIIDs             Category = "upiIds"
	Emails             Category = "emails"
	PhishingLinks      Category = "phishingLinks"
	APKLinks           Category = "apkLinks"
	IFSCCodes          Category = "ifscCodes"
	TelegramIDs        Category = "telegramIds"
	Amounts            Category = "amounts"
	Organizations      Category = "organizationsMentioned"
	RemoteAccessTools  Category = "remoteAccessTools"
	CaseIDs            Category = "caseIds"
	PolicyNumbers      Category = "policyNumbers"
	OrderNumbers       Category = "orderNumbers"
	SuspiciousKeywords Category = "suspiciousKeywords"
)

var allCategories = []Category{
	PhoneNumbers,
	BankAccounts,
	UPIIDs,
	Emails,
	PhishingLinks,
	APKLinks,
	IFSCCodes,
	TelegramIDs,
	Amounts,
	Organizations,
	RemoteAccessTools,
	CaseIDs,
	PolicyNumbers,
	OrderNumbers,
	SuspiciousKeywords,
}

var categoryIndex = func() map[Category]int {
	m := make(map[Category]int, len(allCategories))
	for i, c := range allCategories {
		m[c] = i
	}
	return m
}()

// Categories returns every defined category in canonical order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	_, ok := categoryIndex[c]
	return ok
}

// CaseInsensitive reports whether values of c are compared and stored in
// lowercase form.
func (c Category) CaseInsensitive() bool {
	switch c {
	case UPIIDs, Emails, PhishingLinks, APKLinks, TelegramIDs, RemoteAccessTools:
		return true
	}
	return false
}

// IsIdentifier reports whether c holds a forensic identifier, as opposed to
// contextual signals like keywords, amounts and organization mentions.
func (c Category) IsIdentifier() bool {
	switch c {
	case SuspiciousKeywords, Amounts, Organizations:
		return false
	}
	return c.Valid()
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory resolves a wire name into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown intelligence category %q", s)
	}
	return c, nil
}
