package services

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"honeytrap/internal/domain/models"
	"honeytrap/internal/intel"
)

// scamSignal scores one scam type by keyword overlap plus boosts for
// extracted identifiers.
type scamSignal struct {
	scamType models.ScamType
	keywords []string
	boosts   map[intel.Category]int
}

// scamSignals are listed in tie-break order.
var scamSignals = []scamSignal{
	{models.ScamTypeBankFraud, []string{
		"account blocked", "account suspended", "blocked", "suspended",
		"compromised", "freeze", "bank account", "account number", "ifsc",
		"beneficiary", "net banking", "internet banking", "debit card", "credit card",
	}, map[intel.Category]int{intel.BankAccounts: 3, intel.IFSCCodes: 2}},
	{models.ScamTypeUPIFraud, []string{
		"upi", "cashback", "reward", "refund", "pay now", "send money",
		"payment", "wallet", "gpay", "phonepe", "paytm", "google pay",
	}, map[intel.Category]int{intel.UPIIDs: 3}},
	{models.ScamTypePhishing, []string{
		"click", "click here", "click the link", "link", "url", "portal",
		"website", "verification link", "secure link", "download", "apk", "install",
	}, map[intel.Category]int{intel.PhishingLinks: 3}},
	{models.ScamTypeLotteryInvestment, []string{
		"lottery", "prize", "winner", "claim", "lucky", "congratulations",
		"jackpot", "investment", "guaranteed returns", "double your money",
	}, nil},
	{models.ScamTypeKYCFraud, []string{
		"kyc", "update kyc", "kyc verification", "kyc expired", "aadhaar",
		"pan card", "identity verification",
	}, nil},
	{models.ScamTypeOTPFraud, []string{
		"otp", "send otp", "share otp", "enter otp", "verification code", "confirmation code",
	}, nil},
	{models.ScamTypeImpersonation, []string{
		"bank officer", "customer care", "helpdesk", "rbi", "reserve bank",
		"government", "police", "cyber cell", "fraud department", "compliance officer",
	}, nil},
	{models.ScamTypeRemoteAccess, []string{
		"anydesk", "teamviewer", "remote access", "screen share", "quick support",
	}, map[intel.Category]int{intel.RemoteAccessTools: 3}},
}

// confidenceCategories count towards the intelligence part of Confidence.
var confidenceCategories = []intel.Category{
	intel.PhoneNumbers, intel.BankAccounts, intel.UPIIDs, intel.PhishingLinks,
	intel.Emails, intel.IFSCCodes, intel.TelegramIDs, intel.CaseIDs,
	intel.PolicyNumbers, intel.OrderNumbers,
}

// ClassifyScamType returns the highest scoring scam type for the
// intelligence gathered so far.
func ClassifyScamType(rec intel.Record) models.ScamType {
	best, bestScore := models.ScamTypeSocialEngineering, 0
	for _, sig := range scamSignals {
		score := 0
		for _, kw := range sig.keywords {
			if rec.Contains(intel.SuspiciousKeywords, kw) {
				score++
			}
		}
		for c, boost := range sig.boosts {
			if rec.Has(c) {
				score += boost
			}
		}
		if score > bestScore {
			best, bestScore = sig.scamType, score
		}
	}
	return best
}

// Confidence scores how sure the honeypot is about a scam, between 0 and 1
// with two decimals.
func Confidence(rec intel.Record, totalMessages int, detected bool) float64 {
	score := min(float64(rec.Len(intel.SuspiciousKeywords))*0.05, 0.3)

	found := 0
	for _, c := range confidenceCategories {
		if rec.Has(c) {
			found++
		}
	}
	score += min(float64(found)*0.08, 0.4)
	score += min(float64(totalMessages)*0.025, 0.2)
	if detected {
		score += 0.1
	}
	return math.Round(min(score, 1.0)*100) / 100
}

// FormatPhones renders phone numbers in international form. Toll-free
// numbers are kept as they are.
func FormatPhones(phones []string) []string {
	out := make([]string, 0, len(phones))
	seen := make(map[string]struct{}, len(phones))
	for _, p := range phones {
		digits := strings.NewReplacer("+", "", "-", "", " ", "").Replace(p)

		var formatted string
		switch {
		case strings.HasPrefix(digits, "1800") && (len(digits) == 10 || len(digits) == 11):
			formatted = digits
		case strings.HasPrefix(digits, "91") && len(digits) == 12:
			formatted = "+" + digits
		default:
			formatted = "+91" + digits
		}

		if _, dup := seen[formatted]; dup {
			continue
		}
		seen[formatted] = struct{}{}
		out = append(out, formatted)
	}
	return out
}

// noteRule adds one observation to the agent notes when its keywords occur.
type noteRule struct {
	keywords []string
	note     func(matched []string) string
}

var (
	urgencyWords = []string{
		"urgent", "immediately", "act now", "limited time", "expire",
		"lockout", "final warning", "last chance", "within 24 hours",
		"hurry", "deadline", "time-sensitive",
	}
	authorityWords = []string{
		"bank officer", "customer care", "helpdesk", "support team",
		"rbi", "reserve bank", "government", "police", "cyber cell",
		"bank manager", "compliance officer", "fraud department",
	}
)

func fixedNote(s string) func([]string) string {
	return func([]string) string { return s }
}

// AgentNotes summarizes the scammer's tactics and what was extracted.
func AgentNotes(rec intel.Record) string {
	var notes []string
	keywordNote := func(rule noteRule) {
		var matched []string
		for _, kw := range rule.keywords {
			if rec.Contains(intel.SuspiciousKeywords, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > 0 {
			slices.Sort(matched)
			notes = append(notes, rule.note(matched))
		}
	}
	listNote := func(c intel.Category, limit int, format string) {
		if vs := rec.Get(c); len(vs) > 0 {
			notes = append(notes, fmt.Sprintf(format, strings.Join(head(vs, limit), ", ")))
		}
	}
	countNote := func(c intel.Category, format string) {
		if n := rec.Len(c); n > 0 {
			notes = append(notes, fmt.Sprintf(format, n))
		}
	}

	keywordNote(noteRule{urgencyWords, func(m []string) string {
		return fmt.Sprintf("RED FLAG: Used urgency/threat tactics (%s)", strings.Join(head(m, 3), ", "))
	}})
	keywordNote(noteRule{
		[]string{"blocked", "suspended", "account blocked", "account suspended", "compromised", "freeze", "deactivate", "account closed"},
		fixedNote("RED FLAG: Claimed account suspension/blocking to create panic"),
	})

	listNote(intel.BankAccounts, 3, "INTEL EXTRACTED: Bank account details (%s)")
	listNote(intel.UPIIDs, 3, "INTEL EXTRACTED: Suspicious UPI IDs for payment redirection (%s)")
	listNote(intel.IFSCCodes, 2, "INTEL EXTRACTED: IFSC codes (%s)")
	listNote(intel.PhoneNumbers, 3, "INTEL EXTRACTED: Contact phone numbers (%s)")
	listNote(intel.Emails, 3, "INTEL EXTRACTED: Email addresses (%s)")
	listNote(intel.CaseIDs, 3, "INTEL EXTRACTED: Case/reference IDs (%s)")
	listNote(intel.PolicyNumbers, 3, "INTEL EXTRACTED: Policy numbers (%s)")
	listNote(intel.OrderNumbers, 3, "INTEL EXTRACTED: Order numbers (%s)")
	countNote(intel.PhishingLinks, "INTEL EXTRACTED: %d phishing/suspicious link(s)")
	countNote(intel.APKLinks, "RED FLAG: Attempted malware distribution via %d download link(s)")
	listNote(intel.TelegramIDs, 2, "RED FLAG: Directed victim to Telegram (%s)")
	listNote(intel.RemoteAccessTools, 2, "RED FLAG: Attempted to install remote access tool (%s)")
	listNote(intel.Organizations, 3, "RED FLAG: Impersonated %s")

	keywordNote(noteRule{
		[]string{"otp", "send otp", "share otp", "enter otp"},
		fixedNote("RED FLAG: Attempted OTP extraction for account takeover"),
	})
	keywordNote(noteRule{
		[]string{"kyc", "update kyc", "kyc verification"},
		fixedNote("RED FLAG: Used fake KYC verification pretext"),
	})
	keywordNote(noteRule{
		[]string{"password", "cvv", "card number", "credential", "pin", "login"},
		fixedNote("RED FLAG: Attempted credential/card detail theft"),
	})
	keywordNote(noteRule{authorityWords, func(m []string) string {
		return fmt.Sprintf("RED FLAG: Impersonated authority (%s)", strings.Join(head(m, 2), ", "))
	}})
	keywordNote(noteRule{
		[]string{"refund", "claim", "lottery", "prize", "winner", "cashback", "reward"},
		fixedNote("RED FLAG: Used fake reward/refund/lottery scheme as bait"),
	})
	keywordNote(noteRule{
		[]string{"install", "download", "apk", "anydesk", "teamviewer"},
		fixedNote("RED FLAG: Attempted to install malicious/remote-access software"),
	})
	keywordNote(noteRule{
		[]string{"whatsapp", "telegram", "signal"},
		fixedNote("RED FLAG: Tried to move conversation to unmonitored messaging platform"),
	})
	keywordNote(noteRule{
		[]string{"trust me", "don't worry", "confidential", "do not tell anyone", "for your safety", "for security purposes", "mandatory"},
		fixedNote("RED FLAG: Employed social engineering and trust manipulation tactics"),
	})

	listNote(intel.Amounts, 3, "INTEL EXTRACTED: Mentioned specific monetary amounts (%s)")

	if len(notes) == 0 {
		return "Scammer used social engineering tactics to request sensitive " +
			"financial information. Multiple red flags were identified " +
			"during the conversation including urgency pressure, " +
			"impersonation of authority, and requests for sensitive data."
	}

	header := "Scam Type: " + titleScamType(ClassifyScamType(rec)) + ". "
	return header + "Scammer " + strings.Join(notes, "; ") + "."
}

// BuildReport assembles the callback payload for a session at now.
func BuildReport(session *models.Session, now time.Time) models.Report {
	rec := session.Intelligence

	links := append(rec.Get(intel.PhishingLinks), rec.Get(intel.APKLinks)...)
	slices.Sort(links)
	links = slices.Compact(links)

	duration := int64(now.Sub(session.StartTime) / time.Second)
	if duration < 0 {
		duration = 0
	}

	return models.Report{
		SessionID:    session.ID,
		Status:       "success",
		ScamDetected: session.ScamDetected,
		ExtractedIntelligence: models.ExtractedIntelligence{
			PhoneNumbers:       FormatPhones(rec.Get(intel.PhoneNumbers)),
			BankAccounts:       rec.Get(intel.BankAccounts),
			UPIIDs:             rec.Get(intel.UPIIDs),
			PhishingLinks:      links,
			EmailAddresses:     rec.Get(intel.Emails),
			SuspiciousKeywords: rec.Get(intel.SuspiciousKeywords),
			CaseIDs:            rec.Get(intel.CaseIDs),
			PolicyNumbers:      rec.Get(intel.PolicyNumbers),
			OrderNumbers:       rec.Get(intel.OrderNumbers),
		},
		TotalMessagesExchanged:    session.TotalMessages,
		EngagementDurationSeconds: duration,
		EngagementMetrics: models.EngagementMetrics{
			EngagementDurationSeconds: duration,
			TotalMessagesExchanged:    session.TotalMessages,
		},
		AgentNotes:      AgentNotes(rec),
		ScamType:        ClassifyScamType(rec),
		ConfidenceLevel: Confidence(rec, session.TotalMessages, session.ScamDetected),
	}
}

func titleScamType(t models.ScamType) string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func head(vs []string, n int) []string {
	if len(vs) > n {
		return vs[:n]
	}
	return vs
}
