package intel

// Curated vocabularies. They are built once at package init and never
// mutated afterwards, so concurrent readers need no locking.

type set map[string]struct{}

func newSet(items ...string) set {
	s := make(set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s set) has(v string) bool {
	_, ok := s[v]
	return ok
}

// paymentHandlers are UPI provider short-codes that appear after the @ in
// a payment address.
var paymentHandlers = newSet(
	"paytm", "ybl", "upi", "oksbi", "okaxis", "okicici", "okhdfcbank",
	"axl", "ibl", "sbi", "icici", "hdfcbank", "apl", "ratn",
	"unionbank", "boi", "citi", "pnb", "kotak", "indus", "federal",
	"freecharge", "phonepe", "gpay", "amazonpay", "airtel", "jio",
	"fakebank", "bank", "pay", "wallet", "axis", "hdfc", "abfspay",
	"axisb", "yesbank", "rbl", "payzapp", "slice", "jupiter",
	"fi", "cred", "niyopay", "dbs", "hsbc", "sc", "idbi",
	"centralbank", "canara", "bob", "barb", "mahb", "syndicate",
	"ubi", "corp", "vijb", "obc", "barodampay", "aubank",
	"equitas", "bandhan", "dcb", "kvb", "kbl", "iob",
	"dlb", "tmb", "psb", "jkb", "cub", "csb",
)

// emailProviders are the domain bases of public mailbox providers.
var emailProviders = newSet(
	"gmail", "yahoo", "hotmail", "outlook", "protonmail", "mail",
	"rediffmail", "live", "icloud", "aol", "zoho", "yandex",
	"msn", "inbox", "fastmail", "tutanota", "hey", "proton", "gmx",
)

// telegramFalsePositives are brand and platform names that match the
// handle shape but are never scammer contacts.
var telegramFalsePositives = newSet(
	"gmail", "yahoo", "hotmail", "outlook", "icloud", "rediffmail",
	"paytm", "phonepe", "googlepay", "amazonpay", "freecharge", "mobikwik",
	"okaxis", "okicici", "okhdfcbank", "hdfcbank", "unionbank", "yesbank",
	"amazon", "flipkart", "google", "apple", "microsoft", "netflix",
	"whatsapp", "telegram", "facebook", "instagram", "twitter", "youtube",
	"airtel", "vodafone", "support", "admin", "everyone", "channel",
	"username", "handle",
)

// dangerousExtensions mark download links for installable or executable
// payloads.
var dangerousExtensions = newSet(
	"apk", "exe", "msi", "dmg", "zip", "rar", "bat", "cmd", "ps1", "scr", "jar",
)

// linkTLDs is the whitelist of top-level domains accepted for bare domains
// written without a scheme. Multi-label suffixes come first so they win
// the alternation.
var linkTLDs = []string{
	`co\.in`, "com", "in", "org", "net", "info", "xyz", "top", "click", "link",
	"online", "site", "tech", "io", "app", "page", "live", "me", "cc", "tk",
	"ml", "ga", "cf", "gq", "buzz", "club", "win", "bid", "stream", "racing",
	"download", "review", "date", "accountant", "science", "party", "cricket",
	"faith", "loan", "trade", "webcam", "work",
}

// organizationNames are canonical spellings matched case-insensitively;
// organizationAcronyms are matched exactly.
var organizationNames = []string{
	// banks
	"State Bank of India", "HDFC", "ICICI", "Axis Bank", "Bank of India",
	"Canara Bank", "Union Bank", "Bank of Baroda", "Kotak", "Yes Bank",
	"IndusInd", "Indian Bank", "UCO Bank", "Central Bank",
	// regulators and enforcement
	"Reserve Bank", "Income Tax", "IT Department", "Cyber Cell", "Cyber Crime",
	"Cyber Police", "Enforcement Directorate",
	// payment and telecom
	"PayTM", "PhonePe", "Google Pay", "GPay", "Amazon Pay", "Flipkart", "Jio",
	"Airtel", "Vodafone", "BSNL",
	// remote support brands
	"AnyDesk", "TeamViewer", "Quick Support", "QuickSupport",
	// platforms
	"Microsoft", "Apple", "Google", "Amazon", "Netflix", "WhatsApp", "Telegram",
	"Facebook", "Instagram",
}

var organizationAcronyms = []string{
	"SBI", "PNB", "BOB", "RBL", "IDBI", "UCO", "RBI", "SEBI", "TRAI", "UIDAI",
	"CBI", "ED",
}

// remoteAccessTools maps each matched spelling family to its canonical name.
var remoteAccessTools = map[string]string{
	"anydesk":       "anydesk",
	"teamviewer":    "teamviewer",
	"quicksupport":  "quicksupport",
	"ammyyadmin":    "ammyy admin",
	"ultraviewer":   "ultraviewer",
	"airdroid":      "airdroid",
	"remotedesktop": "remote desktop",
	"rustdesk":      "rustdesk",
	"supremo":       "supremo",
}

// idLabels maps label words to the identifier category they introduce.
var idLabels = map[string]Category{
	"case":        CaseIDs,
	"reference":   CaseIDs,
	"ref":         CaseIDs,
	"fir":         CaseIDs,
	"complaint":   CaseIDs,
	"ticket":      CaseIDs,
	"incident":    CaseIDs,
	"policy":      PolicyNumbers,
	"insurance":   PolicyNumbers,
	"order":       OrderNumbers,
	"transaction": OrderNumbers,
	"txn":         OrderNumbers,
	"tracking":    OrderNumbers,
	"shipment":    OrderNumbers,
	"invoice":     OrderNumbers,
	"awb":         OrderNumbers,
}

// idPrefixes maps glued code prefixes like POL-12345 to their category.
var idPrefixes = map[string]Category{
	"CASE": CaseIDs,
	"REF":  CaseIDs,
	"FIR":  CaseIDs,
	"CMP":  CaseIDs,
	"TKT":  CaseIDs,
	"POL":  PolicyNumbers,
	"INS":  PolicyNumbers,
	"ORD":  OrderNumbers,
	"TXN":  OrderNumbers,
	"TRK":  OrderNumbers,
	"INV":  OrderNumbers,
	"AWB":  OrderNumbers,
	"SHP":  OrderNumbers,
}

// noisePhrases flag messages that carry model or operator chatter around
// the actual scammer text.
var noisePhrases = []string{
	"The user",
	"We need to",
	"The system",
	"instruction",
	"simulated",
	"role-play",
	"assistant should",
	"according to policy",
}

// suspiciousKeywords are matched as lowercase substrings of the message.
var suspiciousKeywords = []string{
	// urgency and threats
	"urgent", "immediately", "act now", "limited time", "expire",
	"penalty", "lockout", "freeze", "last chance", "final warning",
	"within 24 hours", "deadline", "time-sensitive", "hurry",

	// account and security
	"verify", "verify now", "verify identity", "verify account",
	"blocked", "suspended", "compromised", "unauthorized",
	"suspicious", "security alert", "unusual activity",
	"account blocked", "account suspended", "account closed",
	"deactivate", "reactivate", "update kyc", "kyc verification",
	"re-verify", "identity verification",

	// requested actions
	"click", "click here", "click the link", "click below",
	"payment", "transfer", "pay now", "send money",
	"install", "download", "apk", "install app",
	"share", "share otp", "send otp", "enter otp",
	"confirm", "confirmation code",

	// financial
	"upi", "otp", "kyc", "pin", "cvv", "card number",
	"ifsc", "beneficiary", "beneficiary account",
	"account number", "bank account", "credit card", "debit card",
	"transaction", "refund", "cashback", "reward", "prize",
	"claim", "lottery", "winner", "offer", "bonus",
	"processing fee", "registration fee", "tax",

	// credentials
	"credential", "password", "login", "username",
	"net banking", "internet banking", "mobile banking",

	// impersonation
	"rbi", "reserve bank", "aadhaar", "pan card", "aadhar",
	"bank officer", "customer care", "helpdesk", "support team",
	"bank manager", "branch manager", "technical team",
	"compliance officer", "fraud department", "security team",
	"government", "police", "cyber cell", "cyber crime",

	// channel migration
	"whatsapp", "telegram", "signal",

	// remote access
	"anydesk", "teamviewer", "remote access", "screen share",
	"quick support",

	// social engineering
	"trust me", "don't worry", "confidential", "secret",
	"do not tell anyone", "don't share", "keep this private",
	"this is official", "authorized", "legitimate",
	"for your safety", "for security purposes", "mandatory",

	// links
	"link", "url", "portal", "website", "form", "page",
	"registration link", "verification link", "secure link",

	// money
	"rupees", "lakh", "crore", "amount", "balance",
	"wallet", "deposit", "withdraw", "fee",
}

// KeywordVocabulary returns a copy of the phrases the keyword stage matches.
func KeywordVocabulary() []string {
	out := make([]string, len(suspiciousKeywords))
	copy(out, suspiciousKeywords)
	return out
}
