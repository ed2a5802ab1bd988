package models

// ScamType classifies the dominant tactic of a conversation
type ScamType string

const (
	ScamTypeBankFraud         ScamType = "bank_fraud"
	ScamTypeUPIFraud          ScamType = "upi_fraud"
	ScamTypePhishing          ScamType = "phishing"
	ScamTypeLotteryInvestment ScamType = "lottery_investment_scam"
	ScamTypeKYCFraud          ScamType = "kyc_fraud"
	ScamTypeOTPFraud          ScamType = "otp_fraud"
	ScamTypeImpersonation     ScamType = "impersonation_scam"
	ScamTypeRemoteAccess      ScamType = "remote_access_scam"
	ScamTypeSocialEngineering ScamType = "social_engineering_scam"
)

// Report is the final-result payload delivered to the callback endpoint
type Report struct {
	SessionID             string                `json:"sessionId"`
	Status                string                `json:"status"`
	ScamDetected          bool                  `json:"scamDetected"`
	ExtractedIntelligence ExtractedIntelligence `json:"extractedIntelligence"`

	// Engagement, duplicated under engagementMetrics for older consumers
	TotalMessagesExchanged    int               `json:"totalMessagesExchanged"`
	EngagementDurationSeconds int64             `json:"engagementDurationSeconds"`
	EngagementMetrics         EngagementMetrics `json:"engagementMetrics"`

	// Analysis
	AgentNotes      string   `json:"agentNotes"`
	ScamType        ScamType `json:"scamType"`
	ConfidenceLevel float64  `json:"confidenceLevel"`
}

// ExtractedIntelligence is the report view of a session's aggregate
type ExtractedIntelligence struct {
	PhoneNumbers       []string `json:"phoneNumbers"`
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	EmailAddresses     []string `json:"emailAddresses"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
	CaseIDs            []string `json:"caseIds"`
	PolicyNumbers      []string `json:"policyNumbers"`
	OrderNumbers       []string `json:"orderNumbers"`
}

type EngagementMetrics struct {
	EngagementDurationSeconds int64 `json:"engagementDurationSeconds"`
	TotalMessagesExchanged    int   `json:"totalMessagesExchanged"`
}
