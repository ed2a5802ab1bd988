package services

import (
	"context"
	"strings"
)

// maxDetectionReasons bounds the reasons attached to a detection.
const maxDetectionReasons = 8

// Detection is the verdict of a ScamDetector.
type Detection struct {
	ScamDetected bool     `json:"scamDetected"`
	Confidence   float64  `json:"confidence"`
	Reasons      []string `json:"reasons"`
}

// ScamDetector decides whether a conversation shows scam intent.
type ScamDetector interface {
	Detect(ctx context.Context, conversation string) (Detection, error)
}

// scamIndicators are phrases that on their own signal scam intent.
var scamIndicators = []string{
	// account threats
	"verify your account", "account blocked", "account suspended",
	"account will be closed", "account compromised", "unusual activity",
	"unauthorized transaction", "suspicious activity", "security alert",
	"your account has been", "account freeze", "account locked",

	// otp and credentials
	"send otp", "share otp", "enter otp", "otp verification",
	"share password", "share cvv", "share pin",
	"card number", "pin number", "net banking password",
	"confirm your identity", "verify identity",

	// kyc
	"update kyc", "kyc verification", "kyc expired", "complete kyc",
	"re-verify", "reverify",

	// links
	"click the link", "click here", "click below",
	"visit this link", "open this link", "verification link",
	"click on the link",

	// money demands
	"transfer money", "pay now", "send money", "pay immediately",
	"processing fee", "registration fee", "advance payment",
	"deposit amount", "transfer amount",

	// urgency
	"urgent action", "act immediately", "act now",
	"within 24 hours", "limited time", "final warning",
	"last chance", "immediate action required",

	// authority
	"bank officer", "customer care", "customer support",
	"refund process", "refund department",
	"rbi notification", "government order",
	"compliance officer", "fraud department",

	// prizes
	"claim prize", "lottery winner", "you have won",
	"congratulations", "lucky winner", "cashback offer",
	"reward points", "claim your reward",

	// malware and remote access
	"install app", "download apk", "install anydesk",
	"install teamviewer", "download and install",
	"remote access", "screen share",

	// beneficiary details
	"beneficiary account", "beneficiary name",
	"account details", "bank details",
	"ifsc code", "branch code",
}

// KeywordDetector flags a conversation when any indicator phrase occurs in
// it. It never fails.
type KeywordDetector struct {
	indicators []string
}

// NewKeywordDetector creates a detector over the built-in indicator list
func NewKeywordDetector() *KeywordDetector {
	return &KeywordDetector{indicators: scamIndicators}
}

func (d *KeywordDetector) Detect(_ context.Context, conversation string) (Detection, error) {
	if strings.TrimSpace(conversation) == "" {
		return Detection{Reasons: []string{"empty conversation"}}, nil
	}

	lowered := strings.ToLower(conversation)
	var hits []string
	for _, phrase := range d.indicators {
		if strings.Contains(lowered, phrase) {
			hits = append(hits, phrase)
		}
	}

	if len(hits) == 0 {
		return Detection{Confidence: 0.1, Reasons: []string{"suspicious conversation pattern"}}, nil
	}
	confidence := min(float64(len(hits))*0.15, 1.0)
	if len(hits) > maxDetectionReasons {
		hits = hits[:maxDetectionReasons]
	}
	return Detection{ScamDetected: true, Confidence: confidence, Reasons: hits}, nil
}
