package services

import (
	"context"

	"honeytrap/internal/domain/models"
	"honeytrap/internal/intel"
)

// Responder produces the honeypot's next message.
type Responder interface {
	Reply(ctx context.Context, session *models.Session) (string, error)
}

// probe is a set of victim-style questions that try to elicit one kind of
// identifier.
type probe struct {
	category  intel.Category
	questions []string
}

// probes are tried in order; the first category still missing from the
// session's intelligence decides the question.
var probes = []probe{
	{intel.PhoneNumbers, []string{
		"What's the phone number I should call for verification?",
		"Can I call you back on an official number? What's your direct line?",
		"Which department is handling this? Can I get a direct number?",
	}},
	{intel.BankAccounts, []string{
		"Can you confirm which account number you're seeing?",
		"Okay let me note down the details. Where should I transfer?",
		"Should I send the payment to a bank account? Which one?",
	}},
	{intel.UPIIDs, []string{
		"Is this the correct UPI ID? Can you repeat it?",
		"Which UPI ID should I send the verification amount to?",
	}},
	{intel.Emails, []string{
		"Is there an email I can reach you at instead?",
		"Can you email me the details?",
		"Let me check, what's the email to confirm?",
	}},
	{intel.PhishingLinks, []string{
		"Is there a website or portal where I can verify this?",
		"I'm ready to verify. What link do I open?",
		"My network is slow, can you send me a link to verify instead?",
	}},
	{intel.IFSCCodes, []string{
		"What is the IFSC code for the branch?",
		"The app is asking for the IFSC code too. What should I enter?",
	}},
	{intel.TelegramIDs, []string{
		"Can I do this on your Telegram channel instead?",
		"Do you have a Telegram ID for faster communication?",
	}},
}

var followUps = []string{
	"I'm not sure I got the right details, can you share again?",
	"Hold on, before I share anything, can you confirm your end first?",
	"I'm a little uncomfortable. Can you explain why this is necessary?",
	"Before I proceed, can you share the details?",
}

// ProbeResponder asks for the first identifier the session has not yet
// revealed. Questions rotate with the message count and never repeat the
// previous reply verbatim.
type ProbeResponder struct{}

func NewProbeResponder() *ProbeResponder {
	return &ProbeResponder{}
}

func (r *ProbeResponder) Reply(_ context.Context, session *models.Session) (string, error) {
	questions := followUps
	for _, p := range probes {
		if !session.Intelligence.Has(p.category) {
			questions = p.questions
			break
		}
	}
	return pickQuestion(questions, session.TotalMessages, session.LastAgentReply), nil
}

func pickQuestion(questions []string, turn int, last string) string {
	i := turn % len(questions)
	if questions[i] == last {
		i = (i + 1) % len(questions)
	}
	return questions[i]
}
