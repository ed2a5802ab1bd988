package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"honeytrap/internal/domain/models"
	"honeytrap/internal/intel"
	"honeytrap/pkg/logger"
)

// Replies used when the conversation cannot move forward normally
const (
	GreetingReply      = "Hello! How can I help you today?"
	ResponderFallback  = "I see — could you share more details about this?"
	EmptyReplyFallback = "Could you explain that again?"
	TurnFailedReply    = "I'm not sure I understand — could you explain that again?"
)

// Extractor turns one message into an intelligence record.
type Extractor interface {
	Extract(text string) intel.Record
}

// CallbackQueue accepts reports for asynchronous delivery.
type CallbackQueue interface {
	Enqueue(url string, report models.Report) bool
}

// IntelPublisher announces identifiers newly found in a session.
type IntelPublisher interface {
	PublishIntel(ctx context.Context, sessionID string, fresh intel.Record) error
}

// IntelArchive stores a session's aggregate durably.
type IntelArchive interface {
	Archive(ctx context.Context, sessionID string, rec intel.Record) error
}

// HoneypotService runs one conversation turn: it rebuilds the session,
// accumulates intelligence, decides whether the conversation is a scam and
// produces the next reply.
type HoneypotService struct {
	extractor Extractor
	store     SessionStore
	locker    SessionLocker
	detector  ScamDetector
	responder Responder
	callbacks CallbackQueue
	publisher IntelPublisher
	archive   IntelArchive

	callbackURL string
	now         func() time.Time
	logger      *logger.Logger
}

// HoneypotDeps wires the collaborators of a HoneypotService. Callbacks,
// Publisher and Archive are optional.
type HoneypotDeps struct {
	Extractor   Extractor
	Store       SessionStore
	Locker      SessionLocker
	Detector    ScamDetector
	Responder   Responder
	Callbacks   CallbackQueue
	Publisher   IntelPublisher
	Archive     IntelArchive
	CallbackURL string
	Now         func() time.Time
}

// NewHoneypotService creates the turn handler. Missing required
// collaborators fall back to in-memory or built-in implementations.
func NewHoneypotService(deps HoneypotDeps, log *logger.Logger) *HoneypotService {
	if log == nil {
		log = logger.NewNop()
	}
	svc := &HoneypotService{
		extractor:   deps.Extractor,
		store:       deps.Store,
		locker:      deps.Locker,
		detector:    deps.Detector,
		responder:   deps.Responder,
		callbacks:   deps.Callbacks,
		publisher:   deps.Publisher,
		archive:     deps.Archive,
		callbackURL: deps.CallbackURL,
		now:         deps.Now,
		logger:      log.WithComponent("honeypot"),
	}
	if svc.extractor == nil {
		svc.extractor = intel.NewExtractor(log)
	}
	if svc.store == nil {
		svc.store = NewMemorySessionStore()
	}
	if svc.locker == nil {
		svc.locker = NewMemoryLocker(0)
	}
	if svc.detector == nil {
		svc.detector = NewKeywordDetector()
	}
	if svc.responder == nil {
		svc.responder = NewProbeResponder()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// HandleTurn processes one request and always returns a usable reply. A
// non-nil error means the turn was not fully processed; the reply is then a
// fallback.
func (s *HoneypotService) HandleTurn(ctx context.Context, req *models.IncomingRequest) (models.AgentReply, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = "session-" + uuid.NewString()
	}
	log := s.logger.WithSessionID(sessionID)

	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return models.NewAgentReply(TurnFailedReply), fmt.Errorf("failed to lock session: %w", err)
	}
	defer unlock()

	now := s.now()
	session, err := s.store.Get(ctx, sessionID)
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		session = models.NewSession(sessionID, now)
		session.Metadata = req.Meta()
	case err != nil:
		return models.NewAgentReply(TurnFailedReply), fmt.Errorf("failed to load session: %w", err)
	}

	messages := req.Messages()
	if len(messages) == 0 {
		log.Warn().Msg("no messages in request")
		return models.NewAgentReply(GreetingReply), nil
	}

	session.Messages = messages
	session.TotalMessages = len(messages) + 1

	before := session.Intelligence
	session.Intelligence = s.accumulate(session, messages)
	session.ExtractedCount = len(messages)

	if nonEmpty := session.Intelligence.NonEmpty(); len(nonEmpty) > 0 {
		log.Debug().Strs("categories", categoryStrings(nonEmpty)).Msg("intelligence accumulated")
	}

	s.detect(ctx, session, log)

	reply, err := s.responder.Reply(ctx, session)
	if err != nil {
		log.Error().Err(err).Msg("responder failed")
		reply = ResponderFallback
	}
	if strings.TrimSpace(reply) == "" {
		reply = EmptyReplyFallback
	}
	session.AgentActive = true
	session.LastAgentReply = reply

	if session.ScamDetected {
		s.report(session, req.CallbackURL, now, log)
		s.fanOut(ctx, session.ID, before, session.Intelligence, log)
	}

	if req.IsLastTurn {
		session.Closed = true
	}
	session.UpdatedAt = now

	if err := s.store.Save(ctx, session); err != nil {
		return models.NewAgentReply(reply), fmt.Errorf("failed to save session: %w", err)
	}

	log.Info().
		Int("messages", len(messages)).
		Bool("scam_detected", session.ScamDetected).
		Int("intel_values", session.Intelligence.Total()).
		Msg("turn processed")

	return models.NewAgentReply(reply), nil
}

// accumulate merges the messages not yet extracted, then the whole
// conversation as one text so values split across messages are caught.
func (s *HoneypotService) accumulate(session *models.Session, messages []models.Message) intel.Record {
	agg := session.Aggregate()

	start := session.ExtractedCount
	if start < 0 || start > len(messages) {
		start = 0
	}
	for _, msg := range messages[start:] {
		agg = intel.Merge(agg, s.extractor.Extract(msg.Text))
	}
	agg = intel.Merge(agg, s.extractor.Extract(models.ConversationText(messages)))

	return agg.Record
}

// detect flags the session as a scam once and keeps it flagged.
func (s *HoneypotService) detect(ctx context.Context, session *models.Session, log *logger.Logger) {
	if session.ScamDetected {
		return
	}

	result, err := s.detector.Detect(ctx, models.ConversationText(session.Messages))
	if err != nil {
		log.Error().Err(err).Msg("scam detection failed")
	} else if result.ScamDetected {
		session.ScamDetected = true
		session.DetectionReasons = result.Reasons
		log.Info().Strs("reasons", result.Reasons).Msg("scam detected")
		return
	}

	rec := session.Intelligence
	var reason string
	switch {
	case rec.Has(intel.SuspiciousKeywords):
		reason = "suspicious keywords"
	case hasIdentifiers(rec):
		reason = "extracted identifiers"
	case rec.Has(intel.PhoneNumbers):
		reason = "phone number shared"
	case session.TotalMessages >= 2:
		reason = "continued engagement"
	default:
		return
	}
	session.ScamDetected = true
	session.DetectionReasons = []string{reason}
	log.Info().Str("reason", reason).Msg("scam detected by fallback")
}

// report queues the callback for the current state of the session.
func (s *HoneypotService) report(session *models.Session, override string, now time.Time, log *logger.Logger) {
	if s.callbacks == nil {
		return
	}
	url := strings.TrimSpace(override)
	if url == "" {
		url = s.callbackURL
	}
	if url == "" {
		return
	}
	if s.callbacks.Enqueue(url, BuildReport(session, now)) {
		session.CallbackSent = true
	} else {
		log.Warn().Str("url", url).Msg("callback not queued")
	}
}

// fanOut publishes the newly found values and archives the aggregate
// concurrently. Failures are logged only.
func (s *HoneypotService) fanOut(ctx context.Context, sessionID string, before, after intel.Record, log *logger.Logger) {
	var g errgroup.Group

	if fresh := intel.Diff(before, after); s.publisher != nil && !fresh.IsEmpty() {
		g.Go(func() error {
			if err := s.publisher.PublishIntel(ctx, sessionID, fresh); err != nil {
				log.Warn().Err(err).Msg("failed to publish intelligence")
			}
			return nil
		})
	}
	if s.archive != nil && !after.IsEmpty() {
		g.Go(func() error {
			if err := s.archive.Archive(ctx, sessionID, after); err != nil {
				log.Warn().Err(err).Msg("failed to archive intelligence")
			}
			return nil
		})
	}

	_ = g.Wait()
}

// SessionIntelligence returns the aggregate of a session.
func (s *HoneypotService) SessionIntelligence(ctx context.Context, id string) (intel.Record, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return intel.Record{}, err
	}
	return session.Intelligence, nil
}

// SessionReport builds the callback payload for a session as it stands now.
func (s *HoneypotService) SessionReport(ctx context.Context, id string) (models.Report, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Report{}, err
	}
	return BuildReport(session, s.now()), nil
}

// hasIdentifiers reports whether any category other than phones, keywords,
// amounts and organizations holds a value.
func hasIdentifiers(rec intel.Record) bool {
	for _, c := range []intel.Category{
		intel.BankAccounts, intel.UPIIDs, intel.PhishingLinks, intel.Emails,
		intel.IFSCCodes, intel.TelegramIDs, intel.RemoteAccessTools,
		intel.CaseIDs, intel.PolicyNumbers, intel.OrderNumbers,
	} {
		if rec.Has(c) {
			return true
		}
	}
	return false
}

func categoryStrings(cs []intel.Category) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}
