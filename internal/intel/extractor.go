package intel

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"honeytrap/pkg/logger"
)

// DefaultMaxInputBytes bounds the text a single extraction will scan.
const DefaultMaxInputBytes = 16 * 1024

// stage is one matcher pass. It writes into a scratch builder and may only
// contribute to the categories it declares.
type stage struct {
	name     string
	produces []Category
	run      func(in *matchInput, ctx *ClassificationContext, out *builder)
}

// stages run in this order; later stages read what earlier ones confirmed
// through the ClassificationContext.
var defaultStages = []stage{
	{name: "phones", produces: []Category{PhoneNumbers}, run: matchPhones},
	{name: "addresses", produces: []Category{UPIIDs, Emails}, run: matchAddresses},
	{name: "accounts", produces: []Category{BankAccounts}, run: matchAccounts},
	{name: "links", produces: []Category{PhishingLinks, APKLinks}, run: matchLinks},
	{name: "ifsc", produces: []Category{IFSCCodes}, run: matchIFSC},
	{name: "telegram", produces: []Category{TelegramIDs}, run: matchTelegram},
	{name: "amounts", produces: []Category{Amounts}, run: matchAmounts},
	{name: "organizations", produces: []Category{Organizations}, run: matchOrganizations},
	{name: "remote_tools", produces: []Category{RemoteAccessTools}, run: matchRemoteTools},
	{name: "identifiers", produces: []Category{CaseIDs, PolicyNumbers, OrderNumbers}, run: matchIdentifiers},
	{name: "keywords", produces: []Category{SuspiciousKeywords}, run: matchKeywords},
}

func init() {
	if err := checkStages(defaultStages); err != nil {
		panic(err)
	}
}

// checkStages verifies every category is produced by exactly one stage.
func checkStages(stages []stage) error {
	owner := make(map[Category]string, len(allCategories))
	for _, st := range stages {
		for _, c := range st.produces {
			if !c.Valid() {
				return fmt.Errorf("intel: stage %s produces unknown category %q", st.name, c)
			}
			if prev, ok := owner[c]; ok {
				return fmt.Errorf("intel: category %q produced by both %s and %s", c, prev, st.name)
			}
			owner[c] = st.name
		}
	}
	for _, c := range allCategories {
		if _, ok := owner[c]; !ok {
			return fmt.Errorf("intel: category %q has no matcher", c)
		}
	}
	return nil
}

// Extractor runs the matcher stages over one message at a time. It holds no
// per-call state and is safe for concurrent use.
type Extractor struct {
	logger        *logger.Logger
	maxInputBytes int
	stripNoise    bool
	stages        []stage
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxInputBytes caps the bytes scanned per message. Non-positive values
// keep the default.
func WithMaxInputBytes(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxInputBytes = n
		}
	}
}

// WithNoiseStripping toggles CleanMessage before matching.
func WithNoiseStripping(on bool) Option {
	return func(e *Extractor) {
		e.stripNoise = on
	}
}

// NewExtractor creates an extractor.
func NewExtractor(log *logger.Logger, opts ...Option) *Extractor {
	if log == nil {
		log = logger.NewNop()
	}
	e := &Extractor{
		logger:        log.WithComponent("intel-extractor"),
		maxInputBytes: DefaultMaxInputBytes,
		stripNoise:    true,
		stages:        defaultStages,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs every stage over text with default settings.
func Extract(text string) Record {
	return NewExtractor(logger.Global()).Extract(text)
}

// Extract returns the intelligence found in text. It never fails: a stage
// that panics is logged and leaves its categories empty, and the other
// stages still run.
func (e *Extractor) Extract(text string) Record {
	if len(text) > e.maxInputBytes {
		e.logger.Warn().
			Int("input_bytes", len(text)).
			Int("max_input_bytes", e.maxInputBytes).
			Msg("message truncated before extraction")
		text = truncateUTF8(text, e.maxInputBytes)
	}
	if e.stripNoise {
		text = CleanMessage(text)
	}

	in := &matchInput{text: text}
	ctx := NewClassificationContext()
	out := newBuilder()

	for _, st := range e.stages {
		scratch, ok := e.runStage(st, in, ctx)
		if !ok {
			continue
		}
		for _, c := range st.produces {
			for v := range scratch.sets[c] {
				out.add(c, v)
			}
		}
		for v := range scratch.sets[PhoneNumbers] {
			ctx.AddPhone(v)
		}
		for _, c := range []Category{UPIIDs, Emails} {
			for v := range scratch.sets[c] {
				ctx.AddAddress(v)
			}
		}
	}
	return out.build()
}

func (e *Extractor) runStage(st stage, in *matchInput, ctx *ClassificationContext) (scratch *builder, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("stage", st.name).
				Strs("categories", categoryNames(st.produces)).
				Interface("panic", r).
				Int("input_bytes", len(in.text)).
				Msg("matcher stage failed, categories left empty")
			scratch, ok = nil, false
		}
	}()
	scratch = newBuilder()
	st.run(in, ctx, scratch)
	return scratch, true
}

func categoryNames(cs []Category) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// matchInput is the text of one extraction plus lazily computed digit runs
// shared by the phone and account stages.
type matchInput struct {
	text    string
	scanned bool
	runs    []digitRun
	windows [][]phoneWindow
}

func (in *matchInput) digitRuns() ([]digitRun, [][]phoneWindow) {
	if !in.scanned {
		runs := scanDigitRuns(in.text)
		windows := make([][]phoneWindow, len(runs))
		for i, r := range runs {
			windows[i] = phoneWindows(r)
		}
		in.runs, in.windows, in.scanned = runs, windows, true
	}
	return in.runs, in.windows
}

func matchPhones(in *matchInput, _ *ClassificationContext, out *builder) {
	_, windows := in.digitRuns()
	for _, ws := range windows {
		for _, w := range ws {
			out.add(PhoneNumbers, w.number)
		}
	}
}

func matchAddresses(in *matchInput, _ *ClassificationContext, out *builder) {
	text := in.text
	for _, loc := range atTokenRegex.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && (text[loc[0]-1] == '+' || text[loc[0]-1] == '%') {
			continue
		}
		switch kind, tok := ClassifyAtToken(text[loc[0]:loc[1]]); kind {
		case AddressUPI:
			out.add(UPIIDs, tok)
		case AddressEmail:
			out.add(Emails, tok)
		}
	}
	for _, m := range emailRegex.FindAllString(text, -1) {
		if kind, tok := ClassifyAtToken(m); kind == AddressEmail {
			out.add(Emails, tok)
		}
	}
}

func matchAccounts(in *matchInput, ctx *ClassificationContext, out *builder) {
	runs, windows := in.digitRuns()
	for i, run := range runs {
		for _, seg := range accountSegments(run, windows[i]) {
			switch {
			case ClassifyDigitRun(seg.digits, ctx):
				out.add(BankAccounts, seg.digits)
			case cardShaped(seg) && ClassifyCard(seg.digits, ctx):
				out.add(BankAccounts, seg.digits)
			}
		}
	}
}

// cardShaped reports whether a segment may take the card path. Unbroken
// blocks shorter than 19 digits are left to ClassifyDigitRun alone, and an
// unbroken 19-digit block gets the same filler check.
func cardShaped(seg accountSegment) bool {
	if len(seg.groups) == 1 {
		return len(seg.digits) == 19 && uniqueDigits(seg.digits) > 2
	}
	return cardLike(seg.groups)
}

func matchLinks(in *matchInput, _ *ClassificationContext, out *builder) {
	text := in.text
	var spans [][2]int
	hosts := set{}

	addLink := func(link string) {
		out.add(PhishingLinks, link)
		if isDangerousDownload(link) {
			out.add(APKLinks, link)
		}
	}

	for _, loc := range urlRegex.FindAllStringIndex(text, -1) {
		link := trimLink(text[loc[0]:loc[1]])
		host := linkHost(link)
		if host == "" {
			continue
		}
		spans = append(spans, [2]int{loc[0], loc[0] + len(link)})
		hosts[host] = struct{}{}
		addLink(link)
	}

	for _, loc := range bareDomainRegex.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && text[loc[0]-1] == '@' {
			continue
		}
		if loc[1] < len(text) && text[loc[1]] == '@' {
			continue
		}
		link := trimLink(text[loc[0]:loc[1]])
		host := linkHost(link)
		if !plausibleHost(host) {
			continue
		}
		if suppressedDomain(loc[0], loc[0]+len(link), host, spans, hosts) {
			continue
		}
		addLink(link)
	}
}

// plausibleHost rejects bare-domain matches whose labels before the TLD
// carry no letter, such as "12.in".
func plausibleHost(host string) bool {
	dot := strings.LastIndexByte(host, '.')
	if dot <= 0 {
		return false
	}
	return strings.IndexFunc(host[:dot], func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}) >= 0
}

func matchIFSC(in *matchInput, _ *ClassificationContext, out *builder) {
	for _, m := range ifscRegex.FindAllString(in.text, -1) {
		out.add(IFSCCodes, m)
	}
}

func matchTelegram(in *matchInput, ctx *ClassificationContext, out *builder) {
	text := in.text
	for _, m := range telegramRegex.FindAllStringSubmatchIndex(text, -1) {
		if text[m[0]] == '@' && m[0] > 0 && isLocalPartByte(text[m[0]-1]) {
			continue
		}
		if h, ok := ClassifyTelegram(text[m[2]:m[3]], ctx); ok {
			out.add(TelegramIDs, h)
		}
	}
}

func matchAmounts(in *matchInput, _ *ClassificationContext, out *builder) {
	for _, m := range amountRegex.FindAllString(in.text, -1) {
		out.add(Amounts, foldSpaces(m))
	}
}

func matchOrganizations(in *matchInput, _ *ClassificationContext, out *builder) {
	for _, m := range organizationRegex.FindAllString(in.text, -1) {
		if org, ok := canonicalOrganization(m); ok {
			out.add(Organizations, org)
		}
	}
}

func matchRemoteTools(in *matchInput, _ *ClassificationContext, out *builder) {
	for _, m := range remoteToolRegex.FindAllString(in.text, -1) {
		if tool, ok := canonicalRemoteTool(m); ok {
			out.add(RemoteAccessTools, tool)
		}
	}
}

func matchIdentifiers(in *matchInput, _ *ClassificationContext, out *builder) {
	for _, re := range []*regexp.Regexp{labeledIDRegex, prefixedIDRegex} {
		for _, span := range re.FindAllString(in.text, -1) {
			if id, cat, ok := NormalizeIDLabel(span); ok {
				out.add(cat, id)
			}
		}
	}
}

func matchKeywords(in *matchInput, _ *ClassificationContext, out *builder) {
	lower := strings.ToLower(in.text)
	for _, kw := range suspiciousKeywords {
		if strings.Contains(lower, kw) {
			out.add(SuspiciousKeywords, kw)
		}
	}
}
