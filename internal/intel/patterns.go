package intel

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Structural matchers. All regular expressions are RE2 (linear time); the
// digit-run matcher is a hand-written scanner because phone boundaries
// need context the regexp package cannot express.
var (
	atTokenRegex = regexp.MustCompile(`[a-zA-Z0-9._-]{2,}@[a-zA-Z0-9._-]{2,}`)

	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	urlRegex = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s"'<>]+`)

	bareDomainRegex = regexp.MustCompile(
		`(?i)\b(?:[a-z0-9-]+\.)+(?:` + strings.Join(linkTLDs, "|") + `)\b[/\w.~%?=&#+-]*`,
	)

	ifscRegex = regexp.MustCompile(`\b[A-Z]{4}0[A-Z0-9]{6}\b`)

	telegramRegex = regexp.MustCompile(`(?:@|(?i:t\.me/|telegram\.me/))([a-zA-Z][a-zA-Z0-9_]{4,})`)

	amountRegex = regexp.MustCompile(
		`(?i)(?:(?:\brs\.?|\binr|₹)\s*\d[\d,]*(?:\.\d{1,2})?|\b\d[\d,]*(?:\.\d{1,2})?\s*(?:rupees?|rs|lakhs?|crores?)\b)`,
	)

	organizationRegex = regexp.MustCompile(
		`\b(?i:` + phraseAlternation(organizationNames) + `)\b|\b(?:` + strings.Join(organizationAcronyms, "|") + `)\b`,
	)

	remoteToolRegex = regexp.MustCompile(
		`(?i)\b(?:any\s*desk|team\s*viewer|quick\s*support|ammyy\s*admin|ultra\s*viewer|air\s*droid|remote\s*desktop|rust\s*desk|supremo)\b`,
	)

	labeledIDRegex = regexp.MustCompile(
		`(?i)\b(?:case|reference|ref|fir|complaint|ticket|incident|policy|insurance|order|transaction|txn|tracking|shipment|invoice|awb)\b` +
			`\.?(?:\s*(?:no\b\.?|number\b|num\b|id\b|#))?(?:\s*(?:is|was)\b)?\s*[:#.-]?\s*[a-z0-9/-]*\d[a-z0-9/-]*`,
	)

	prefixedIDRegex = regexp.MustCompile(
		`(?i)\b(?:case|ref|fir|cmp|tkt|pol|ins|ord|txn|trk|inv|awb|shp)[-/#:]?\d[a-z0-9/-]*\b`,
	)

	quotedRegex = regexp.MustCompile(`"([^"]+)"`)
)

var organizationCanonical = func() map[string]string {
	m := make(map[string]string, len(organizationNames)+len(organizationAcronyms))
	for _, n := range organizationNames {
		m[foldSpaces(strings.ToLower(n))] = n
	}
	for _, a := range organizationAcronyms {
		m[a] = a
	}
	return m
}()

func phraseAlternation(phrases []string) string {
	parts := make([]string, len(phrases))
	for i, p := range phrases {
		parts[i] = strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`)
	}
	return strings.Join(parts, "|")
}

func foldSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// canonicalOrganization maps a raw organization match to its vocabulary
// spelling.
func canonicalOrganization(match string) (string, bool) {
	if c, ok := organizationCanonical[match]; ok {
		return c, true
	}
	c, ok := organizationCanonical[foldSpaces(strings.ToLower(match))]
	return c, ok
}

// canonicalRemoteTool maps a raw remote-access tool match to its
// canonical lowercase name.
func canonicalRemoteTool(match string) (string, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(match), ""))
	c, ok := remoteAccessTools[key]
	return c, ok
}

// digitRun is a maximal stretch of digit groups joined by single space or
// hyphen separators, e.g. "+91 98765-43210" has groups 91, 98765, 43210.
type digitRun struct {
	start, end int
	groups     []string
	// leftBounded and rightBounded report whether the run is not glued to
	// a letter, digit or underscore on that side.
	leftBounded  bool
	rightBounded bool
}

// scanDigitRuns finds every digit run in text in a single pass.
func scanDigitRuns(text string) []digitRun {
	var runs []digitRun
	n := len(text)
	i := 0
	for i < n {
		if !isASCIIDigit(text[i]) {
			i++
			continue
		}
		run := digitRun{start: i}
		j := i
		for {
			k := j
			for k < n && isASCIIDigit(text[k]) {
				k++
			}
			run.groups = append(run.groups, text[j:k])
			j = k
			if j+1 < n && (text[j] == ' ' || text[j] == '-') && isASCIIDigit(text[j+1]) {
				j++
				continue
			}
			break
		}
		run.end = j
		run.leftBounded = !wordRuneBefore(text, skipPlus(text, run.start))
		run.rightBounded = !wordRuneAt(text, run.end)
		runs = append(runs, run)
		i = j
	}
	return runs
}

func skipPlus(text string, start int) int {
	if start > 0 && text[start-1] == '+' {
		return start - 1
	}
	return start
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func wordRuneBefore(text string, i int) bool {
	if i <= 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return isWordRune(r)
}

func wordRuneAt(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return isWordRune(r)
}

// runUnit is a span of groups in a run that reads as one number. A
// leading 91 or 0 group is kept in its unit as a dialling prefix.
type runUnit struct {
	first, last int
	prefixed    bool
}

// runUnits splits a run into the numbers it carries. A run whose groups
// are all long enough to be an account by itself, optionally led by a
// dialling prefix group, is a list of separate numbers; any other run is
// one number, so a phone is never cut out of the middle of a longer one.
func runUnits(run digitRun) []runUnit {
	groups := run.groups
	from := 0
	if len(groups) > 2 && isDialPrefix(groups[0]) {
		from = 1
	}
	if len(groups)-from < 2 || !allLongGroups(groups[from:]) {
		return []runUnit{{first: 0, last: len(groups) - 1}}
	}
	units := make([]runUnit, 0, len(groups)-from)
	for g := from; g < len(groups); g++ {
		units = append(units, runUnit{first: g, last: g})
	}
	if from == 1 {
		units[0] = runUnit{first: 0, last: 1, prefixed: true}
	}
	return units
}

func isDialPrefix(group string) bool {
	return group == "91" || group == "0"
}

func (u runUnit) digits(run digitRun) string {
	return strings.Join(run.groups[u.first:u.last+1], "")
}

// phoneWindow is a unit of a run that reads as one phone number.
type phoneWindow struct {
	first, last int
	number      string
}

// phoneWindows returns the units of a run that read as phone numbers.
func phoneWindows(run digitRun) []phoneWindow {
	var out []phoneWindow
	for _, u := range runUnits(run) {
		if num, ok := readPhone(u.digits(run)); ok {
			out = append(out, phoneWindow{first: u.first, last: u.last, number: num})
		}
	}
	return out
}

// readPhone recognizes Indian mobile numbers with optional 91 or 0 prefix,
// and 1800 toll-free numbers, returning the canonical digit string.
func readPhone(digits string) (string, bool) {
	if isTollFree(digits) {
		return digits, true
	}
	local := digits
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		local = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		local = digits[1:]
	case len(digits) != 10:
		return "", false
	}
	if local[0] < '6' || local[0] > '9' {
		return "", false
	}
	return local, true
}

func isTollFree(digits string) bool {
	return strings.HasPrefix(digits, "1800") && (len(digits) == 10 || len(digits) == 11)
}

// accountSegment is a candidate number for bank-account or card
// classification, with its group structure.
type accountSegment struct {
	digits string
	groups []string
}

// accountSegments returns the units of a run not claimed by a phone
// window as bank/card candidates. A dialling prefix is dropped from its
// unit. Segments glued to surrounding letters are dropped.
func accountSegments(run digitRun, windows []phoneWindow) []accountSegment {
	claimed := make(map[int]bool, len(windows))
	for _, w := range windows {
		claimed[w.first] = true
	}

	var out []accountSegment
	for _, u := range runUnits(run) {
		if claimed[u.first] {
			continue
		}
		if u.first == 0 && !run.leftBounded {
			continue
		}
		if u.last == len(run.groups)-1 && !run.rightBounded {
			continue
		}
		from := u.first
		if u.prefixed {
			from++
		}
		groups := run.groups[from : u.last+1]
		out = append(out, accountSegment{digits: strings.Join(groups, ""), groups: groups})
	}
	return out
}

func allLongGroups(groups []string) bool {
	for _, g := range groups {
		if len(g) < minAccountDigits {
			return false
		}
	}
	return true
}

// cardLike reports whether the groups are laid out like a payment card:
// one unbroken block, blocks of four with a shorter tail, or the 4-6-5 and
// 4-6-4 layouts.
func cardLike(groups []string) bool {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	if n < 13 || n > 19 {
		return false
	}
	if len(groups) == 1 {
		return true
	}
	if len(groups) == 3 && len(groups[0]) == 4 && len(groups[1]) == 6 && (len(groups[2]) == 5 || len(groups[2]) == 4) {
		return true
	}
	for i, g := range groups {
		last := i == len(groups)-1
		if !last && len(g) != 4 {
			return false
		}
		if last && (len(g) < 1 || len(g) > 4) {
			return false
		}
	}
	return true
}

// linkHost returns the lowercase host of a link with scheme and a leading
// www. removed.
func linkHost(link string) string {
	h := strings.ToLower(link)
	if i := strings.Index(h, "://"); i >= 0 {
		h = h[i+3:]
	}
	h = strings.TrimPrefix(h, "www.")
	if i := strings.IndexAny(h, "/?#"); i >= 0 {
		h = h[:i]
	}
	if i := strings.IndexByte(h, ':'); i >= 0 {
		h = h[:i]
	}
	return h
}

// isDangerousDownload reports whether the final path segment of a link
// ends in an installable or executable extension. Links without a path
// never qualify, so hosts under TLDs like .zip are not downloads.
func isDangerousDownload(link string) bool {
	l := strings.ToLower(link)
	if i := strings.Index(l, "://"); i >= 0 {
		l = l[i+3:]
	}
	if i := strings.IndexAny(l, "?#"); i >= 0 {
		l = l[:i]
	}
	slash := strings.IndexByte(l, '/')
	if slash < 0 {
		return false
	}
	path := l[slash:]
	seg := path[strings.LastIndexByte(path, '/')+1:]
	dot := strings.LastIndexByte(seg, '.')
	if dot < 0 {
		return false
	}
	return dangerousExtensions.has(seg[dot+1:])
}

// trimLink drops sentence punctuation that the URL matchers swallow.
func trimLink(link string) string {
	return strings.TrimRight(link, ".,;:!?)]}")
}

// isLocalPartByte reports whether b can appear in the local part of an
// address token, which means an @ right after it is not a handle prefix.
func isLocalPartByte(b byte) bool {
	return b == '.' || b == '_' || b == '-' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || isASCIIDigit(b)
}
