package cleanup

import (
	"regexp"
	"sort"
	"strings"
)

// Interjection fillers removed in light mode.
var fillersLight = []string{"um", "uh", "ah", "er", "hmm", "mm", "mhm"}

// Additional fillers removed in standard mode.
var fillersStandard = []string{
	"like", "you know", "i mean", "so", "basically",
	"actually", "literally", "right", "okay", "well",
	"anyway", "you see", "kind of", "sort of",
}

// Phrases that introduce a corrected restart of the current clause.
var correctionMarkers = []string{
	"sorry", "i mean", "no wait", "actually",
	"let me rephrase", "correction", "rather",
}

// Repeated words kept verbatim when intentional-speech preservation is on.
var emphasisWords = map[string]bool{
	"very": true, "really": true, "so": true,
	"much": true, "too": true, "super": true,
}

// Words that mark "like" as content rather than filler when they follow it.
var likeContinuations = []string{"to", "the", "a", "my", "your", "this", "that"}

type fillerRule struct {
	word string
	re   *regexp.Regexp
}

// Cleaner removes speech disfluencies with rule-based passes. All patterns
// are compiled once at construction; Clean* methods are safe for concurrent
// use.
type Cleaner struct {
	preserveIntentional bool

	lightRules    []fillerRule
	standardRules []fillerRule
	falseStarts   []*regexp.Regexp
	likeToken     *regexp.Regexp
	soStart       *regexp.Regexp
	soClause      *regexp.Regexp
	wordToken     *regexp.Regexp
	leadEllipsis  *regexp.Regexp
	strayEllipsis *regexp.Regexp
	multiSpace    *regexp.Regexp
	spacePunct    *regexp.Regexp
}

// NewCleaner builds a rule-based cleaner. preserveIntentional keeps
// emphasis repetitions ("very very") and content uses of "like" intact.
func NewCleaner(preserveIntentional bool) *Cleaner {
	c := &Cleaner{
		preserveIntentional: preserveIntentional,
		likeToken:           regexp.MustCompile(`(?i)\blike\b`),
		soStart:             regexp.MustCompile(`(?i)^so\b,?\s+`),
		soClause:            regexp.MustCompile(`(?i)(\.\s+|,\s*)so\b,?\s+`),
		wordToken:           regexp.MustCompile(`[\p{L}\p{N}_]+`),
		leadEllipsis:        regexp.MustCompile(`^\s*\.{2,}\s*`),
		strayEllipsis:       regexp.MustCompile(`\.\s+\.{2,}\s*`),
		multiSpace:          regexp.MustCompile(` +`),
		spacePunct:          regexp.MustCompile(`\s+([.,!?])`),
	}

	c.lightRules = buildFillerRules(fillersLight)
	all := append(append([]string{}, fillersLight...), fillersStandard...)
	c.standardRules = buildFillerRules(all)

	for _, marker := range correctionMarkers {
		c.falseStarts = append(c.falseStarts,
			regexp.MustCompile(`(?i)[^.!?]*?\.\.\.\s*`+regexp.QuoteMeta(marker)+`,?\s*`))
	}
	return c
}

// buildFillerRules orders fillers longest first so phrase fillers are
// removed before the short tokens they contain.
func buildFillerRules(words []string) []fillerRule {
	sorted := append([]string{}, words...)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	rules := make([]fillerRule, 0, len(sorted))
	for _, w := range sorted {
		rules = append(rules, fillerRule{
			word: w,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b,?\s*`),
		})
	}
	return rules
}

// CleanLight removes only the elementary interjection fillers.
func (c *Cleaner) CleanLight(text string) string {
	if text == "" {
		return text
	}
	result := text
	for _, rule := range c.lightRules {
		result = rule.re.ReplaceAllString(result, "")
	}
	return c.normalizeWhitespace(result)
}

// CleanStandard removes false starts, the broader filler vocabulary,
// stutter repetitions, and the ellipses the first pass leaves behind.
func (c *Cleaner) CleanStandard(text string) string {
	if text == "" {
		return text
	}
	result := c.removeFalseStarts(text)
	result = c.removeFillers(result)
	result = c.collapseRepetitions(result)
	result = c.cleanEllipses(result)
	return c.normalizeWhitespace(result)
}

func (c *Cleaner) removeFalseStarts(text string) string {
	result := text
	for i, marker := range correctionMarkers {
		result = c.falseStarts[i].ReplaceAllString(result, "")
		result = collapseRepeatedCorrection(result, marker)
	}
	return result
}

// collapseRepeatedCorrection rewrites "X, marker, X" to a single "X" where
// the speaker restarted the same clause after a correction marker.
func collapseRepeatedCorrection(text, marker string) string {
	lower := strings.ToLower(text)
	markerLower := strings.ToLower(marker)
	var b strings.Builder
	pos := 0
	searchFrom := 0
	for {
		rel := strings.Index(lower[searchFrom:], markerLower)
		if rel < 0 {
			break
		}
		mStart := searchFrom + rel
		mEnd := mStart + len(marker)
		searchFrom = mEnd

		// The marker must directly follow a comma plus optional spacing.
		commaIdx := mStart
		for commaIdx > pos && isSpaceByte(text[commaIdx-1]) {
			commaIdx--
		}
		if commaIdx <= pos || text[commaIdx-1] != ',' {
			continue
		}
		commaIdx--

		// The first copy runs from just after the previous comma.
		segStart := pos
		if idx := strings.LastIndexByte(text[pos:commaIdx], ','); idx >= 0 {
			segStart = pos + idx + 1
		}
		if segStart >= commaIdx {
			continue
		}

		// Optional comma and spacing between the marker and the restart.
		restStart := mEnd
		if restStart < len(text) && text[restStart] == ',' {
			restStart++
		}
		wsEnd := restStart
		for wsEnd < len(text) && isSpaceByte(text[wsEnd]) {
			wsEnd++
		}

		matched := false
		for p := segStart; p < commaIdx && !matched; p++ {
			seg := text[p:commaIdx]
			for k := restStart; k <= wsEnd; k++ {
				if k+len(seg) <= len(text) && strings.EqualFold(text[k:k+len(seg)], seg) {
					b.WriteString(text[pos:p])
					b.WriteString(seg)
					pos = k + len(seg)
					searchFrom = pos
					matched = true
					break
				}
			}
		}
		if searchFrom >= len(text) {
			break
		}
	}
	b.WriteString(text[pos:])
	return b.String()
}

func (c *Cleaner) removeFillers(text string) string {
	result := text
	for _, rule := range c.standardRules {
		switch {
		case rule.word == "like" && c.preserveIntentional:
			result = c.removeLikeFiller(result)
		case rule.word == "so":
			result = c.removeClauseInitialSo(result)
		default:
			result = rule.re.ReplaceAllString(result, "")
		}
	}
	return result
}

// removeLikeFiller drops filler uses of "like" while keeping the verb
// ("I like pizza") and comparison ("looks like the one") senses.
func (c *Cleaner) removeLikeFiller(text string) string {
	matches := c.likeToken.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	pos := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start < pos || keepLike(text, start, end) {
			continue
		}
		b.WriteString(text[pos:start])
		cut := end
		if cut < len(text) && text[cut] == ',' {
			cut++
		}
		for cut < len(text) && isSpaceByte(text[cut]) {
			cut++
		}
		pos = cut
	}
	b.WriteString(text[pos:])
	return b.String()
}

func keepLike(text string, start, end int) bool {
	// Preceded by the pronoun I: "I like pizza".
	if start >= 2 && isSpaceByte(text[start-1]) &&
		(text[start-2] == 'I' || text[start-2] == 'i') &&
		(start == 2 || !isWordByte(text[start-3])) {
		return true
	}
	// Followed by a continuation that marks content usage: "like to",
	// "like the one". A comma directly after the token means filler.
	k := end
	for k < len(text) && isSpaceByte(text[k]) {
		k++
	}
	if k == end || k == len(text) {
		return false
	}
	rest := text[k:]
	if len(rest) > 8 {
		rest = rest[:8]
	}
	rest = strings.ToLower(rest)
	for _, cont := range likeContinuations {
		if strings.HasPrefix(rest, cont) {
			return true
		}
	}
	if strings.HasPrefix(rest, "it") && (len(rest) == 2 || !isWordByte(rest[2])) {
		return true
	}
	return false
}

// removeClauseInitialSo drops "so" when it opens a sentence or clause and
// a word follows; phrase-final uses ("I think so") are preserved.
func (c *Cleaner) removeClauseInitialSo(text string) string {
	if m := c.soStart.FindStringIndex(text); m != nil {
		if m[1] < len(text) && isASCIILetter(text[m[1]]) {
			text = text[m[1]:]
		}
	}
	matches := c.soClause.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	pos := 0
	for _, m := range matches {
		matchStart, matchEnd, anchorEnd := m[0], m[1], m[3]
		if matchStart < pos {
			continue
		}
		if matchEnd >= len(text) || !isASCIILetter(text[matchEnd]) {
			continue
		}
		b.WriteString(text[pos:anchorEnd])
		pos = matchEnd
	}
	b.WriteString(text[pos:])
	return b.String()
}

// collapseRepetitions reduces runs of an immediately repeated word to one
// occurrence, four words at a time. Emphasis doubles stay when
// intentional-speech preservation is on.
func (c *Cleaner) collapseRepetitions(text string) string {
	words := c.wordToken.FindAllStringIndex(text, -1)
	if len(words) < 2 {
		return text
	}
	var b strings.Builder
	pos := 0
	i := 0
	for i < len(words) {
		first := text[words[i][0]:words[i][1]]
		runEnd := i
		for runEnd+1 < len(words) && runEnd-i < 3 {
			gap := text[words[runEnd][1]:words[runEnd+1][0]]
			if gap == "" || !isAllSpace(gap) {
				break
			}
			next := text[words[runEnd+1][0]:words[runEnd+1][1]]
			if !strings.EqualFold(next, first) {
				break
			}
			runEnd++
		}
		if runEnd == i {
			i++
			continue
		}
		if c.preserveIntentional && emphasisWords[strings.ToLower(first)] {
			i = runEnd + 1
			continue
		}
		b.WriteString(text[pos:words[i][1]])
		pos = words[runEnd][1]
		i = runEnd + 1
	}
	b.WriteString(text[pos:])
	return b.String()
}

func (c *Cleaner) cleanEllipses(text string) string {
	result := c.leadEllipsis.ReplaceAllString(text, "")
	return c.strayEllipsis.ReplaceAllString(result, ". ")
}

func (c *Cleaner) normalizeWhitespace(text string) string {
	result := c.multiSpace.ReplaceAllString(text, " ")
	result = c.spacePunct.ReplaceAllString(result, "$1")
	return strings.TrimSpace(result)
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

func isAllSpace(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isSpaceByte(s[i]) {
			return false
		}
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= 'a' && b <= 'z')
}

func isASCIILetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
