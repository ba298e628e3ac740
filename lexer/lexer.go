package lexer

import (
	"strings"
	"unicode"

	"github.com/lookbusy1344/hlasm-ls/diag"
)

// DefaultTabWidth is the column width a literal tab expands to for the
// purposes of column accounting only (the byte stream itself is not
// rewritten).
const DefaultTabWidth = 8

// processWindow is the number of physical lines within which a leading
// "*PROCESS" is recognized: 10 normally, 11 once an ICTL has already been seen.
const processWindow = 10

// Lexer tokenizes one file's worth of HLASM source under the column
// regime described in §4.A.
type Lexer struct {
	filename string
	lines    []string // physical lines, line terminators stripped
	cols     Columns
	tabWidth int
	dbcs     bool
	diags    *diag.Collector

	ictlSeen  bool // an ICTL has been processed; widens the *PROCESS window to 11
	apostropheParity int
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithDBCS enables DBCS-shift continuation handling (§4.A "DBCS mode").
func WithDBCS(enabled bool) Option {
	return func(l *Lexer) { l.dbcs = enabled }
}

// WithTabWidth overrides the column width a tab expands to.
func WithTabWidth(w int) Option {
	return func(l *Lexer) {
		if w > 0 {
			l.tabWidth = w
		}
	}
}

// WithColumns overrides the initial BEGIN/END/CONTINUE boundaries, e.g.
// when resuming mid-file after an ICTL seen in an earlier, already-lexed part.
func WithColumns(c Columns) Option {
	return func(l *Lexer) { l.cols = c }
}

// New creates a Lexer over one file's source text.
func New(source, filename string, diags *diag.Collector, opts ...Option) *Lexer {
	l := &Lexer{
		filename: filename,
		lines:    splitPhysicalLines(source),
		cols:     DefaultColumns(),
		tabWidth: DefaultTabWidth,
		diags:    diags,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func splitPhysicalLines(source string) []string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.ReplaceAll(source, "\r", "\n")
	if source == "" {
		return []string{""}
	}
	lines := strings.Split(source, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" && strings.HasSuffix(source, "\n") {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// columnChar returns the byte occupying 0-indexed column col of line raw,
// expanding tabs for column accounting only. ok is false past end of line.
func columnChar(raw string, tabWidth, col int) (ch byte, ok bool) {
	curCol := 0
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b == '\t' {
			width := tabWidth - (curCol % tabWidth)
			if width <= 0 {
				width = tabWidth
			}
			if col >= curCol && col < curCol+width {
				return ' ', true
			}
			curCol += width
		} else {
			if col == curCol {
				return b, true
			}
			curCol++
		}
	}
	return 0, false
}

// columnByteOffset maps a 0-indexed column to a byte offset into raw,
// clamping to len(raw) past the end of the line.
func columnByteOffset(raw string, tabWidth, col int) int {
	curCol := 0
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b == '\t' {
			width := tabWidth - (curCol % tabWidth)
			if width <= 0 {
				width = tabWidth
			}
			if col >= curCol && col < curCol+width {
				return i
			}
			curCol += width
		} else {
			if col == curCol {
				return i
			}
			curCol++
		}
	}
	return len(raw)
}

// Tokenize lexes the entire file, returning the complete token stream
// (including hidden-channel tokens); lexical diagnostics raised along
// the way go to the lexer's collector, not the return value. Failure modes (§4.A "Failure modes") are reported but
// recovered from: the lexer never aborts.
func (l *Lexer) Tokenize() []Token {
	var out []Token
	lineIdx := 0
	afterContinuation := false

	for lineIdx < len(l.lines) {
		toks, nextLine, consumedContinuation := l.tokenizeLogicalLine(lineIdx, afterContinuation)
		out = append(out, toks...)
		lineIdx = nextLine
		afterContinuation = consumedContinuation
	}

	out = append(out, Token{Kind: TokenEOF, Range: Range{Start: Position{Line: len(l.lines), Column: 0}, End: Position{Line: len(l.lines), Column: 0}}})
	return out
}

// tokenizeLogicalLine lexes one logical line starting at physical line
// startLine, following continuations until the logical line ends, and
// returns the index of the next unconsumed physical line.
func (l *Lexer) tokenizeLogicalLine(startLine int, firstTokenAfterContinuation bool) (toks []Token, nextLine int, lastWasContinuation bool) {
	lineIdx := startLine
	begin := l.cols.Begin
	afterCont := firstTokenAfterContinuation

	for {
		raw := l.lines[lineIdx]

		// Phase 1: left ignore zone (columns < BEGIN).
		if begin > 0 {
			end := columnByteOffset(raw, l.tabWidth, begin)
			if end > 0 {
				toks = append(toks, Token{
					Kind: TokenIgnored, Text: raw[:end], Channel: ChannelHidden,
					Range: Range{Start: Position{lineIdx, 0}, End: Position{lineIdx, begin}},
				})
			}
		}

		// *PROCESS / comment sniffing at column BEGIN.
		bodyStartByte := columnByteOffset(raw, l.tabWidth, begin)
		firstCh, hasFirst := columnChar(raw, l.tabWidth, begin)

		isProcessLine := l.isProcessLine(lineIdx, raw, begin)
		if hasFirst && firstCh == '*' && !isProcessLine {
			isMacroComment := strings.HasPrefix(raw[bodyStartByte:], ".*")
			_ = isMacroComment
			commentEnd := columnByteOffset(raw, l.tabWidth, l.cols.End)
			if commentEnd > len(raw) {
				commentEnd = len(raw)
			}
			text := raw[bodyStartByte:commentEnd]
			toks = append(toks, Token{
				Kind: TokenComment, Text: text, Channel: ChannelHidden,
				Range: Range{Start: Position{lineIdx, begin}, End: Position{lineIdx, l.cols.End}},
			})
			toks = append(toks, l.rightIgnoreToken(lineIdx, raw))
			toks = append(toks, Token{Kind: TokenEOLLN, Range: Range{Start: Position{lineIdx, l.cols.End}, End: Position{lineIdx, l.cols.End}}})
			return toks, lineIdx + 1, false
		}

		// Phase 2: body tokens from BEGIN to END-1, with continuation check
		// folded in so AfterContinuation can be stamped on the right token.
		bodyToks, reachedEnd := l.tokenizeBody(lineIdx, begin, afterCont)
		toks = append(toks, bodyToks...)
		afterCont = false

		// adjust ICTL column regime for subsequent *lines* if this logical
		// line turned out to be an ICTL directive.
		l.maybeApplyICTL(bodyToks)

		if !reachedEnd {
			// ran out of line before reaching END: normal end of logical line.
			toks = append(toks, Token{Kind: TokenEOLLN, Range: Range{Start: Position{lineIdx, len(raw)}, End: Position{lineIdx, len(raw)}}})
			return toks, lineIdx + 1, false
		}

		endCol := l.effectiveEndColumn(raw)
		contCh, contOk := columnChar(raw, l.tabWidth, endCol)
		continues := contOk && contCh != ' ' && contCh != 0

		if !l.cols.ContinuationEnabled() {
			if continues {
				l.diags.Add(diag.Errorf("S001", diag.Range{
					Start: diag.Position{File: l.filename, Line: lineIdx, Column: endCol},
					End:   diag.Position{File: l.filename, Line: lineIdx, Column: endCol + 1},
				}, "continuation attempted but disabled (END=80)"))
			}
			toks = append(toks, l.rightIgnoreToken(lineIdx, raw))
			toks = append(toks, Token{Kind: TokenEOLLN, Range: Range{Start: Position{lineIdx, endCol}, End: Position{lineIdx, endCol}}})
			return toks, lineIdx + 1, false
		}

		if !continues {
			toks = append(toks, l.rightIgnoreToken(lineIdx, raw))
			toks = append(toks, Token{Kind: TokenEOLLN, Range: Range{Start: Position{lineIdx, endCol}, End: Position{lineIdx, endCol}}})
			return toks, lineIdx + 1, false
		}

		// Phase 3: continuation fires.
		toks = append(toks, Token{
			Kind: TokenContinuation, Channel: ChannelHidden,
			Range: Range{Start: Position{lineIdx, endCol}, End: Position{lineIdx, endCol + 1}},
		})
		rest := raw[columnByteOffset(raw, l.tabWidth, endCol+1):]
		if rest != "" {
			toks = append(toks, Token{
				Kind: TokenIgnored, Text: rest, Channel: ChannelHidden,
				Range: Range{Start: Position{lineIdx, endCol + 1}, End: Position{lineIdx, endCol + 1 + len(rest)}},
			})
		}

		if lineIdx+1 >= len(l.lines) {
			// malformed: continuation with no following line.
			l.diags.Add(diag.Errorf("S002", diag.Range{
				Start: diag.Position{File: l.filename, Line: lineIdx, Column: endCol},
				End:   diag.Position{File: l.filename, Line: lineIdx, Column: endCol + 1},
			}, "continuation at end of file"))
			toks = append(toks, Token{Kind: TokenEOLLN})
			return toks, lineIdx + 1, false
		}

		// Validate the continuation line's left zone now (the hidden ignored
		// token for it is emitted by Phase 1 on the next loop iteration,
		// once lineIdx/begin below point at it).
		nextRaw := l.lines[lineIdx+1]
		leftEnd := columnByteOffset(nextRaw, l.tabWidth, l.cols.Continue)
		if strings.TrimSpace(nextRaw[:min(leftEnd, len(nextRaw))]) != "" {
			l.diags.Add(diag.Errorf("S003", diag.Range{
				Start: diag.Position{File: l.filename, Line: lineIdx + 1, Column: 0},
				End:   diag.Position{File: l.filename, Line: lineIdx + 1, Column: l.cols.Continue},
			}, "continuation line has non-blank text before CONTINUE column"))
		}

		lineIdx++
		begin = l.cols.Continue
		afterCont = true
	}
}

// tokenizeBody lexes columns [begin, END) of one physical line. reachedEnd
// is true iff the scan ran all the way to the END boundary (as opposed to
// hitting physical end-of-line first, e.g. a short line).
func (l *Lexer) tokenizeBody(lineIdx, begin int, markNextAfterContinuation bool) (toks []Token, reachedEnd bool) {
	raw := l.lines[lineIdx]
	end := l.effectiveEndColumn(raw)
	col := begin
	first := markNextAfterContinuation

	for col < end {
		ch, ok := columnChar(raw, l.tabWidth, col)
		if !ok {
			return toks, false
		}

		switch {
		case ch == ' ' || ch == '\t':
			startCol := col
			for col < end {
				c, ok := columnChar(raw, l.tabWidth, col)
				if !ok || (c != ' ' && c != '\t') {
					break
				}
				col++
			}
			toks = append(toks, l.emit(TokenSpace, "", lineIdx, startCol, col, false))

		case ch == ',':
			toks = append(toks, l.emit(TokenComma, ",", lineIdx, col, col+1, first))
			col++
			first = false

		case ch == '(':
			toks = append(toks, l.emit(TokenLParen, "(", lineIdx, col, col+1, first))
			col++
			first = false

		case ch == ')':
			toks = append(toks, l.emit(TokenRParen, ")", lineIdx, col, col+1, first))
			col++
			first = false

		case ch == '\'':
			l.apostropheParity++
			toks = append(toks, l.emit(TokenApostrophe, "'", lineIdx, col, col+1, first))
			col++
			first = false

		case ch == '&':
			toks = append(toks, l.emit(TokenAmpersand, "&", lineIdx, col, col+1, first))
			col++
			first = false

		case ch == '.':
			toks = append(toks, l.emit(TokenDot, ".", lineIdx, col, col+1, first))
			col++
			first = false

		case ch == '*' || ch == '-' || ch == '+' || ch == '=' || ch == '<' || ch == '>' || ch == '/' || ch == '|':
			toks = append(toks, l.emit(TokenOperator, string(ch), lineIdx, col, col+1, first))
			col++
			first = false

		default:
			startCol := col
			startByte := columnByteOffset(raw, l.tabWidth, col)
			for col < end {
				c, ok := columnChar(raw, l.tabWidth, col)
				if !ok || isSpace(c) || isDivider(c) {
					break
				}
				col++
			}
			endByte := columnByteOffset(raw, l.tabWidth, col)
			if endByte <= startByte {
				// shouldn't happen, but avoid infinite loop on an unexpected divider.
				col++
				continue
			}
			word := strings.ToUpper(raw[startByte:endByte])
			kind := classifyWord(word)
			toks = append(toks, l.emit(kind, word, lineIdx, startCol, col, first))
			first = false
		}
	}
	return toks, true
}

// classifyWord decides the token kind for a maximal word run, per
// §4.A "Identifier & word lexing".
func classifyWord(word string) TokenKind {
	if len(word) <= 3 {
		if k, ok := keywordKinds[word]; ok {
			return k
		}
	}
	if isAllDigits(word) {
		return TokenNumber
	}
	if len(word) > 0 && len(word) <= 63 && isAlpha(rune(word[0])) && isAllAlnum(word) {
		return TokenOrdinarySymbol
	}
	return TokenIdentifier
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isAlpha(r rune) bool { return unicode.IsLetter(r) }

func isAllAlnum(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func (l *Lexer) emit(kind TokenKind, text string, line, startCol, endCol int, afterCont bool) Token {
	if text == "" && endCol > startCol {
		raw := l.lines[line]
		text = raw[columnByteOffset(raw, l.tabWidth, startCol):columnByteOffset(raw, l.tabWidth, endCol)]
	}
	ch := ChannelDefault
	if kind == TokenSpace {
		ch = ChannelHidden
	}
	return Token{
		Kind: kind, Text: text, Channel: ch,
		Range:             Range{Start: Position{line, startCol}, End: Position{line, endCol}},
		AfterContinuation: afterCont,
	}
}

// effectiveEndColumn applies the DBCS-shift retreat (§4.A "DBCS mode"):
// when DBCS is enabled, inspect the byte at column END+1; while it is
// non-blank, non-EOF and matches the original sentinel, retreat END
// leftward. The retreat never passes BEGIN+1.
func (l *Lexer) effectiveEndColumn(raw string) int {
	if !l.dbcs {
		return l.cols.End
	}
	end := l.cols.End
	sentinel, ok := columnChar(raw, l.tabWidth, end+1)
	if !ok || sentinel == ' ' || sentinel == 0 {
		return end
	}
	for end > l.cols.Begin+1 {
		ch, ok := columnChar(raw, l.tabWidth, end)
		if !ok || ch != sentinel {
			break
		}
		end--
	}
	return end
}

func (l *Lexer) rightIgnoreToken(lineIdx int, raw string) Token {
	end := l.effectiveEndColumn(raw)
	startByte := columnByteOffset(raw, l.tabWidth, end)
	if startByte >= len(raw) {
		return Token{Kind: TokenIgnored, Channel: ChannelHidden, Range: Range{Start: Position{lineIdx, end}, End: Position{lineIdx, end}}}
	}
	return Token{
		Kind: TokenIgnored, Text: raw[startByte:], Channel: ChannelHidden,
		Range: Range{Start: Position{lineIdx, end}, End: Position{lineIdx, end + (len(raw) - startByte)}},
	}
}

// isProcessLine recognizes a leading "*PROCESS" within the first 10 lines
// (11 once an ICTL has been seen).
func (l *Lexer) isProcessLine(lineIdx int, raw string, begin int) bool {
	window := processWindow
	if l.ictlSeen {
		window++
	}
	if lineIdx >= window {
		return false
	}
	byteStart := columnByteOffset(raw, l.tabWidth, begin)
	rest := raw[byteStart:]
	if !strings.HasPrefix(strings.ToUpper(rest), "*PROCESS") {
		return false
	}
	after := rest[len("*PROCESS"):]
	if after != "" && after[0] != ' ' && after[0] != ',' {
		return false
	}
	l.apostropheParity = 0 // reset on *PROCESS entry, not on ordinary statement boundaries
	return true
}

// maybeApplyICTL updates the column regime for subsequent physical lines
// if the just-tokenized logical line is an ICTL directive.
func (l *Lexer) maybeApplyICTL(toks []Token) {
	i := 0
	for i < len(toks) && toks[i].Channel == ChannelHidden {
		i++
	}
	if i >= len(toks) || toks[i].Kind != TokenOrdinarySymbol || toks[i].Text != "ICTL" {
		return
	}

	var nums []int
	j := i + 1
	for j < len(toks) && len(nums) < 3 {
		t := toks[j]
		switch t.Kind {
		case TokenSpace, TokenComma:
		case TokenNumber:
			n := 0
			for _, r := range t.Text {
				n = n*10 + int(r-'0')
			}
			nums = append(nums, n)
		default:
			j = len(toks)
			continue
		}
		j++
	}
	if len(nums) == 0 {
		return
	}
	begin := nums[0]
	var end, cont *int
	if len(nums) > 1 {
		end = &nums[1]
	}
	if len(nums) > 2 {
		cont = &nums[2]
	}
	endVal := l.cols.End + 1
	if end != nil {
		endVal = *end
	}
	contVal := l.cols.Continue + 1
	if cont != nil {
		contVal = *cont
	}
	if err := ValidateICTL(begin, endVal, contVal); err != nil {
		l.diags.Add(diag.Errorf("S004", diag.Range{}, "invalid ICTL: %v", err))
		return
	}
	l.cols = FromICTL(begin, end, cont)
	l.ictlSeen = true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
