package deck

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

const (
	// DefaultImageBaseURL is prepended to SET-NUMBER image codes.
	DefaultImageBaseURL = "https://cards.cardtable.app/images/"
	// DefaultMaxImportBytes bounds raw import input before tokenization.
	DefaultMaxImportBytes = 256 * 1024
)

// code is the grammar for a single TTS token, e.g. "OGN-253-1". Number and
// quantity stay strings here so leading zeros survive into image codes.
type code struct {
	Set      string `parser:"@Set"`
	Number   string `parser:"'-' @Int"`
	Quantity string `parser:"'-' @Int"`
}

// TTSCode is one decoded deck code.
type TTSCode struct {
	Raw       string
	Set       string
	Number    string
	Quantity  int
	ImageCode string
	ImageURL  string
}

// TTSResult carries every valid code plus a warning per invalid token.
// TotalFound counts all non-empty tokens, valid or not.
type TTSResult struct {
	Codes      []TTSCode
	Warnings   []string
	TotalFound int
}

type TTSParser struct {
	parser   *participle.Parser[code]
	baseURL  string
	maxBytes int
}

type TTSOption func(*TTSParser)

func WithImageBaseURL(url string) TTSOption {
	return func(p *TTSParser) { p.baseURL = url }
}

func WithMaxImportBytes(n int) TTSOption {
	return func(p *TTSParser) { p.maxBytes = n }
}

func NewTTSParser(opts ...TTSOption) *TTSParser {
	parser := participle.MustBuild[code](
		participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
			{Name: "Set", Pattern: `[A-Z]+`},
			{Name: "Int", Pattern: `[0-9]+`},
			{Name: "Punct", Pattern: `-`},
		})),
	)
	p := &TTSParser{
		parser:   parser,
		baseURL:  DefaultImageBaseURL,
		maxBytes: DefaultMaxImportBytes,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse tokenizes txt on whitespace and decodes each token. Invalid tokens
// produce a positioned warning and are skipped; the rest of the input still
// parses. Oversized input is rejected whole before tokenization.
func (p *TTSParser) Parse(txt string) TTSResult {
	res := TTSResult{}
	if len(txt) > p.maxBytes {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("input is %d bytes, exceeding the %d byte import limit", len(txt), p.maxBytes))
		return res
	}
	for i, tok := range strings.Fields(txt) {
		res.TotalFound++
		c, err := p.parser.ParseString("", tok)
		if err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("token %d: invalid code %q", i+1, tok))
			continue
		}
		qty, err := strconv.Atoi(c.Quantity)
		if err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("token %d: invalid quantity in %q", i+1, tok))
			continue
		}
		imageCode := c.Set + "-" + c.Number
		res.Codes = append(res.Codes, TTSCode{
			Raw:       tok,
			Set:       c.Set,
			Number:    c.Number,
			Quantity:  qty,
			ImageCode: imageCode,
			ImageURL:  p.baseURL + imageCode + ".jpg",
		})
	}
	return res
}
