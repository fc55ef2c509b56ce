package deck

import (
	"reflect"
	"strings"
	"testing"
)

func TestTTSParser(t *testing.T) {
	p := NewTTSParser()

	tests := []struct {
		text  string
		codes []TTSCode
	}{
		{
			text: "OGN-253-1",
			codes: []TTSCode{
				{
					Raw:       "OGN-253-1",
					Set:       "OGN",
					Number:    "253",
					Quantity:  1,
					ImageCode: "OGN-253",
					ImageURL:  DefaultImageBaseURL + "OGN-253.jpg",
				},
			},
		},
		{
			text: "OGN-043-2\nALT-7-1",
			codes: []TTSCode{
				{
					Raw:       "OGN-043-2",
					Set:       "OGN",
					Number:    "043",
					Quantity:  2,
					ImageCode: "OGN-043",
					ImageURL:  DefaultImageBaseURL + "OGN-043.jpg",
				},
				{
					Raw:       "ALT-7-1",
					Set:       "ALT",
					Number:    "7",
					Quantity:  1,
					ImageCode: "ALT-7",
					ImageURL:  DefaultImageBaseURL + "ALT-7.jpg",
				},
			},
		},
	}
	for _, tt := range tests {
		res := p.Parse(tt.text)
		if len(res.Warnings) != 0 {
			t.Errorf("Parse(%q) warnings = %v, want none", tt.text, res.Warnings)
		}
		if !reflect.DeepEqual(res.Codes, tt.codes) {
			t.Errorf("Parse(%q) codes = %+v, want %+v", tt.text, res.Codes, tt.codes)
		}
		if res.TotalFound != len(tt.codes) {
			t.Errorf("Parse(%q) totalFound = %d, want %d", tt.text, res.TotalFound, len(tt.codes))
		}
	}
}

func TestTTSParserInvalidTokens(t *testing.T) {
	p := NewTTSParser()

	res := p.Parse("OGN-253-1 OGN-254-1\nBAD")
	if len(res.Codes) != 2 {
		t.Fatalf("codes = %d, want 2", len(res.Codes))
	}
	if res.TotalFound != 3 {
		t.Errorf("totalFound = %d, want 3", res.TotalFound)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", res.Warnings)
	}
	if !strings.Contains(res.Warnings[0], "token 3") || !strings.Contains(res.Warnings[0], `"BAD"`) {
		t.Errorf("warning = %q, want position 3 and original text", res.Warnings[0])
	}
}

func TestTTSParserRejectsBadShapes(t *testing.T) {
	p := NewTTSParser()

	for _, tok := range []string{
		"ogn-253-1",   // lowercase set
		"OGN-253",     // missing quantity
		"OGN-253-1-2", // trailing group
		"OGN--1",      // empty number
		"253-OGN-1",   // groups out of order
	} {
		res := p.Parse(tok)
		if len(res.Codes) != 0 {
			t.Errorf("Parse(%q) produced codes %v, want none", tok, res.Codes)
		}
		if len(res.Warnings) != 1 {
			t.Errorf("Parse(%q) warnings = %v, want one", tok, res.Warnings)
		}
		if res.TotalFound != 1 {
			t.Errorf("Parse(%q) totalFound = %d, want 1", tok, res.TotalFound)
		}
	}
}

func TestTTSParserCountsValidPlusInvalid(t *testing.T) {
	p := NewTTSParser()
	res := p.Parse("OGN-1-1 nope OGN-2-1  \n x OGN-3-4")
	if got := len(res.Codes) + len(res.Warnings); got != res.TotalFound {
		t.Errorf("codes+warnings = %d, want totalFound %d", got, res.TotalFound)
	}
	if res.TotalFound != 5 {
		t.Errorf("totalFound = %d, want 5", res.TotalFound)
	}
}

func TestTTSParserOversizeInput(t *testing.T) {
	p := NewTTSParser(WithMaxImportBytes(16))
	res := p.Parse("OGN-253-1 OGN-254-1 OGN-255-1")
	if len(res.Codes) != 0 || res.TotalFound != 0 {
		t.Errorf("oversize input parsed anyway: %+v", res)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "import limit") {
		t.Errorf("warnings = %v, want single size warning", res.Warnings)
	}
}

func TestTTSParserCustomBaseURL(t *testing.T) {
	p := NewTTSParser(WithImageBaseURL("https://img.example.com/"))
	res := p.Parse("OGN-253-1")
	if len(res.Codes) != 1 {
		t.Fatalf("codes = %v", res.Codes)
	}
	if res.Codes[0].ImageURL != "https://img.example.com/OGN-253.jpg" {
		t.Errorf("imageURL = %q", res.Codes[0].ImageURL)
	}
}
