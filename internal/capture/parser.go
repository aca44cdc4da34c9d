package capture

import (
	"regexp"
	"strings"
)

// ESPHome remote_receiver dump tags. A code is logged either on one line
// after tagDump, or announced by tagStart and spread over several tagDump
// lines.
const (
	tagStart = "[I][remote.pronto:231]: Received Pronto: data="
	tagDump  = "[I][remote.pronto:233]:"
	tagAny   = "[I][remote.pronto:"

	prontoEndWord = "0181"
)

var ansiEscape = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// LogParser reassembles Pronto codes from ESPHome log lines.
// It is not safe for concurrent use.
type LogParser struct {
	collecting bool
	lines      []string
}

// StripANSI removes terminal colour sequences from a log line.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// Feed consumes one log line and returns a complete code when one ends on it.
func (p *LogParser) Feed(line string) (string, bool) {
	line = StripANSI(line)

	if strings.Contains(line, tagStart) {
		// A new announcement discards an unfinished dump
		p.collecting = true
		p.lines = p.lines[:0]
		if rest := strings.TrimSpace(line[strings.Index(line, tagStart)+len(tagStart):]); rest != "" {
			p.lines = append(p.lines, rest)
		}
		return "", false
	}

	if i := strings.Index(line, tagDump); i >= 0 {
		data := strings.TrimSpace(line[i+len(tagDump):])

		if p.collecting {
			p.lines = append(p.lines, data)
			if strings.Contains(data, prontoEndWord) || (len(strings.Fields(data)) < 5 && len(p.lines) > 1) {
				return p.finish()
			}
			return "", false
		}

		if strings.HasPrefix(data, "0000") && strings.Contains(data, prontoEndWord) {
			return Normalize(data), true
		}
		return "", false
	}

	if p.collecting && !strings.Contains(line, tagAny) {
		return p.finish()
	}
	return "", false
}

// Flush returns a partially collected code, for use at end of input.
func (p *LogParser) Flush() (string, bool) {
	if !p.collecting {
		return "", false
	}
	return p.finish()
}

func (p *LogParser) finish() (string, bool) {
	code := Normalize(strings.Join(p.lines, " "))
	p.collecting = false
	p.lines = p.lines[:0]
	return code, code != ""
}

// Normalize collapses whitespace and splits run-together hex words so that
// equal codes compare equal.
func Normalize(code string) string {
	var words []string
	for _, f := range strings.Fields(code) {
		for len(f) > 4 && len(f)%4 == 0 {
			words = append(words, strings.ToUpper(f[:4]))
			f = f[4:]
		}
		words = append(words, strings.ToUpper(f))
	}
	return strings.Join(words, " ")
}
