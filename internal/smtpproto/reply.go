package smtpproto

import "strings"

type ReplyKind int

const (
	ReplyOther ReplyKind = iota
	ReplyAuthCap
)

// Reply is a parsed server reply line. Code and IsLast are only meaningful
// when Parsed is true; a line failing the 3-digit-code grammar is reported
// with Parsed false and Kind ReplyOther, per the "exactly 3 digits or it's
// not a reply" rule.
type Reply struct {
	Raw    []byte
	Parsed bool
	Code   int
	IsLast bool
	Kind   ReplyKind
	Msg    []byte
}

// ParseReply parses the 3-digit code and separator, and classifies the line
// as an AUTH capability announcement when the text after the separator is
// case-insensitively "AUTH " followed immediately by its arguments.
func ParseReply(line []byte) Reply {
	if len(line) < 4 {
		return Reply{Raw: line}
	}
	for i := 0; i < 3; i++ {
		if line[i] < '0' || line[i] > '9' {
			return Reply{Raw: line}
		}
	}
	code := int(line[0]-'0')*100 + int(line[1]-'0')*10 + int(line[2]-'0')

	var isLast bool
	switch line[3] {
	case ' ':
		isLast = true
	case '-':
		isLast = false
	default:
		return Reply{Raw: line}
	}

	msg := trimCRLF(line[4:])
	r := Reply{Raw: line, Parsed: true, Code: code, IsLast: isLast, Msg: msg}
	if len(msg) >= 5 && strings.EqualFold(string(msg[:5]), "AUTH ") {
		r.Kind = ReplyAuthCap
	}
	return r
}
