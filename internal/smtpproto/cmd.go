// Package smtpproto implements the framed SMTP command and reply parsers:
// recognizing AUTH PLAIN and DATA on the client side, reply codes and AUTH
// capability announcements on the server side, and the byte-level DATA
// terminator scanner that keeps the relay opaque while in DATA mode.
package smtpproto

import "strings"

type CmdKind int

const (
	CmdOther CmdKind = iota
	CmdAuthPlain
	CmdData
)

// Cmd is a parsed client command line. Line retains the raw bytes
// (including the trailing CRLF/LF); Data is the credential payload for
// CmdAuthPlain, excluding leading whitespace and the line terminator.
type Cmd struct {
	Kind CmdKind
	Line []byte
	Data []byte
}

// ParseCmd recognizes AUTH PLAIN and DATA case-insensitively; anything else
// is CmdOther and forwarded verbatim by the mediator.
func ParseCmd(line []byte) Cmd {
	if rest, ok := matchKeyword(line, "AUTH PLAIN"); ok {
		return Cmd{Kind: CmdAuthPlain, Line: line, Data: trimCRLF(skipSpaces(rest))}
	}
	if _, ok := matchKeyword(line, "DATA"); ok {
		return Cmd{Kind: CmdData, Line: line}
	}
	return Cmd{Kind: CmdOther, Line: line}
}

// matchKeyword reports whether line begins with kw case-insensitively,
// followed by a space or line terminator, returning the remainder after kw.
func matchKeyword(line []byte, kw string) ([]byte, bool) {
	if len(line) <= len(kw) {
		return nil, false
	}
	if !strings.EqualFold(string(line[:len(kw)]), kw) {
		return nil, false
	}
	switch line[len(kw)] {
	case ' ', '\r', '\n':
		return line[len(kw):], true
	default:
		return nil, false
	}
}

func skipSpaces(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == ' ' {
		i++
	}
	return b[i:]
}

func trimCRLF(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] != '\r' && b[i] != '\n' {
		i++
	}
	return b[:i]
}
