// Package imapproto implements the framed IMAP command and reply parsers:
// tag/command/parameter extraction on the client side (including the
// quoted-string and atom forms of an IMAP string), and tagged/untagged/
// continuation classification plus CAPABILITY payload extraction on the
// server side.
package imapproto

import "strings"

type CmdKind int

const (
	CmdOther CmdKind = iota
	CmdLogin
)

// Cmd is a parsed client command line.
type Cmd struct {
	Kind  CmdKind
	Line  []byte
	Tag   []byte
	Param []byte
}

// ParseCmd extracts the leading tag and, if the command keyword is
// case-insensitively LOGIN, the remainder of the line as Param. A line
// whose first byte is not alphanumeric fails tag parsing but is still
// returned as CmdOther so the mediator forwards it verbatim.
func ParseCmd(line []byte) Cmd {
	tag, rest, ok := parseTag(line)
	if !ok {
		return Cmd{Kind: CmdOther, Line: line}
	}
	cmd := Cmd{Line: line, Tag: tag}

	name, paramRest := nextToken(skipSpaces(rest))
	if strings.EqualFold(string(name), "LOGIN") {
		cmd.Kind = CmdLogin
		cmd.Param = trimCRLF(paramRest)
	}
	return cmd
}

func parseTag(line []byte) (tag, rest []byte, ok bool) {
	i := 0
	for i < len(line) && isAlnum(line[i]) {
		i++
	}
	if i == 0 {
		return nil, line, false
	}
	return line[:i], line[i:], true
}

func nextToken(b []byte) (tok, rest []byte) {
	i := 0
	for i < len(b) && !isSpace(b[i]) {
		i++
	}
	return b[:i], b[i:]
}

func skipSpaces(b []byte) []byte {
	i := 0
	for i < len(b) && isSpace(b[i]) {
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

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
