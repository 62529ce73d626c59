package smtpproto

// dataTerminator is the literal byte sequence that ends an SMTP DATA
// payload. It is never reinterpreted as a command: DataScanner only ever
// looks for this exact sequence, so an embedded line that merely looks like
// a command (including a fake "AUTH PLAIN ...\r\n") cannot exit DATA mode.
var dataTerminator = []byte("\r\n.\r\n")

// DataScanner implements the rolling match against "\r\n.\r\n" described for
// the SMTP DATA boundary: a small state counter advanced per byte, reset on
// mismatch except when the mismatched byte itself restarts the pattern. It
// survives the terminator being split across arbitrarily many chunks.
type DataScanner struct {
	matched int
}

// Feed scans chunk for the terminator. bodyLen is the number of leading
// bytes of chunk that belong to the DATA payload (including the terminator
// itself, once found) and must be forwarded to the upstream; terminated
// reports whether the terminator completed within this chunk, in which case
// any bytes at chunk[bodyLen:] belong to the next command and must be
// pushed back onto the client stream.
func (s *DataScanner) Feed(chunk []byte) (bodyLen int, terminated bool) {
	for i, b := range chunk {
		if b == dataTerminator[s.matched] {
			s.matched++
			if s.matched == len(dataTerminator) {
				s.matched = 0
				return i + 1, true
			}
			continue
		}
		if b == dataTerminator[0] {
			s.matched = 1
		} else {
			s.matched = 0
		}
	}
	return len(chunk), false
}
