package imapproto

import (
	"bytes"
	"strings"
)

// RewriteCapability deletes every token case-insensitively prefixed with
// "AUTH=" and every token case-insensitively equal to "LOGINDISABLED" from
// a CAPABILITY reply, preserving the order of the remaining tokens and
// re-joining them with single spaces. reply.Kind must be ReplyCapability.
func RewriteCapability(reply Reply) []byte {
	tokens := bytes.Fields(reply.Payload)
	kept := make([][]byte, 0, len(tokens))
	for _, tok := range tokens {
		if !stripCapabilityToken(tok) {
			kept = append(kept, tok)
		}
	}

	out := make([]byte, 0, len(reply.Prefix)+len(reply.Payload)+2)
	out = append(out, reply.Prefix...)
	out = append(out, bytes.Join(kept, []byte{' '})...)
	out = append(out, '\r', '\n')
	return out
}

func stripCapabilityToken(tok []byte) bool {
	if len(tok) >= 5 && strings.EqualFold(string(tok[:5]), "AUTH=") {
		return true
	}
	return strings.EqualFold(string(tok), "LOGINDISABLED")
}
