// Package xoauth2 builds the SASL XOAUTH2 initial client response that
// both mediators substitute in place of a legacy password. The wire format
// is fixed: "user=<u>\x01auth=Bearer <t>\x01\x01", base64-encoded.
package xoauth2

import (
	"encoding/base64"
	"fmt"

	"github.com/emersion/go-sasl"
)

// Format builds the raw (not base64-encoded) XOAUTH2 initial response.
func Format(user, token string) string {
	return fmt.Sprintf("user=%s\x01auth=Bearer %s\x01\x01", user, token)
}

// EncodeInitialResponse builds and base64-encodes the XOAUTH2 initial
// response, ready to be appended to "AUTH XOAUTH2 " or
// "AUTHENTICATE XOAUTH2 ". It drives the exchange through Client.Start so
// both mediators go through the same sasl.Client entry point go-sasl's own
// callers use, rather than formatting the wire string by hand.
func EncodeInitialResponse(user, token string) string {
	c := &Client{Username: user, Token: token}
	_, ir, _ := c.Start()
	return base64.StdEncoding.EncodeToString(ir)
}

// Client adapts (user, token) to go-sasl's Client interface. The proxy
// never runs a multi-step SASL negotiation of its own — it only ever hands
// an upstream server a single initial response — so Next is a stub, but
// Start is the real encoding path both mediators go through via
// EncodeInitialResponse.
type Client struct {
	Username string
	Token    string
}

var _ sasl.Client = (*Client)(nil)

func (c *Client) Start() (mech string, ir []byte, err error) {
	return "XOAUTH2", []byte(Format(c.Username, c.Token)), nil
}

func (c *Client) Next(challenge []byte) ([]byte, error) {
	return nil, nil
}
