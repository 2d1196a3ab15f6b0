package msgsize

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/client"
)

// ProbeResult is the outcome of asking one server's IMAP endpoint for its
// advertised message size limit (APPENDLIMIT capability, RFC 7889).
type ProbeResult struct {
	// Advertised tells whether the APPENDLIMIT capability was present in
	// any form.
	Advertised bool

	// Limit is the advertised global limit in bytes. nil with
	// Advertised=true means the server applies per-mailbox limits.
	Limit *uint32
}

// ProbeAppendLimit connects to an IMAP endpoint, reads the capability list
// and disconnects. No authentication is performed, so the result reflects
// the pre-login capabilities only.
func ProbeAppendLimit(addr string, useTLS bool, timeout time.Duration) (ProbeResult, error) {
	dialer := &net.Dialer{Timeout: timeout}

	var (
		c   *client.Client
		err error
	)
	if useTLS {
		c, err = client.DialWithDialerTLS(dialer, addr, nil)
	} else {
		c, err = client.DialWithDialer(dialer, addr)
	}
	if err != nil {
		return ProbeResult{}, wrapErrf(err, "probe %s", addr)
	}
	defer c.Logout()

	caps, err := c.Capability()
	if err != nil {
		return ProbeResult{}, wrapErrf(err, "probe %s", addr)
	}

	res, err := parseAppendLimit(caps)
	return res, wrapErrf(err, "probe %s", addr)
}

// parseAppendLimit extracts the APPENDLIMIT advertisement from a capability
// set. Capability names are matched case-insensitively.
func parseAppendLimit(caps map[string]bool) (ProbeResult, error) {
	res := ProbeResult{}
	for name := range caps {
		upper := strings.ToUpper(name)
		if upper == "APPENDLIMIT" {
			res.Advertised = true
			continue
		}
		if !strings.HasPrefix(upper, "APPENDLIMIT=") {
			continue
		}

		val, err := strconv.ParseUint(upper[len("APPENDLIMIT="):], 10, 32)
		if err != nil {
			return ProbeResult{}, wrapErrf(err, "malformed capability %s", name)
		}
		val32 := uint32(val)
		res.Advertised = true
		res.Limit = &val32
	}
	return res, nil
}

// Matches tells whether the probed limit agrees with wantBytes. A server
// advertising no limit or per-mailbox limits never matches a concrete
// value.
func (r ProbeResult) Matches(wantBytes int64) bool {
	return r.Limit != nil && int64(*r.Limit) == wantBytes
}
