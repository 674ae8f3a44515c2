package http

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/simpledex-client/internal/wallet"
)

// errBadInput marks request validation failures; they map to 400.
var errBadInput = errors.New("bad request")

func isLoopbackRequest(r *http.Request) bool {
	ra := r.RemoteAddr

	h, _, err := net.SplitHostPort(ra)
	if err != nil {
		ip := net.ParseIP(ra)
		return ip != nil && ip.IsLoopback()
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}

func isSafeLocalHost(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.Trim(strings.ToLower(host), "[]")
	return host == "127.0.0.1" || host == "localhost" || host == "::1"
}

func normalizeOrigin(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return ""
	}
	u, err := url.Parse(in)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s", strings.ToLower(u.Scheme), strings.ToLower(u.Host))
}

func normalizeOrigins(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, o := range in {
		o = normalizeOrigin(o)
		if o == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}

func parseAddr(field, s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.Address{}, errors.Wrapf(errBadInput, "missing %s", field)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Wrapf(errBadInput, "invalid %s: %q", field, s)
	}
	return common.HexToAddress(s), nil
}

// parseChainID accepts "4202" or "0x106a".
func parseChainID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.Wrap(errBadInput, HTTPErrorMissingChainID)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		id, err := wallet.ParseChainIDHex(s)
		if err != nil {
			return 0, errors.WithSecondaryError(errors.Wrapf(errBadInput, "invalid chainId %q", s), err)
		}
		return id, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Wrapf(errBadInput, "invalid chainId %q", s)
	}
	return id, nil
}
