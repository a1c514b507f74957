package probe

import (
	"fmt"
	"strings"
)

const (
	KindSimulated = "simulated"
	KindHTTP      = "http"
	KindDNS       = "dns"
	KindHTTPDNS   = "http+dns"
)

// FromKind builds the executor named by kind.
func FromKind(kind, target string, failureRate float64) (Executor, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindSimulated:
		s := NewSimulated()
		if failureRate >= 0 {
			s.FailureRate = failureRate
		}
		return s, nil
	case KindHTTP:
		return NewHTTP(target), nil
	case KindDNS:
		return NewDNS(target), nil
	case KindHTTPDNS:
		return NewMulti(NewDNS(target), NewHTTP(target)), nil
	default:
		return nil, fmt.Errorf("unknown probe kind %q", kind)
	}
}
