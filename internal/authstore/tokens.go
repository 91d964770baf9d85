package authstore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dwizi/review-vir/internal/reviewerr"
)

// ServiceName identifies an external review service.
type ServiceName string

const ServiceGitHub ServiceName = "github"

func KnownServices() []ServiceName {
	return []ServiceName{ServiceGitHub}
}

func (s ServiceName) Label() string {
	switch s {
	case ServiceGitHub:
		return "GitHub"
	default:
		return string(s)
	}
}

func ParseServiceName(raw string) (ServiceName, error) {
	normalized := ServiceName(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range KnownServices() {
		if known == normalized {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", reviewerr.ErrUnknownService, raw)
}

// ServiceAuthTokens maps a service to its opaque token. An empty mapping
// means no service has been configured yet.
type ServiceAuthTokens map[ServiceName]string

func (t ServiceAuthTokens) Clone() ServiceAuthTokens {
	out := make(ServiceAuthTokens, len(t))
	for service, token := range t {
		out[service] = token
	}
	return out
}

func (t ServiceAuthTokens) Services() []ServiceName {
	out := make([]ServiceName, 0, len(t))
	for service := range t {
		out = append(out, service)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Compact drops services whose token is blank and trims the rest.
func (t ServiceAuthTokens) Compact() ServiceAuthTokens {
	out := make(ServiceAuthTokens, len(t))
	for service, token := range t {
		trimmed := strings.TrimSpace(token)
		if strings.TrimSpace(string(service)) == "" || trimmed == "" {
			continue
		}
		out[service] = trimmed
	}
	return out
}

func (t ServiceAuthTokens) Equal(other ServiceAuthTokens) bool {
	if len(t) != len(other) {
		return false
	}
	for service, token := range t {
		if otherToken, ok := other[service]; !ok || otherToken != token {
			return false
		}
	}
	return true
}

// Mask renders a token with only its last four characters visible.
func Mask(token string) string {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ""
	}
	runes := []rune(trimmed)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}
