package mongo

import (
	"fmt"
	"strings"

	"depctl/internal/orchestration"
)

// Redact strips userinfo from a connection URI so it can appear in logs
// and decision reasons.
func Redact(uri string) string {
	i := strings.Index(uri, "://")
	if i < 0 {
		return uri
	}
	rest := uri[i+3:]
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return uri
	}
	return uri[:i+3] + "[redacted]@" + rest[at+1:]
}

// CredentialChain builds the ordered credentials tried against a
// discovered host: the operator's configured URI first, then the image's
// documented default root credentials, then unauthenticated access.
// Empty configured URIs are skipped.
func CredentialChain(configuredURI, address string, port int) []orchestration.Credential {
	hostPort := fmt.Sprintf("%s:%d", address, port)
	chain := make([]orchestration.Credential, 0, 3)
	if configuredURI != "" {
		chain = append(chain, orchestration.Credential{Label: "configured", URI: configuredURI})
	}
	chain = append(chain,
		orchestration.Credential{Label: "default", URI: fmt.Sprintf("mongodb://root:example@%s", hostPort)},
		orchestration.Credential{Label: "unauthenticated", URI: fmt.Sprintf("mongodb://%s", hostPort)},
	)
	return chain
}
