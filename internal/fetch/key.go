package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/usestring/pairdiff/pkg/types"
)

// requestIdentity is everything that shapes a live, normalized response.
// Two specs share a fetch only when all of it matches.
type requestIdentity struct {
	Method      string            `json:"m"`
	URL         string            `json:"u"`
	Headers     map[string]string `json:"h,omitempty"`
	AuthKind    types.AuthKind    `json:"ak,omitempty"`
	Username    string            `json:"au,omitempty"`
	Password    *string           `json:"ap,omitempty"`
	Token       string            `json:"at,omitempty"`
	Redactions  []string          `json:"r,omitempty"`
	IgnorePaths []string          `json:"ip,omitempty"`
	Filter      string            `json:"f,omitempty"`
}

// flightKey returns the singleflight key for spec. Credentials only enter
// the key through its digest.
func flightKey(wireURL string, spec types.RequestSpec) string {
	// Map keys are written sorted, so header order never matters.
	data, _ := json.Marshal(requestIdentity{
		Method:      spec.EffectiveMethod(),
		URL:         wireURL,
		Headers:     spec.Headers,
		AuthKind:    spec.Auth.Kind,
		Username:    spec.Auth.Username,
		Password:    spec.Auth.Password,
		Token:       spec.Auth.Token,
		Redactions:  spec.Redactions,
		IgnorePaths: spec.IgnorePaths,
		Filter:      spec.Filter,
	})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
