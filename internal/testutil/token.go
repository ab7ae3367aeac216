package testutil

// FixedTokenGenerator generates the same account token every time.
//
// This enables deterministic test execution and golden snapshot comparison.
// The same scenario with the same FixedTokenGenerator produces byte-identical
// journals.
//
// Unlike host.FixedGenerator, which returns tokens in sequence and panics
// when exhausted, this generator always returns the same token. Useful for
// scenarios where every call shares one token.
//
// Thread-safety: FixedTokenGenerator is stateless and safe for concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a new fixed token generator.
//
// The token is typically set in the scenario YAML:
//
//	token: "scenario-a"
//
// If token is empty, Generate() returns "test-token-default".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "test-token-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed token.
//
// Implements host.TokenGenerator.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
