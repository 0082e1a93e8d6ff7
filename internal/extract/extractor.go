package extract

// Extractor defines a minimal interface for abstract extraction strategies.
// Implementations can swap rule sets without changing callers.
type Extractor interface {
    // Extract returns the abstract found in raw HTML bytes, or false.
    // Implementations should be deterministic and avoid side effects.
    Extract(input []byte) (string, bool)
}

// RuleExtractor applies an ordered rule list and keeps the longest result.
// A nil Rules slice means DefaultRules.
type RuleExtractor struct {
    Rules []Rule
}

func (e RuleExtractor) Extract(input []byte) (string, bool) {
    rules := e.Rules
    if rules == nil {
        rules = DefaultRules
    }
    return Abstract(input, rules)
}
