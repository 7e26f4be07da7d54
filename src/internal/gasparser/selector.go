package gasparser

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// CanonicalSignature renders name(type,...) with uint/int widened to their
// 256-bit forms, the shape hashed for ABI selectors.
func (f FunctionInfo) CanonicalSignature() string {
	types := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		types[i] = canonicalType(p.Type)
	}
	return f.Name + "(" + strings.Join(types, ",") + ")"
}

// Selector is the 0x-prefixed first four bytes of keccak256(CanonicalSignature()).
func (f FunctionInfo) Selector() string {
	return hexutil.Encode(crypto.Keccak256([]byte(f.CanonicalSignature()))[:4])
}

func canonicalType(t string) string {
	base, suffix := t, ""
	if i := strings.Index(t, "["); i >= 0 {
		base, suffix = t[:i], t[i:]
	}
	switch base {
	case "uint":
		base = "uint256"
	case "int":
		base = "int256"
	case "byte":
		base = "bytes1"
	}
	return base + suffix
}
