package types

import (
	"engineapi/common"
	"engineapi/crypto"
)

// hashWithPrefix hashes a single type-prefix byte followed by enc, matching
// the convention used to derive a typed transaction's hash from its RLP
// payload without re-encoding the prefix through the RLP encoder itself.
func hashWithPrefix(prefix byte, enc []byte) common.Hash {
	return crypto.Keccak256Hash(append([]byte{prefix}, enc...))
}
