// Package merkle computes the integrity digest of an award: the root of a
// binary merkle tree over the identifiers of the items it carries.
package merkle

import (
	"encoding/hex"
	"slices"

	"golang.org/x/crypto/sha3"
)

// DigestLength is the length of a Digest in number of bytes.
const DigestLength = 32

// Digest is a keccak256 hash digest.
type Digest = [DigestLength]byte

// ZeroDigest is the root of a tree with no leaves.
var ZeroDigest Digest

var (
	internalMarker = []byte{0}
	leafMarker     = []byte{1}
)

// Step is one level of a merkle proof: the digest of the sibling of the node
// on the path from a leaf to the root.
type Step struct {
	Sibling Digest
	// Left is whether the sibling is the left child of their parent.
	Left bool
}

// Hex returns the lowercase hex encoding of d, always 2*DigestLength long.
func Hex(d Digest) string {
	return hex.EncodeToString(d[:])
}

// Root returns the root of the merkle tree over the given leaves. Pairs of
// nodes are hashed level by level; the last node of a level with an odd number
// of nodes is promoted to the next level as is.
func Root(leaves [][]byte) Digest {
	root, _ := build(leaves, false)
	return root
}

// RootWithProofs returns the root of the merkle tree over the given leaves,
// along with a proof of inclusion for every leaf.
func RootWithProofs(leaves [][]byte) (Digest, [][]Step) {
	return build(leaves, true)
}

// Verify checks that leaf is included in the tree with the given root.
func Verify(root Digest, leaf []byte, proof []Step) bool {
	digest := leafHash(leaf)
	for _, step := range proof {
		if step.Left {
			digest = internalHash(step.Sibling, digest)
		} else {
			digest = internalHash(digest, step.Sibling)
		}
	}
	return digest == root
}

func build(leaves [][]byte, withProofs bool) (Digest, [][]Step) {
	if len(leaves) == 0 {
		return ZeroDigest, nil
	}

	level := make([]Digest, len(leaves))
	for i, leaf := range leaves {
		level[i] = leafHash(leaf)
	}

	// below[i] lists the leaves beneath node i of the current level.
	var proofs [][]Step
	var below [][]int
	if withProofs {
		proofs = make([][]Step, len(leaves))
		below = make([][]int, len(leaves))
		for i := range below {
			below[i] = []int{i}
		}
	}

	for len(level) > 1 {
		next := make([]Digest, 0, (len(level)+1)/2)
		var nextBelow [][]int
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				if withProofs {
					nextBelow = append(nextBelow, below[i])
				}
				continue
			}
			left, right := level[i], level[i+1]
			next = append(next, internalHash(left, right))
			if withProofs {
				for _, leaf := range below[i] {
					proofs[leaf] = append(proofs[leaf], Step{Sibling: right})
				}
				for _, leaf := range below[i+1] {
					proofs[leaf] = append(proofs[leaf], Step{Sibling: left, Left: true})
				}
				nextBelow = append(nextBelow, slices.Concat(below[i], below[i+1]))
			}
		}
		level, below = next, nextBelow
	}
	return level[0], proofs
}

func hash(values ...[]byte) (out Digest) {
	h := sha3.NewLegacyKeccak256()
	for _, value := range values {
		_, _ = h.Write(value)
	}
	h.Sum(out[:0])
	return out
}

func internalHash(left, right Digest) Digest {
	return hash(internalMarker, left[:], right[:])
}

func leafHash(value []byte) Digest {
	return hash(leafMarker, value)
}
