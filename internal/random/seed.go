// Package random draws seeds for the per-session dice generators.
// Each adventure gets its own math/rand stream so tests can pin a
// seed, while live sessions start from OS entropy.
package random

import (
	crand "crypto/rand"
	"encoding/binary"

	apperrors "github.com/louisbranch/fabled/internal/platform/errors"
)

// NewSeed returns a 64-bit seed from the operating system's entropy
// source.
func NewSeed() (int64, error) {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return 0, apperrors.Wrap(apperrors.CodeSeedUnavailable, "read seed entropy", err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}
