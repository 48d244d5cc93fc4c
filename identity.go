package netql

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// IdentitySource hands out builder identities. Identities end up inside bind
// parameter names, so they must be unique per statement tree and consist of
// letters, digits and underscores only.
type IdentitySource interface {
	Next() string
}

// Sequence is an IdentitySource counting up from a start value. It is safe for
// concurrent use.
type Sequence struct {
	n atomic.Int64
}

// NewSequence returns a Sequence whose first identity is start.
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.n.Store(start - 1)
	return s
}

// Next implements IdentitySource.
func (s *Sequence) Next() string {
	return strconv.FormatInt(s.n.Add(1), 10)
}

// UUIDIdentity derives identities from random UUIDs. Only the first 12 hex digits
// are used to keep placeholder names short.
type UUIDIdentity struct{}

// Next implements IdentitySource.
func (UUIDIdentity) Next() string {
	return "u" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
