// Package idgen produces externally visible identifiers for accounts and
// transactions: a fixed prefix, a time component and a random suffix.
// Uniqueness is ultimately enforced by the storage layer; a collision surfaces
// there as common.ErrDuplicateResource and the caller generates a new id.
package idgen

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	AccountPrefix     = "ACC"
	TransactionPrefix = "TXN"
)

// Generator is safe for concurrent use; it holds no mutable state.
type Generator struct {
	now     func() time.Time
	entropy func() string
}

func New() *Generator {
	return &Generator{now: time.Now, entropy: uuid.NewString}
}

// NewWithClock lets tests pin the time component.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now, entropy: uuid.NewString}
}

// NextAccountNumber returns e.g. ACC123456AB12CD34: the last six digits of the
// current unix millis followed by eight random hex characters.
func (g *Generator) NextAccountNumber() string {
	millis := strconv.FormatInt(g.now().UnixMilli(), 10)
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	return AccountPrefix + millis + g.suffix(8)
}

// NextTransactionID returns e.g. TXN1718000000000AB12CD34EF56: unix millis
// followed by twelve random hex characters.
func (g *Generator) NextTransactionID() string {
	return TransactionPrefix + strconv.FormatInt(g.now().UnixMilli(), 10) + g.suffix(12)
}

func (g *Generator) suffix(n int) string {
	raw := strings.ReplaceAll(g.entropy(), "-", "")
	return strings.ToUpper(raw[:n])
}
