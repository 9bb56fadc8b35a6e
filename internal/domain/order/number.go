package order

import (
	"crypto/rand"
	"encoding/base32"
	"strconv"
	"time"

	"github.com/go-faster/errors"
)

const (
	numberPrefix    = "ORD-"
	numberSuffixLen = 9
)

var numberEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewNumber returns a human-shareable order number of the form
// ORD-<unix millis>-<9 random base32 chars>. The random part carries 45 bits
// of entropy, so numbers generated in the same millisecond do not collide in
// practice; the unique index on orders.order_number is the final guard.
func NewNumber(now time.Time) (string, error) {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", errors.Wrap(err, "read random")
	}
	suffix := numberEncoding.EncodeToString(buf[:])[:numberSuffixLen]
	return numberPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix, nil
}
