package checkout

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

// GenerateOrderNumber builds a human-readable order number of the form
// ORD-<base36 unix millis>-<4 digit suffix>. The random suffix keeps numbers
// minted within the same millisecond apart; the unique index on orders is the
// real collision guard and the caller retries once on violation. The
// top-level rand functions are safe for concurrent checkouts.
func GenerateOrderNumber(now time.Time) string {
	millis := strconv.FormatInt(now.UnixMilli(), 36)
	suffix := rand.Intn(10000)
	return fmt.Sprintf("ORD-%s-%04d", millis, suffix)
}
