package common

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

const ACTIVE = "active"

// TimeLayout is the fixed-width UTC layout used for every stored timestamp,
// so that string order matches time order.
const TimeLayout = "2006-01-02T15:04:05.000Z"

var (
	snowNode     *snowflake.Node
	snowNodeOnce sync.Once
)

// UUIDint64 returns a snowflake id
func UUIDint64() int64 {
	snowNodeOnce.Do(func() {
		node, err := snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
		snowNode = node
	})
	return snowNode.Generate().Int64()
}

// FmtTime formats t with TimeLayout in UTC
func FmtTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a TimeLayout string
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandBase36 returns n random characters from [0-9a-z] using crypto/rand.
func RandBase36(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		sb.WriteByte(base36[v.Int64()])
	}
	return sb.String()
}

// Base36Millis encodes the unix milliseconds of t in base 36
func Base36Millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 36)
}

// IsEmpty reports whether s is blank
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}
