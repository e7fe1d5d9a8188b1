package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}

// Suffix returns the last five digits of the millisecond clock at t.
func Suffix(t time.Time) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) <= 5 {
		return strings.Repeat("0", 5-len(ms)) + ms
	}
	return ms[len(ms)-5:]
}

// Tail returns the last n characters of id, upper-cased.
func Tail(id string, n int) string {
	id = strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(id) <= n {
		return id
	}
	return id[len(id)-n:]
}

// Placeholder returns prefix-XXXXX with five random base-36 characters.
func Placeholder(prefix string) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteByte('-')
	limit := big.NewInt(int64(len(base36)))
	for i := 0; i < 5; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			sb.WriteByte(base36[time.Now().UnixNano()%int64(len(base36))])
			continue
		}
		sb.WriteByte(base36[n.Int64()])
	}
	return sb.String()
}
