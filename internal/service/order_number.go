package service

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	orderNumberPrefix    = "AN"
	orderNumberSuffixLen = 6
	base36Alphabet       = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// suffixByteLimit is the largest multiple of 36 that fits in a byte.
	// Bytes at or above it are skipped so every digit is equally likely.
	suffixByteLimit      = 252
)

// GenerateOrderNumber builds "AN" + base36 millisecond clock + a random
// base36 suffix. The clock part orders numbers by creation time; the suffix
// makes same-millisecond collisions unlikely, and the unique index on
// orderNumber turns the remaining ones into insert failures.
func GenerateOrderNumber(now time.Time, random io.Reader) (string, error) {
	suffix := make([]byte, 0, orderNumberSuffixLen)
	buf := make([]byte, orderNumberSuffixLen)
	for len(suffix) < orderNumberSuffixLen {
		n, err := io.ReadFull(random, buf[:orderNumberSuffixLen-len(suffix)])
		for _, c := range buf[:n] {
			if c < suffixByteLimit {
				suffix = append(suffix, base36Alphabet[int(c)%len(base36Alphabet)])
			}
		}
		if err != nil {
			return "", fmt.Errorf("order number entropy: %w", err)
		}
	}

	var b strings.Builder
	b.WriteString(orderNumberPrefix)
	b.WriteString(strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)))
	b.Write(suffix)
	return b.String(), nil
}

func newOrderNumber(now time.Time) (string, error) {
	return GenerateOrderNumber(now, rand.Reader)
}
