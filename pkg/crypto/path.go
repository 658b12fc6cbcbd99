package crypto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HardenedOffset is added to a child index to request hardened derivation.
const HardenedOffset uint32 = 0x80000000

// ErrInvalidPath is returned for derivation paths that cannot be parsed.
var ErrInvalidPath = errors.New("invalid derivation path")

// ParsePath parses a BIP32 path such as "m/84'/0'/0'/1/7". Hardened
// components may be marked with ', h or H. "m" alone is the empty path.
func ParsePath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	if path == "m" || path == "M" || path == "" {
		return nil, nil
	}
	rest, ok := strings.CutPrefix(path, "m/")
	if !ok {
		rest, ok = strings.CutPrefix(path, "M/")
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q must start with m/", ErrInvalidPath, path)
	}

	parts := strings.Split(rest, "/")
	out := make([]uint32, 0, len(parts))
	for _, part := range parts {
		idx, err := parsePathComponent(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
		}
		out = append(out, idx)
	}
	return out, nil
}

func parsePathComponent(component string) (uint32, error) {
	hardened := false
	if n := len(component); n > 0 {
		switch component[n-1] {
		case '\'', 'h', 'H':
			hardened = true
			component = component[:n-1]
		}
	}

	value, err := strconv.ParseUint(component, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid component %q", component)
	}
	idx := uint32(value)
	if idx >= HardenedOffset {
		return 0, fmt.Errorf("component %d out of range", idx)
	}
	if hardened {
		idx += HardenedOffset
	}
	return idx, nil
}

// FormatPath renders path in the form accepted by ParsePath, marking
// hardened components with '.
func FormatPath(path []uint32) string {
	var b strings.Builder
	b.WriteString("m")
	for _, idx := range path {
		b.WriteByte('/')
		if idx >= HardenedOffset {
			b.WriteString(strconv.FormatUint(uint64(idx-HardenedOffset), 10))
			b.WriteByte('\'')
		} else {
			b.WriteString(strconv.FormatUint(uint64(idx), 10))
		}
	}
	return b.String()
}
