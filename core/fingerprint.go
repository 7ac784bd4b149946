package core

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// fingerprintHooks computes a stable hash over a resolved hook set so equal
// sets of hooks (same kinds, same requires, same overwrite policy) always
// produce the same fingerprint regardless of registration order — the cache
// key for DependencyGraphCache.
//
// This hashing exists purely for graph-cache identity; it is never used for
// principal key material or any other capability-bearing value.
func fingerprintHooks(hooks map[string]Hook) string {
	kinds := make([]string, 0, len(hooks))
	for k := range hooks {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	var b strings.Builder
	for _, k := range kinds {
		h := hooks[k]
		req := append([]string(nil), h.Required...)
		sort.Strings(req)
		fmt.Fprintf(&b, "%s|%v|%t;", h.Kind, req, h.Overwrite)
	}

	sum := blake2b.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum[:16])
}
