package gridc

import "sync/atomic"

// Build identifiers are process-scoped and monotonic, so a rebuilt program
// can never alias a cache entry created under an earlier identifier.
var uidCounter atomic.Uint64

func nextUID() uint64 {
	return uidCounter.Add(1)
}
