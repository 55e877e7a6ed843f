package repository

import "github.com/lib/pq"

// idArray wraps a string slice for use with `= ANY($n)` parameters.
func idArray(ids []string) interface{} {
	return pq.Array(ids)
}
