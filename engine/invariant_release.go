//go:build !searchdebug

package engine

import "github.com/rs/zerolog/log"

// Report a broken pruning precondition. The pruning is refused and the
// search goes on.
func invariant(ok bool, what string) bool {
	if !ok {
		log.Error().Str("invariant", what).Msg("pruning-invariant-violated")
	}
	return ok
}
