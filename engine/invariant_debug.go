//go:build searchdebug

package engine

import "fmt"

// Built with the searchdebug tag, a broken pruning precondition stops the
// program.
func invariant(ok bool, what string) bool {
	if !ok {
		panic(fmt.Sprintf("pruning invariant violated: %s", what))
	}
	return ok
}
