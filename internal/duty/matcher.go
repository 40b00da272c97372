package duty

import "context"

// HierarchyLevels are the code lengths tried after the full code, most
// specific first. Codes are only ever truncated, never padded.
var HierarchyLevels = []int{10, 8, 6, 4, 2}

// LookupFunc looks up one exact code. found=false with a nil error means
// there is no record at that level.
type LookupFunc[T any] func(ctx context.Context, code string) (value T, found bool, err error)

// Match is the outcome of a successful hierarchical lookup.
type Match[T any] struct {
	Value T
	Code  string
}

// Candidates returns the codes tried for code in order: the code itself,
// then each hierarchy level shorter than it.
func Candidates(code string) []string {
	if code == "" {
		return nil
	}
	out := make([]string, 0, len(HierarchyLevels)+1)
	out = append(out, code)
	for _, n := range HierarchyLevels {
		if n < len(code) {
			out = append(out, code[:n])
		}
	}
	return out
}

// MatchHierarchy calls lookup for each candidate of code and returns the
// first hit. A lookup error stops the walk and is returned as is, so callers
// can tell "nothing on file" from "could not ask".
func MatchHierarchy[T any](ctx context.Context, code string, lookup LookupFunc[T]) (Match[T], bool, error) {
	var zero Match[T]
	for _, candidate := range Candidates(code) {
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}
		v, found, err := lookup(ctx, candidate)
		if err != nil {
			return zero, false, err
		}
		if found {
			return Match[T]{Value: v, Code: candidate}, true, nil
		}
	}
	return zero, false, nil
}
