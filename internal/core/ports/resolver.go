package ports

// InputResolver defines the interface for resolving input files.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type InputResolver interface {
	// ResolveInputs resolves the given input patterns relative to root to a sorted
	// list of absolute paths. Patterns without matches are kept as literal paths so
	// their absence is recorded.
	ResolveInputs(inputs []string, root string) ([]string, error)
}
