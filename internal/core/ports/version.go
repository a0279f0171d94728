package ports

// CodeVersioner identifies the build of the running tool.
//
//go:generate go run go.uber.org/mock/mockgen -source=version.go -destination=mocks/mock_version.go -package=mocks
type CodeVersioner interface {
	// CodeVersion returns a marker that changes whenever the tool itself changes.
	CodeVersion() (string, error)
}
