package ports

// WorkspaceOpener creates the document loader and resolver for a project root.
type WorkspaceOpener interface {
	// Open returns a loader and resolver confined to root.
	Open(root string) (Loader, Resolver, error)
}
