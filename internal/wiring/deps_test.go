package wiring_test

import (
	"context"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sieve/internal/app"
	_ "go.trai.ch/sieve/internal/wiring"
)

// TestGraftDependencies ensures that the dependency injection graph is valid
// at compile/test time.
func TestGraftDependencies(t *testing.T) {
	// graft.AssertDepsValid infers a dependency ID from the package of the
	// interface passed to Dep[T]. Every node here depends on interfaces from
	// the shared ports package, so the check cannot tell them apart.
	t.Skip("Skipping Graft validation due to static analysis limitation with shared ports package")
	graft.AssertDepsValid(t, "../../internal")
}

func TestComponentsResolve(t *testing.T) {
	components, _, err := graft.ExecuteFor[*app.Components](context.Background())
	require.NoError(t, err)
	require.NotNil(t, components.App)
	require.NotNil(t, components.Logger)
}
