package wiring_test

import (
	"context"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/require"
	"go.trai.ch/incr/internal/app"
	_ "go.trai.ch/incr/internal/wiring"
)

// TestGraftDependencies ensures that every registered node declares the
// dependencies it resolves.
func TestGraftDependencies(t *testing.T) {
	// graft.AssertDepsValid infers the dependency ID from the package name of
	// the type passed to Dep[T]. Every node here resolves a ports interface, so
	// the check would look for a node named "ports".
	t.Skip("graft cannot map shared ports interfaces to node IDs")
	graft.AssertDepsValid(t, "../../internal")
}

func TestGraftResolvesComponents(t *testing.T) {
	components, _, err := graft.ExecuteFor[*app.Components](context.Background())
	require.NoError(t, err)
	require.NotNil(t, components.App)
	require.NotNil(t, components.Logger)
}
