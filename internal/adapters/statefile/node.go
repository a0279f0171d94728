package statefile

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/incr/internal/core/ports"
)

// NodeID is the unique identifier for the state codec Graft node.
const NodeID graft.ID = "adapter.statefile"

func init() {
	graft.Register(graft.Node[ports.StateCodec]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.StateCodec, error) {
			return NewCodec(), nil
		},
	})
}
