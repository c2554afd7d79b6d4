// Package id issues row IDs for outcome and sweep history. The server and the worker each
// claim their own node (SERVICE_ID) so IDs from both processes never collide.
package id

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	mu      sync.Mutex
	node    *snowflake.Node
	current int64
)

// Init sets the node for this process. Repeating it with the same node is a no-op; switching
// to another node is rejected.
func Init(nodeID int64) error {
	mu.Lock()
	defer mu.Unlock()

	if node != nil {
		if nodeID == current {
			return nil
		}
		return fmt.Errorf("id generator already running as node %d, refusing node %d", current, nodeID)
	}

	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("creating id node %d: %w", nodeID, err)
	}
	node, current = n, nodeID
	return nil
}

// New returns a time-ordered ID. It panics if Init has not succeeded.
func New() int64 {
	mu.Lock()
	n := node
	mu.Unlock()
	if n == nil {
		panic("id: New called before Init")
	}
	return n.Generate().Int64()
}
