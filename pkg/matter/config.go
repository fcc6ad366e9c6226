package matter

import (
	"fmt"

	"github.com/pion/logging"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
)

// DefaultQueueSize is the event loop queue size used when unset.
const DefaultQueueSize = 64

// NodeConfig holds all configuration for a Node.
type NodeConfig struct {
	// Storage persists non-volatile attributes. Defaults to an in-memory
	// store, which loses state on restart.
	Storage datamodel.AttributeStorage

	// QueueSize bounds work pending on the event loop (default: 64).
	QueueSize int

	// LoggerFactory creates the node's and event loop's loggers.
	// Defaults to pion's DefaultLoggerFactory.
	LoggerFactory logging.LoggerFactory

	// OnStateChanged is called after every lifecycle transition. Optional.
	OnStateChanged func(state NodeState)
}

// Validate checks the configuration for errors.
func (c *NodeConfig) Validate() error {
	if c.QueueSize < 0 {
		return fmt.Errorf("%w: negative queue size %d", ErrInvalidConfig, c.QueueSize)
	}
	return nil
}

// applyDefaults fills in default values for unset fields.
func (c *NodeConfig) applyDefaults() {
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.LoggerFactory == nil {
		c.LoggerFactory = logging.NewDefaultLoggerFactory()
	}
}
