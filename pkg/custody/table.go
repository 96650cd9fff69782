package custody

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"rampa/config"
)

// Table maps network identifiers to the platform's custody destination. The
// mapping is static for the life of the process; a network without an entry
// is a configuration error surfaced before any signing prompt.
type Table struct {
	destinations map[uint64]common.Address
}

// NewTable builds the destination table from configuration. Every configured
// network must carry its own explicit custody address; there is no default or
// cross-network fallback.
func NewTable(cfg *config.Config) (*Table, error) {
	destinations := make(map[uint64]common.Address)
	for name, network := range cfg.Networks {
		if network.Custody == "" {
			// No entry rather than a guessed default; resolution fails loudly
			continue
		}
		if !common.IsHexAddress(network.Custody) {
			return nil, fmt.Errorf("invalid custody address for network %s: %s", name, network.Custody)
		}
		destinations[network.ChainID] = common.HexToAddress(network.Custody)
	}

	return &Table{destinations: destinations}, nil
}

// DestinationFor returns the custody destination for a network
func (t *Table) DestinationFor(networkID uint64) (common.Address, error) {
	destination, exists := t.destinations[networkID]
	if !exists {
		return common.Address{}, fmt.Errorf("no custody destination configured for network %d", networkID)
	}
	return destination, nil
}

// Networks returns the network identifiers with a configured destination
func (t *Table) Networks() []uint64 {
	networks := make([]uint64, 0, len(t.destinations))
	for id := range t.destinations {
		networks = append(networks, id)
	}
	return networks
}
