package custody

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"rampa/config"
)

func TestTable_DestinationFor(t *testing.T) {
	cfg := &config.Config{
		Networks: map[string]config.NetworkConfig{
			"ethereum":  {ChainID: 1, Custody: "0x2222222222222222222222222222222222222222"},
			"polygon":   {ChainID: 137, Custody: "0x4444444444444444444444444444444444444444"},
			"nocustody": {ChainID: 10}, // RPC configured, no destination
		},
	}

	table, err := NewTable(cfg)
	require.NoError(t, err)

	destination, err := table.DestinationFor(1)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x2222222222222222222222222222222222222222"), destination)

	destination, err = table.DestinationFor(137)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x4444444444444444444444444444444444444444"), destination)

	// A network without a custody entry resolves to nothing, loudly
	_, err = table.DestinationFor(10)
	require.Error(t, err)

	_, err = table.DestinationFor(99999)
	require.Error(t, err)

	require.Len(t, table.Networks(), 2)
}

func TestNewTable_RejectsInvalidAddress(t *testing.T) {
	cfg := &config.Config{
		Networks: map[string]config.NetworkConfig{
			"broken": {ChainID: 1, Custody: "not-an-address"},
		},
	}

	_, err := NewTable(cfg)
	require.Error(t, err)
}
