// internal/chain/chain.go
package chain

import (
	"os"
	"strconv"
)

// Info describes one supported network.
type Info struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	RPCURL      string `json:"rpcUrl"`
	ExplorerURL string `json:"url"`
	Symbol      string `json:"symbol"`
	// MirrorURL is the REST mirror-node base used for transaction history.
	// Empty for chains without one.
	MirrorURL string `json:"mirrorUrl,omitempty"`
}

var registry = map[int64]Info{
	199: {
		ID:          199,
		Name:        "BitTorrent Chain Mainnet",
		RPCURL:      "https://rpc.bittorrentchain.io",
		ExplorerURL: "https://bttcscan.com/",
		Symbol:      "BTT",
	},
	297: {
		ID:          297,
		Name:        "Hedera Previewnet",
		RPCURL:      "https://previewnet.hashio.io/api",
		ExplorerURL: "https://hashscan.io/previewnet/",
		Symbol:      "HBAR",
		MirrorURL:   "https://previewnet.mirrornode.hedera.com",
	},
	1029: {
		ID:          1029,
		Name:        "BitTorrent Chain Donau",
		RPCURL:      "https://pre-rpc.bittorrentchain.io/",
		ExplorerURL: "https://testnet.bttcscan.com/",
		Symbol:      "BTT",
	},
}

const fallbackChainID int64 = 1029

// Lookup returns the network for an id. The second return is false for an
// unsupported network; callers must decline further action in that case.
func Lookup(chainID int64) (Info, bool) {
	info, ok := registry[chainID]
	return info, ok
}

// ToNetworkHandle converts a decimal chain id to the wallet network-switch
// identifier, e.g. 1029 -> "0x405".
func ToNetworkHandle(chainID int64) string {
	return "0x" + strconv.FormatInt(chainID, 16)
}

// Default returns the chain configured via DEFAULT_CHAIN_ID, falling back
// to BitTorrent Chain Donau.
func Default() Info {
	if v := os.Getenv("DEFAULT_CHAIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			if info, ok := registry[id]; ok {
				return info
			}
		}
	}
	return registry[fallbackChainID]
}

// ExplorerURL builds an explorer link for a transaction or address hash.
func ExplorerURL(info Info, hash string, useTx bool) string {
	kind := "address/"
	if useTx {
		kind = "tx/"
	}
	return info.ExplorerURL + kind + hash
}

// All returns every supported network.
func All() []Info {
	out := make([]Info, 0, len(registry))
	for _, info := range registry {
		out = append(out, info)
	}
	return out
}
