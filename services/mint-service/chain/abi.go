// Package chain talks to the MaterialNFT contract on Base.
package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// BaseMainnetChainID is the only chain the MaterialNFT contract lives on.
const BaseMainnetChainID uint64 = 8453

const materialNFTABIJSON = `[
  {"type":"function","name":"createMaterial","stateMutability":"nonpayable",
   "inputs":[
     {"name":"to","type":"address"},
     {"name":"subject","type":"string"},
     {"name":"grade","type":"string"},
     {"name":"topic","type":"string"},
     {"name":"contentHash","type":"string"},
     {"name":"ipfsCid","type":"string"},
     {"name":"title","type":"string"},
     {"name":"wordCount","type":"uint256"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getMaterialMetadata","stateMutability":"view",
   "inputs":[{"name":"tokenId","type":"uint256"}],
   "outputs":[{"name":"","type":"tuple","internalType":"struct MaterialNFT.MaterialMetadata",
     "components":[
       {"name":"subject","type":"string"},
       {"name":"grade","type":"string"},
       {"name":"topic","type":"string"},
       {"name":"contentHash","type":"string"},
       {"name":"ipfsCid","type":"string"},
       {"name":"author","type":"address"},
       {"name":"createdAt","type":"uint256"},
       {"name":"updatedAt","type":"uint256"},
       {"name":"isPublished","type":"bool"},
       {"name":"title","type":"string"},
       {"name":"wordCount","type":"uint256"}]}]},
  {"type":"function","name":"getAuthorMaterials","stateMutability":"view",
   "inputs":[{"name":"author","type":"address"}],
   "outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"function","name":"getPublishedMaterialsBySubject","stateMutability":"view",
   "inputs":[{"name":"subject","type":"string"}],
   "outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"function","name":"updateMaterial","stateMutability":"nonpayable",
   "inputs":[
     {"name":"tokenId","type":"uint256"},
     {"name":"newIpfsCid","type":"string"},
     {"name":"newContentHash","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"setPublished","stateMutability":"nonpayable",
   "inputs":[{"name":"tokenId","type":"uint256"},{"name":"published","type":"bool"}],
   "outputs":[]},
  {"type":"function","name":"ownerOf","stateMutability":"view",
   "inputs":[{"name":"tokenId","type":"uint256"}],
   "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"tokenURI","stateMutability":"view",
   "inputs":[{"name":"tokenId","type":"uint256"}],
   "outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"contentHashExists","stateMutability":"view",
   "inputs":[{"name":"contentHash","type":"string"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getTokenIdByContentHash","stateMutability":"view",
   "inputs":[{"name":"contentHash","type":"string"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"event","name":"Transfer","anonymous":false,
   "inputs":[
     {"name":"from","type":"address","indexed":true},
     {"name":"to","type":"address","indexed":true},
     {"name":"tokenId","type":"uint256","indexed":true}]}
]`

// MaterialNFTABI is the parsed contract interface.
var MaterialNFTABI = mustParseABI(materialNFTABIJSON)

// TransferEventID is topic 0 of the ERC-721 Transfer event.
var TransferEventID = MaterialNFTABI.Events["Transfer"].ID

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("chain: parse MaterialNFT abi: %v", err))
	}
	return parsed
}
