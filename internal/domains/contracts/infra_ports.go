package contracts

import (
	"sagachat/go-backend/internal/chain"
	"sagachat/go-backend/internal/registry"
)

// KeyRegistry is the storage port behind RegistryAPI.
type KeyRegistry = registry.Store

// ChainReader is the on-chain port behind GateAPI.
type ChainReader = chain.TokenReader
