package contracts

import contractports "sagachat/go-backend/internal/domains/contracts/ports"

type CoreAPI = contractports.CoreAPI
type RegistryAPI = contractports.RegistryAPI
type ActionsAPI = contractports.ActionsAPI
type GateAPI = contractports.GateAPI
type DaemonService = contractports.DaemonService
type CategorizedError = contractports.CategorizedError
