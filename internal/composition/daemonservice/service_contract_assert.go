package daemonservice

import "sagachat/go-backend/internal/domains/contracts"

var _ contracts.RegistryAPI = (*Service)(nil)
var _ contracts.ActionsAPI = (*Service)(nil)
var _ contracts.GateAPI = (*Service)(nil)
var _ contracts.DaemonService = (*Service)(nil)
