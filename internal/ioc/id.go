package ioc

import (
	id "gitee.com/flycash/connectivity-orchestrator/internal/pkg/id_generator"
)

func InitIDGenerator(cfg OrchestratorConfig) *id.Generator {
	g, err := id.NewGenerator(cfg.MachineID)
	if err != nil {
		panic(err)
	}
	return g
}
