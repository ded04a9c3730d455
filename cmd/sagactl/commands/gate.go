package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sagachat/go-backend/internal/composition/daemon/servicefactory"
	gateusecase "sagachat/go-backend/internal/domains/gate/usecase"
	"sagachat/go-backend/pkg/models"
)

var errGateDenied = errors.New("wallet does not meet the community requirements")

func gateCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "gate <wallet> <rules.json|->",
		Short: "Evaluate community admission rules for a wallet against Solana",
		Long:  "Rules are a JSON array of {gate_type, mint_address, min_balance, symbol} or an object with a \"rules\" array.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readArgOrStdin(cmd, args[1])
			if err != nil {
				return err
			}
			rules, err := decodeRules(raw)
			if err != nil {
				return err
			}
			reader, closeReader := servicefactory.NewChainReader(st.cfg.Chain)
			defer closeReader()
			evaluator := gateusecase.NewEvaluator(reader, servicefactory.GateConfig(st.cfg.Gate), st.logger, nil)

			decision, err := evaluator.EvaluateRecords(cmd.Context(), args[0], rules)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd, decision); err != nil {
				return err
			}
			if !decision.Admitted {
				return errGateDenied
			}
			return nil
		},
	}
}

func decodeRules(raw []byte) ([]models.GateRuleRecord, error) {
	var list []models.GateRuleRecord
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Rules []models.GateRuleRecord `json:"rules"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return wrapped.Rules, nil
}
