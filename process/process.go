// Package process turns caller facing transaction arguments into traced
// executions and caller facing results.
package process

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"

	core2 "github.com/CaduceusMetaverseProtocol/MetaTracer/core"
	"github.com/CaduceusMetaverseProtocol/MetaTracer/vm/ethvm"
	"github.com/CaduceusMetaverseProtocol/MetaTracer/vm/tracer"
)

// Processor runs transactions under the step tracer. One Processor may
// serve many transactions; each run gets a fresh executor.
type Processor struct {
	config *ethvm.Config
	logger log.Logger
}

// NewProcessor returns a processor with the given engine configuration.
// A nil config selects mainnet-equivalent defaults.
func NewProcessor(config *ethvm.Config) *Processor {
	if config == nil {
		config = ethvm.DefaultConfig()
	}
	return &Processor{
		config: config,
		logger: log.New("module", "process"),
	}
}

// IntrinsicGas computes the gas a transaction pays before a single
// instruction runs.
func IntrinsicGas(data []byte, isContractCreation bool) (uint64, error) {
	var gas uint64
	if isContractCreation {
		gas = params.TxGasContractCreation
	} else {
		gas = params.TxGas
	}
	if len(data) > 0 {
		var nz uint64
		for _, byt := range data {
			if byt != 0 {
				nz++
			}
		}
		nonZeroGas := params.TxDataNonZeroGasFrontier
		if (uint64(math.MaxUint64)-gas)/nonZeroGas < nz {
			return 0, ethvm.ErrGasUintOverflow
		}
		gas += nz * nonZeroGas

		z := uint64(len(data)) - nz
		if (uint64(math.MaxUint64)-gas)/params.TxDataZeroGas < z {
			return 0, ethvm.ErrGasUintOverflow
		}
		gas += z * params.TxDataZeroGas
	}
	return gas, nil
}

// TraceTransaction executes args against statedb under the step tracer
// and returns the accumulated trace. The gas pool, when non nil, bounds
// the run the way block building would. With tracing false the
// execution is identical but no step logs are collected.
func (p *Processor) TraceTransaction(statedb ethvm.StateDB, blockCtx ethvm.BlockContext, args *TransactionArgs, gp *core.GasPool, tracing bool) (*core2.TraceResult, error) {
	input := args.data()
	gasLimit := args.gas()

	intrinsic, err := IntrinsicGas(input, args.To == nil)
	if err != nil {
		return nil, err
	}
	if gasLimit < intrinsic {
		return nil, fmt.Errorf("%w: have %d, want %d", core.ErrIntrinsicGas, gasLimit, intrinsic)
	}
	if gp != nil {
		if err := gp.SubGas(gasLimit); err != nil {
			return nil, err
		}
	}
	gasLimit -= intrinsic

	txCtx := ethvm.TxContext{Origin: args.from(), GasPrice: args.gasPrice()}
	executor := ethvm.NewExecutor(statedb, blockCtx, txCtx, p.config, gasLimit)
	// Pre-charge the transaction scope so the spend of the traced run
	// folds back into it on exit.
	executor.InnermostSubstate().Gasometer().RecordCost(gasLimit)

	tr := tracer.NewTraceExecutor(executor, tracing)

	result := &core2.TraceResult{}
	var reason ethvm.ExitReason
	if args.To == nil {
		capture := tr.TraceCreate(args.from(), args.value(), input, gasLimit)
		reason = capture.Reason
		result.Address = capture.Address
		result.ReturnValue = capture.Output
	} else {
		capture := tr.TraceCall(args.from(), *args.To, args.value(), input, gasLimit)
		reason = capture.Reason
		result.ReturnValue = capture.Output
	}

	// Failed scopes roll their refund counter back with the snapshot,
	// so whatever remains is creditable.
	used := intrinsic + executor.UsedGas()
	refund := statedb.GetRefund()
	if refund > used/2 {
		refund = used / 2
	}
	used -= refund
	if gp != nil {
		gp.AddGas(gasLimit - executor.UsedGas() + refund)
	}

	result.Gas = used
	result.Failed = reason.Failed()
	result.StepLogs = tr.StepLogs()

	p.logger.Debug("Trace complete", "reason", reason.String(), "gas", used, "steps", len(result.StepLogs))
	return result, nil
}
