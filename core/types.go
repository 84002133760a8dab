// Package core holds the caller facing result types of a traced
// execution.
package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/CaduceusMetaverseProtocol/MetaTracer/vm/ethvm"
	"github.com/CaduceusMetaverseProtocol/MetaTracer/vm/tracer"
)

// CallResult is the outcome of one traced message call.
type CallResult struct {
	Reason ethvm.ExitReason
	Output hexutil.Bytes
}

// CreateResult is the outcome of one traced contract deployment.
type CreateResult struct {
	Reason  ethvm.ExitReason
	Address *common.Address
	Output  hexutil.Bytes
}

// TraceResult bundles what a debug consumer needs to render a trace:
// the gas the execution spent, whether it failed, the returned bytes
// and the per instruction step logs.
type TraceResult struct {
	Gas         uint64           `json:"gas"`
	Failed      bool             `json:"failed"`
	ReturnValue hexutil.Bytes    `json:"returnValue"`
	StepLogs    []tracer.StepLog `json:"structLogs"`
	Address     *common.Address  `json:"createdAddress,omitempty"`
}
