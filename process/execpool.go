package process

import (
	"runtime"
	"sync"

	core2 "github.com/CaduceusMetaverseProtocol/MetaTracer/core"
	"github.com/CaduceusMetaverseProtocol/MetaTracer/vm/ethvm"
)

// TraceTask is one independent trace request. Every task must bring its
// own state, since tasks run concurrently and an executor owns its
// state exclusively.
type TraceTask struct {
	StateDB  ethvm.StateDB
	BlockCtx ethvm.BlockContext
	Args     *TransactionArgs
	Tracing  bool

	Result *core2.TraceResult
	Err    error
}

// ExecPool fans independent trace tasks out over a fixed set of
// workers. Results land back on the submitted tasks.
type ExecPool struct {
	processor *Processor
	taskCh    chan *TraceTask
	wg        sync.WaitGroup
}

// NewExecPool starts workers goroutines serving trace tasks. Zero
// workers means one per CPU.
func NewExecPool(processor *Processor, workers int) *ExecPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &ExecPool{
		processor: processor,
		taskCh:    make(chan *TraceTask, workers),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *ExecPool) worker() {
	for task := range p.taskCh {
		task.Result, task.Err = p.processor.TraceTransaction(
			task.StateDB, task.BlockCtx, task.Args, nil, task.Tracing)
		p.wg.Done()
	}
}

// Submit queues a task. Wait collects it.
func (p *ExecPool) Submit(task *TraceTask) {
	p.wg.Add(1)
	p.taskCh <- task
}

// Wait blocks until every submitted task has finished.
func (p *ExecPool) Wait() {
	p.wg.Wait()
}

// Close stops the workers. Submitting after Close panics.
func (p *ExecPool) Close() {
	p.wg.Wait()
	close(p.taskCh)
}
