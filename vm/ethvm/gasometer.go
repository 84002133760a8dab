package ethvm

// Gasometer is the gas account of one substate. After any accounting
// failure it stays poisoned and every further operation reports the
// original error.
type Gasometer struct {
	gasLimit uint64
	used     uint64
	err      error
}

// NewGasometer returns a gasometer bound to the given limit.
func NewGasometer(gasLimit uint64) *Gasometer {
	return &Gasometer{gasLimit: gasLimit}
}

// Gas returns the remaining gas, or zero once the gasometer is poisoned.
func (g *Gasometer) Gas() uint64 {
	if g.err != nil {
		return 0
	}
	return g.gasLimit - g.used
}

// UsedGas returns the gas recorded so far.
func (g *Gasometer) UsedGas() uint64 {
	return g.used
}

// Err returns the poisoning error, if any.
func (g *Gasometer) Err() error {
	return g.err
}

// RecordCost charges cost against the remaining gas. Charging more than
// is available poisons the gasometer with ErrOutOfGas.
func (g *Gasometer) RecordCost(cost uint64) error {
	if g.err != nil {
		return g.err
	}
	if cost > g.gasLimit-g.used {
		g.err = ErrOutOfGas
		return g.err
	}
	g.used += cost
	return nil
}

// ReturnGas gives back gas handed to a finished child scope.
func (g *Gasometer) ReturnGas(gas uint64) {
	if g.err != nil {
		return
	}
	if gas > g.used {
		g.used = 0
		return
	}
	g.used -= gas
}

// GasCost derives the cost an instruction with the given base cost will
// realize against the given remaining gas. It never mutates the account;
// the only failure mode is a poisoned gasometer.
func (g *Gasometer) GasCost(base, gas uint64) (uint64, error) {
	if g.err != nil {
		return 0, g.err
	}
	// base may exceed gas; the step itself fails the charge in that
	// case, the realized cost of the attempt is still the base cost.
	return base, nil
}

// Clone returns an independent copy of the gas account.
func (g *Gasometer) Clone() *Gasometer {
	cpy := *g
	return &cpy
}
