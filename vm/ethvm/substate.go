package ethvm

// Substate is one nested execution scope. Every call or create pushes a
// substate carrying its own gas account, its static flag and a state
// snapshot to roll back to. The executor's root substate represents the
// transaction scope itself and carries no depth.
type Substate struct {
	gasometer *Gasometer
	static    bool
	depth     int // -1 for the root scope
	snapshot  int
}

// Gasometer returns the gas account of this scope.
func (s *Substate) Gasometer() *Gasometer {
	return s.gasometer
}

// IsStatic reports whether state mutation is forbidden in this scope.
func (s *Substate) IsStatic() bool {
	return s.static
}

// Depth returns the call nesting depth of this scope. The bool is false
// for the root scope, which sits outside call nesting.
func (s *Substate) Depth() (int, bool) {
	if s.depth < 0 {
		return 0, false
	}
	return s.depth, true
}

// SubstateExit selects how a finished scope folds into its parent.
type SubstateExit int

const (
	// SubstateCommit keeps the scope's state changes and returns its
	// unused gas to the parent.
	SubstateCommit SubstateExit = iota
	// SubstateRevert rolls the scope's state changes back but still
	// returns its unused gas.
	SubstateRevert
	// SubstateDiscard rolls state back and forfeits the unused gas.
	SubstateDiscard
)
