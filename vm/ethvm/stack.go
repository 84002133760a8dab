package ethvm

import (
	"github.com/holiman/uint256"
)

// Stack is the machine's operand stack. Items are pushed and popped at
// the end of the backing slice; Back indexes from the top.
type Stack struct {
	data []uint256.Int
}

func newstack() *Stack {
	return &Stack{data: make([]uint256.Int, 0, 16)}
}

// Data returns the underlying items of the stack, bottom first. The
// slice aliases live machine state; copy it before retaining.
func (st *Stack) Data() []uint256.Int {
	return st.data
}

func (st *Stack) push(d *uint256.Int) {
	st.data = append(st.data, *d)
}

func (st *Stack) pop() (ret uint256.Int) {
	ret = st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return
}

func (st *Stack) swap(n int) {
	st.data[st.Len()-n], st.data[st.Len()-1] = st.data[st.Len()-1], st.data[st.Len()-n]
}

func (st *Stack) dup(n int) {
	st.push(&st.data[st.Len()-n])
}

func (st *Stack) peek() *uint256.Int {
	return &st.data[st.Len()-1]
}

// Back returns the n'th item in stack counted from the top.
func (st *Stack) Back(n int) *uint256.Int {
	return &st.data[st.Len()-n-1]
}

// Len returns the number of items on the stack.
func (st *Stack) Len() int {
	return len(st.data)
}
