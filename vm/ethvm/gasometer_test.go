package ethvm

import "testing"

func TestGasometerRecordCost(t *testing.T) {
	g := NewGasometer(100)
	if err := g.RecordCost(40); err != nil {
		t.Fatalf("record 40: %v", err)
	}
	if g.Gas() != 60 || g.UsedGas() != 40 {
		t.Fatalf("gas = %d used = %d, want 60 and 40", g.Gas(), g.UsedGas())
	}
}

func TestGasometerPoisoning(t *testing.T) {
	g := NewGasometer(10)
	if err := g.RecordCost(11); err != ErrOutOfGas {
		t.Fatalf("err = %v, want out of gas", err)
	}
	if g.Gas() != 0 {
		t.Fatalf("poisoned gas = %d, want 0", g.Gas())
	}
	// Every later operation reports the original failure.
	if err := g.RecordCost(1); err != ErrOutOfGas {
		t.Fatalf("record after poison: %v", err)
	}
	if _, err := g.GasCost(1, 10); err != ErrOutOfGas {
		t.Fatalf("gas cost after poison: %v", err)
	}
}

func TestGasometerReturnGas(t *testing.T) {
	g := NewGasometer(100)
	g.RecordCost(70)
	g.ReturnGas(30)
	if g.Gas() != 60 {
		t.Fatalf("gas = %d, want 60", g.Gas())
	}
	// Returning more than was used clamps at the full limit.
	g.ReturnGas(1000)
	if g.Gas() != 100 {
		t.Fatalf("gas = %d, want 100", g.Gas())
	}
}

func TestGasometerClone(t *testing.T) {
	g := NewGasometer(100)
	g.RecordCost(10)
	cpy := g.Clone()
	cpy.RecordCost(50)
	if g.Gas() != 90 {
		t.Fatalf("original mutated through clone: gas = %d", g.Gas())
	}
	if cpy.Gas() != 40 {
		t.Fatalf("clone gas = %d, want 40", cpy.Gas())
	}
}

func TestGasometerGasCost(t *testing.T) {
	g := NewGasometer(100)
	cost, err := g.GasCost(20000, g.Gas())
	if err != nil {
		t.Fatalf("gas cost: %v", err)
	}
	// The realized cost of an instruction is its base cost even when it
	// exceeds what is left; the charge itself fails separately.
	if cost != 20000 {
		t.Fatalf("cost = %d, want 20000", cost)
	}
}
