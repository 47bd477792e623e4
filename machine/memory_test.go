package machine

import "testing"

func TestMemoryGetSetRoundTrip(t *testing.T) {
	m := NewMemory()
	assert(t, m.Set(100, 42) == nil, "set failed")

	v, err := m.Get(100)
	assert(t, err == nil, "get failed: %v", err)
	assert(t, v == 42, "want 42, got %d", v)
}

func TestMemoryOutOfRangeFails(t *testing.T) {
	m := NewMemory()

	_, err := m.Get(MemorySize)
	_, ok := err.(AddressOutOfRangeError)
	assert(t, ok, "want AddressOutOfRangeError, got %v (%T)", err, err)

	err = m.Set(MemorySize, 1)
	_, ok = err.(AddressOutOfRangeError)
	assert(t, ok, "want AddressOutOfRangeError, got %v (%T)", err, err)
}

func TestLoadCodeEndsInEof(t *testing.T) {
	m := NewMemory()
	ops := []Op{{Code: Push, Arg: 7}, {Code: Halt}}
	assert(t, m.LoadCode(ops) == nil, "load code failed")

	v, err := m.Get(Word(CodeLength(ops) - 1))
	assert(t, err == nil, "get failed: %v", err)
	assert(t, v == Word(Eof), "want trailing Eof, got %d", v)
}
