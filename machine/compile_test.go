package machine

import "testing"

func TestCompilePushPush(t *testing.T) {
	stream := Compile([]Op{{Code: Push, Arg: 5}, {Code: Push, Arg: 10}})

	want := []Word{Word(Push), 5, Word(Push), 10, Word(Eof)}
	assert(t, len(stream) == len(want), "want length %d, got %d", len(want), len(stream))
	for i, w := range want {
		assert(t, stream[i] == w, "word %d: want %d, got %d", i, w, stream[i])
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	ops := []Op{{Code: Push, Arg: 1}, {Code: Dup}, {Code: Halt}}
	a := Compile(ops)
	b := Compile(ops)

	assert(t, len(a) == len(b), "lengths differ: %d vs %d", len(a), len(b))
	for i := range a {
		assert(t, a[i] == b[i], "word %d differs: %d vs %d", i, a[i], b[i])
	}
}

func TestCompileNoArgOpcodeHasNoOperandWord(t *testing.T) {
	stream := Compile([]Op{{Code: Halt}})
	want := []Word{Word(Halt), Word(Eof)}
	assert(t, len(stream) == len(want), "want length %d, got %d", len(want), len(stream))
}
