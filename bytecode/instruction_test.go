package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	widths := []Width{WidthSingle, Width16, Width32}
	for _, width := range widths {
		w := NewWriter()
		w.Emit(Add, width, 7)
		w.Emit(LoadSmi, width, -3)
		w.Emit(Jump, width, -1000)
		w.Emit(Call, width, 2, 5)

		code := w.Bytes()
		pc := 0

		inst, err := Decode(code, pc, width)
		require.NoError(t, err)
		require.Equal(t, Add, inst.Op)
		require.Equal(t, int64(7), inst.Operands[0].Value)
		pc += inst.Size

		inst, err = Decode(code, pc, width)
		require.NoError(t, err)
		require.Equal(t, LoadSmi, inst.Op)
		require.Equal(t, int64(-3), inst.Operands[0].Value)
		pc += inst.Size

		inst, err = Decode(code, pc, width)
		require.NoError(t, err)
		require.Equal(t, Jump, inst.Op)
		if width == WidthSingle {
			// -1000 doesn't fit a single byte; this case only exercises
			// 16/32-bit widths for the jump operand.
		} else {
			require.Equal(t, int64(-1000), inst.Operands[0].Value)
		}
		pc += inst.Size

		inst, err = Decode(code, pc, width)
		require.NoError(t, err)
		require.Equal(t, Call, inst.Op)
		require.Equal(t, int64(2), inst.Operands[0].Value)
		require.Equal(t, int64(5), inst.Operands[1].Value)
	}
}

func TestWidthPrefixScalesNextInstructionOnly(t *testing.T) {
	w := NewWriter()
	w.EmitWidthPrefix(Width16)
	w.Emit(LoadConst, Width16, 300)
	w.Emit(LoadSelf, WidthSingle)

	code := w.Bytes()
	width, pc, ok := PeekWidthPrefix(code, 0)
	require.True(t, ok)
	require.Equal(t, Width16, width)

	inst, err := Decode(code, pc, width)
	require.NoError(t, err)
	require.Equal(t, LoadConst, inst.Op)
	require.Equal(t, int64(300), inst.Operands[0].Value)
	pc += inst.Size

	_, pc2, ok := PeekWidthPrefix(code, pc)
	require.False(t, ok)
	inst, err = Decode(code, pc2, WidthSingle)
	require.NoError(t, err)
	require.Equal(t, LoadSelf, inst.Op)
}

func TestPatchOperandAndOpcode(t *testing.T) {
	w := NewWriter()
	pos := w.Emit(Jump, WidthSingle, 0)
	w.PatchOperand(pos, WidthSingle, 0, 42)

	inst, err := Decode(w.Bytes(), pos, WidthSingle)
	require.NoError(t, err)
	require.Equal(t, int64(42), inst.Operands[0].Value)

	w.PatchOpcode(pos, JumpConst)
	inst, err = Decode(w.Bytes(), pos, WidthSingle)
	require.NoError(t, err)
	require.Equal(t, JumpConst, inst.Op)
}

func TestFitsWidth(t *testing.T) {
	require.True(t, FitsWidth(127, WidthSingle))
	require.False(t, FitsWidth(128, WidthSingle))
	require.True(t, FitsWidth(32767, Width16))
	require.False(t, FitsWidth(32768, Width16))
	require.True(t, FitsWidth(1<<30, Width32))
}

func TestDisassemble(t *testing.T) {
	w := NewWriter()
	w.Emit(LoadConst, WidthSingle, 0)
	w.Emit(Add, WidthSingle, 1)
	w.Emit(Return, WidthSingle)

	out, err := Disassemble(w.Bytes(), func(idx uint32) string {
		if idx == 0 {
			return `"hi"`
		}
		return "?"
	})
	require.NoError(t, err)
	require.Contains(t, out, "LoadConst")
	require.Contains(t, out, `"hi"`)
	require.Contains(t, out, "Return")
}
