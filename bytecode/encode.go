package bytecode

// Writer accumulates an encoded instruction stream. It is the low-level
// byte-emission primitive internal/asm's builder drives; it performs no
// jump-patching logic of its own.
type Writer struct {
	code []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Len() int    { return len(w.code) }
func (w *Writer) Bytes() []byte { return w.code }

// EmitWidthPrefix appends a Wide16/Wide32 prefix byte. Pass WidthSingle
// to emit nothing.
func (w *Writer) EmitWidthPrefix(width Width) {
	switch width {
	case Width16:
		w.code = append(w.code, byte(Wide16))
	case Width32:
		w.code = append(w.code, byte(Wide32))
	}
}

// Emit appends opcode op with the given unsigned operand values, each
// written at width. The caller supplies operands in the opcode's fixed
// order; signedness is looked up from the opcode's operand table.
func (w *Writer) Emit(op Opcode, width Width, values ...int64) int {
	pos := len(w.code)
	w.code = append(w.code, byte(op))
	kinds := Operands(op)
	for i, k := range kinds {
		var raw uint32
		if i < len(values) {
			if k.signed() {
				raw = uint32(int32(values[i]))
			} else {
				raw = uint32(values[i])
			}
		}
		buf := make([]byte, int(width))
		writeUint(buf, width, raw)
		w.code = append(w.code, buf...)
	}
	return pos
}

// PatchOperand overwrites the i'th operand of the instruction whose
// opcode byte sits at opcodePos, in place, at the given width (which must
// match the width originally used to emit it). Used for backpatching jump
// offsets once a label's address is known.
func (w *Writer) PatchOperand(opcodePos int, width Width, i int, value int64) {
	op := Opcode(w.code[opcodePos])
	kinds := Operands(op)
	offset := opcodePos + 1
	for j := 0; j < i; j++ {
		offset += int(width)
	}
	var raw uint32
	if kinds[i].signed() {
		raw = uint32(int32(value))
	} else {
		raw = uint32(value)
	}
	writeUint(w.code[offset:offset+int(width)], width, raw)
}

// PatchOpcode overwrites the opcode byte at pos (used to rewrite Jump ->
// JumpConst / JumpIfFalse -> JumpIfFalseConst once a reserved constant
// slot is needed, per spec.md §4.C).
func (w *Writer) PatchOpcode(pos int, op Opcode) {
	w.code[pos] = byte(op)
}
