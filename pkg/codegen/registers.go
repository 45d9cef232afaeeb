package codegen

// registerMap holds the seven logical registers CASM exposes. Operands
// that name anything else are emitted untouched.
var registerMap = map[string]string{
	"r0": "eax",
	"r1": "ebx",
	"r2": "ecx",
	"r3": "edx",
	"r4": "esi",
	"r5": "edi",
	"r6": "ebp",
}

// TranslateRegister maps a logical register name to its physical 32-bit
// x86 register name, passing any other operand text through unchanged.
func TranslateRegister(name string) string {
	if phys, ok := registerMap[name]; ok {
		return phys
	}
	return name
}
