package dsu

// trapCodes maps the 8-bit TT (trap type) code latched in %tbr/the trap
// register to a human-readable description. 0x2B has a single entry, the
// hardware write_error, so a lookup of 0x2B always returns it; a software
// trap instruction latches a code of 0x80 or above, never 0x2B.
var trapCodes = map[uint8]string{
	0x00: "reset",
	0x01: "instruction_access_error",
	0x02: "illegal_instruction",
	0x03: "privileged_instruction",
	0x04: "fp_disabled",
	0x05: "window_overflow",
	0x06: "window_underflow",
	0x07: "mem_address_not_aligned",
	0x08: "fp_exception",
	0x09: "data_access_exception",
	0x0A: "tag_overflow",
	0x0B: "watchpoint_detected",
	0x20: "register_hardware_error",
	0x21: "instruction_access_error",
	0x29: "data_store_error",
	0x2A: "divide_exception",
	0x2B: "write_error",
	0x80: "trap_instruction_ok",
}

// TrapDescription returns the description for a TT code, or "unknown" if
// the table has no entry.
func TrapDescription(tt uint8) string {
	if s, ok := trapCodes[tt]; ok {
		return s
	}
	return "unknown"
}
