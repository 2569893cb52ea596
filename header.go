package main

// Header is a typed view over the 16-byte e_ident plus the fixed ELF file
// header fields. Every getter/setter is a direct on-disk access — see
// SPEC_FULL.md §4.2 and the reference implementation's Elf_Header/Elf_Ident.
type Header struct {
	elf *ELF
}

// --- e_ident ----------------------------------------------------------------

func (h *Header) EIMagic() ([]byte, error) { return h.elf.Read(0, 4) }

func (h *Header) EIClass() (uint8, error) { return h.elf.ReadByte(4) }
func (h *Header) SetEIClass(v uint8) error {
	return h.elf.WriteByte(4, v)
}

func (h *Header) EIData() (uint8, error) { return h.elf.ReadByte(5) }
func (h *Header) SetEIData(v uint8) error {
	return h.elf.WriteByte(5, v)
}

func (h *Header) EIVersion() (uint8, error) { return h.elf.ReadByte(6) }
func (h *Header) SetEIVersion(v uint8) error {
	return h.elf.WriteByte(6, v)
}

// --- fixed-offset header fields ---------------------------------------------

func (h *Header) EType() (uint16, error) { return h.elf.ReadHalf(16) }
func (h *Header) SetEType(v uint16) error {
	return h.elf.WriteHalf(16, v)
}

func (h *Header) EMachine() (uint16, error) { return h.elf.ReadHalf(18) }
func (h *Header) SetEMachine(v uint16) error {
	return h.elf.WriteHalf(18, v)
}

func (h *Header) EVersion() (uint32, error) { return h.elf.ReadWord(20) }
func (h *Header) SetEVersion(v uint32) error {
	return h.elf.WriteWord(20, v)
}

// --- class-dependent fields ---------------------------------------------

// EEntry is the virtual address of the program's entry point.
func (h *Header) EEntry() (uint64, error) {
	return h.elf.ReadAddress(24)
}
func (h *Header) SetEEntry(v uint64) error {
	return h.elf.WriteAddress(24, v)
}

// EPhoff is the file offset of the program header table.
func (h *Header) EPhoff() (int64, error) {
	if h.elf.is64 {
		v, err := h.elf.ReadDouble(32)
		return v, err
	}
	v, err := h.elf.ReadWord(28)
	return int64(v), err
}

// SetEPhoff writes the given value at the e_phoff offset. The reference
// implementation's ELF64 setter calls write_double(32) with no value
// argument — a bug (SPEC_FULL.md §9a) — fixed here to actually write v.
func (h *Header) SetEPhoff(v int64) error {
	if h.elf.is64 {
		return h.elf.WriteDouble(32, v)
	}
	return h.elf.WriteWord(28, uint32(v))
}

// EShoff is the file offset of the section header table.
func (h *Header) EShoff() (int64, error) {
	if h.elf.is64 {
		return h.elf.ReadDouble(40)
	}
	v, err := h.elf.ReadWord(32)
	return int64(v), err
}
func (h *Header) SetEShoff(v int64) error {
	if h.elf.is64 {
		return h.elf.WriteDouble(40, v)
	}
	return h.elf.WriteWord(32, uint32(v))
}

func (h *Header) EFlags() (uint32, error) {
	if h.elf.is64 {
		return h.elf.ReadWord(48)
	}
	return h.elf.ReadWord(36)
}
func (h *Header) SetEFlags(v uint32) error {
	if h.elf.is64 {
		return h.elf.WriteWord(48, v)
	}
	return h.elf.WriteWord(36, v)
}

func (h *Header) EEhsize() (uint16, error) {
	if h.elf.is64 {
		return h.elf.ReadHalf(52)
	}
	return h.elf.ReadHalf(40)
}
func (h *Header) SetEEhsize(v uint16) error {
	if h.elf.is64 {
		return h.elf.WriteHalf(52, v)
	}
	return h.elf.WriteHalf(40, v)
}

func (h *Header) EPhentsize() (uint16, error) {
	if h.elf.is64 {
		return h.elf.ReadHalf(54)
	}
	return h.elf.ReadHalf(42)
}
func (h *Header) SetEPhentsize(v uint16) error {
	if h.elf.is64 {
		return h.elf.WriteHalf(54, v)
	}
	return h.elf.WriteHalf(42, v)
}

func (h *Header) EPhnum() (uint16, error) {
	if h.elf.is64 {
		return h.elf.ReadHalf(56)
	}
	return h.elf.ReadHalf(44)
}
func (h *Header) SetEPhnum(v uint16) error {
	if h.elf.is64 {
		return h.elf.WriteHalf(56, v)
	}
	return h.elf.WriteHalf(44, v)
}

func (h *Header) EShentsize() (uint16, error) {
	if h.elf.is64 {
		return h.elf.ReadHalf(58)
	}
	return h.elf.ReadHalf(46)
}
func (h *Header) SetEShentsize(v uint16) error {
	if h.elf.is64 {
		return h.elf.WriteHalf(58, v)
	}
	return h.elf.WriteHalf(46, v)
}

func (h *Header) EShnum() (uint16, error) {
	if h.elf.is64 {
		return h.elf.ReadHalf(60)
	}
	return h.elf.ReadHalf(48)
}
func (h *Header) SetEShnum(v uint16) error {
	if h.elf.is64 {
		return h.elf.WriteHalf(60, v)
	}
	return h.elf.WriteHalf(48, v)
}

func (h *Header) EShstrndx() (uint16, error) {
	if h.elf.is64 {
		return h.elf.ReadHalf(62)
	}
	return h.elf.ReadHalf(50)
}
func (h *Header) SetEShstrndx(v uint16) error {
	if h.elf.is64 {
		return h.elf.WriteHalf(62, v)
	}
	return h.elf.WriteHalf(50, v)
}
