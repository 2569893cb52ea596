package main

// ProgramHeader is a typed view over one entry of the program-header table,
// indexed by position. Every accessor resolves its on-disk offset from
// e_phoff + e_phentsize*index at access time, so it stays correct across
// Insert operations that shift the table (SPEC_FULL.md §4.2/§4.5).
type ProgramHeader struct {
	elf   *ELF
	index uint16
}

func (p *ProgramHeader) entryOffset() (int64, error) {
	phoff, err := p.elf.Header.EPhoff()
	if err != nil {
		return 0, err
	}
	phentsize, err := p.elf.Header.EPhentsize()
	if err != nil {
		return 0, err
	}
	return phoff + int64(phentsize)*int64(p.index), nil
}

func (p *ProgramHeader) PType() (uint32, error) {
	off, err := p.entryOffset()
	if err != nil {
		return 0, err
	}
	return p.elf.ReadWord(off + 0)
}
func (p *ProgramHeader) SetPType(v uint32) error {
	off, err := p.entryOffset()
	if err != nil {
		return err
	}
	return p.elf.WriteWord(off+0, v)
}

func (p *ProgramHeader) PFlags() (uint32, error) {
	off, err := p.entryOffset()
	if err != nil {
		return 0, err
	}
	if p.elf.is64 {
		return p.elf.ReadWord(off + 4)
	}
	return p.elf.ReadWord(off + 24)
}
func (p *ProgramHeader) SetPFlags(v uint32) error {
	off, err := p.entryOffset()
	if err != nil {
		return err
	}
	if p.elf.is64 {
		return p.elf.WriteWord(off+4, v)
	}
	return p.elf.WriteWord(off+24, v)
}

func (p *ProgramHeader) POffset() (int64, error) {
	off, err := p.entryOffset()
	if err != nil {
		return 0, err
	}
	if p.elf.is64 {
		return p.elf.ReadDouble(off + 8)
	}
	v, err := p.elf.ReadWord(off + 4)
	return int64(v), err
}
func (p *ProgramHeader) SetPOffset(v int64) error {
	off, err := p.entryOffset()
	if err != nil {
		return err
	}
	if p.elf.is64 {
		return p.elf.WriteDouble(off+8, v)
	}
	return p.elf.WriteWord(off+4, uint32(v))
}

func (p *ProgramHeader) PVaddr() (uint64, error) {
	off, err := p.entryOffset()
	if err != nil {
		return 0, err
	}
	if p.elf.is64 {
		return p.elf.ReadAddress(off + 16)
	}
	return p.elf.ReadAddress(off + 8)
}
func (p *ProgramHeader) SetPVaddr(v uint64) error {
	off, err := p.entryOffset()
	if err != nil {
		return err
	}
	if p.elf.is64 {
		return p.elf.WriteAddress(off+16, v)
	}
	return p.elf.WriteAddress(off+8, v)
}

func (p *ProgramHeader) PPaddr() (uint64, error) {
	off, err := p.entryOffset()
	if err != nil {
		return 0, err
	}
	if p.elf.is64 {
		return p.elf.ReadAddress(off + 24)
	}
	return p.elf.ReadAddress(off + 12)
}
func (p *ProgramHeader) SetPPaddr(v uint64) error {
	off, err := p.entryOffset()
	if err != nil {
		return err
	}
	if p.elf.is64 {
		return p.elf.WriteAddress(off+24, v)
	}
	return p.elf.WriteAddress(off+12, v)
}

func (p *ProgramHeader) PFilesz() (uint64, error) {
	off, err := p.entryOffset()
	if err != nil {
		return 0, err
	}
	if p.elf.is64 {
		return p.elf.ReadAddress(off + 32)
	}
	return p.elf.ReadAddress(off + 16)
}
func (p *ProgramHeader) SetPFilesz(v uint64) error {
	off, err := p.entryOffset()
	if err != nil {
		return err
	}
	if p.elf.is64 {
		return p.elf.WriteAddress(off+32, v)
	}
	return p.elf.WriteAddress(off+16, v)
}

func (p *ProgramHeader) PMemsz() (uint64, error) {
	off, err := p.entryOffset()
	if err != nil {
		return 0, err
	}
	if p.elf.is64 {
		return p.elf.ReadAddress(off + 40)
	}
	return p.elf.ReadAddress(off + 20)
}
func (p *ProgramHeader) SetPMemsz(v uint64) error {
	off, err := p.entryOffset()
	if err != nil {
		return err
	}
	if p.elf.is64 {
		return p.elf.WriteAddress(off+40, v)
	}
	return p.elf.WriteAddress(off+20, v)
}

func (p *ProgramHeader) PAlign() (uint64, error) {
	off, err := p.entryOffset()
	if err != nil {
		return 0, err
	}
	if p.elf.is64 {
		return p.elf.ReadAddress(off + 48)
	}
	return p.elf.ReadAddress(off + 28)
}
func (p *ProgramHeader) SetPAlign(v uint64) error {
	off, err := p.entryOffset()
	if err != nil {
		return err
	}
	if p.elf.is64 {
		return p.elf.WriteAddress(off+48, v)
	}
	return p.elf.WriteAddress(off+28, v)
}

// Flags returns a convenience wrapper exposing the individual R/W/X bits of
// p_flags (SPEC_FULL.md §4.2).
func (p *ProgramHeader) Flags() ProgramFlags { return ProgramFlags{p: p} }

// ProgramFlags exposes the bits of p_flags as independent booleans.
type ProgramFlags struct{ p *ProgramHeader }

func (f ProgramFlags) Read() (bool, error)  { return f.bit(PF_R) }
func (f ProgramFlags) Write() (bool, error) { return f.bit(PF_W) }
func (f ProgramFlags) Exec() (bool, error)  { return f.bit(PF_X) }

func (f ProgramFlags) bit(mask uint32) (bool, error) {
	v, err := f.p.PFlags()
	if err != nil {
		return false, err
	}
	return v&mask != 0, nil
}

func (f ProgramFlags) SetRead(on bool) error  { return f.setBit(PF_R, on) }
func (f ProgramFlags) SetWrite(on bool) error { return f.setBit(PF_W, on) }
func (f ProgramFlags) SetExec(on bool) error  { return f.setBit(PF_X, on) }

func (f ProgramFlags) setBit(mask uint32, on bool) error {
	v, err := f.p.PFlags()
	if err != nil {
		return err
	}
	if on {
		v |= mask
	} else {
		v &^= mask
	}
	return f.p.SetPFlags(v)
}
