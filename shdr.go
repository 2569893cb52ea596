package main

// SectionHeader is a typed view over one entry of the section-header table.
// Like ProgramHeader, every accessor resolves its offset from e_shoff +
// e_shentsize*index at access time (SPEC_FULL.md §4.2).
type SectionHeader struct {
	elf   *ELF
	index uint16
}

func (s *SectionHeader) entryOffset() (int64, error) {
	shoff, err := s.elf.Header.EShoff()
	if err != nil {
		return 0, err
	}
	shentsize, err := s.elf.Header.EShentsize()
	if err != nil {
		return 0, err
	}
	return shoff + int64(shentsize)*int64(s.index), nil
}

func (s *SectionHeader) ShName() (uint32, error) {
	off, err := s.entryOffset()
	if err != nil {
		return 0, err
	}
	return s.elf.ReadWord(off + 0)
}
func (s *SectionHeader) SetShName(v uint32) error {
	off, err := s.entryOffset()
	if err != nil {
		return err
	}
	return s.elf.WriteWord(off+0, v)
}

func (s *SectionHeader) ShType() (uint32, error) {
	off, err := s.entryOffset()
	if err != nil {
		return 0, err
	}
	return s.elf.ReadWord(off + 4)
}
func (s *SectionHeader) SetShType(v uint32) error {
	off, err := s.entryOffset()
	if err != nil {
		return err
	}
	return s.elf.WriteWord(off+4, v)
}

func (s *SectionHeader) ShFlags() (uint64, error) {
	off, err := s.entryOffset()
	if err != nil {
		return 0, err
	}
	return s.elf.ReadAddress(off + 8)
}
func (s *SectionHeader) SetShFlags(v uint64) error {
	off, err := s.entryOffset()
	if err != nil {
		return err
	}
	return s.elf.WriteAddress(off+8, v)
}

func (s *SectionHeader) ShAddr() (uint64, error) {
	off, err := s.entryOffset()
	if err != nil {
		return 0, err
	}
	if s.elf.is64 {
		return s.elf.ReadAddress(off + 16)
	}
	return s.elf.ReadAddress(off + 12)
}
func (s *SectionHeader) SetShAddr(v uint64) error {
	off, err := s.entryOffset()
	if err != nil {
		return err
	}
	if s.elf.is64 {
		return s.elf.WriteAddress(off+16, v)
	}
	return s.elf.WriteAddress(off+12, v)
}

func (s *SectionHeader) ShOffset() (int64, error) {
	off, err := s.entryOffset()
	if err != nil {
		return 0, err
	}
	if s.elf.is64 {
		return s.elf.ReadDouble(off + 24)
	}
	v, err := s.elf.ReadWord(off + 16)
	return int64(v), err
}
func (s *SectionHeader) SetShOffset(v int64) error {
	off, err := s.entryOffset()
	if err != nil {
		return err
	}
	if s.elf.is64 {
		return s.elf.WriteDouble(off+24, v)
	}
	return s.elf.WriteWord(off+16, uint32(v))
}

func (s *SectionHeader) ShSize() (uint64, error) {
	off, err := s.entryOffset()
	if err != nil {
		return 0, err
	}
	if s.elf.is64 {
		return s.elf.ReadAddress(off + 32)
	}
	return s.elf.ReadAddress(off + 20)
}
func (s *SectionHeader) SetShSize(v uint64) error {
	off, err := s.entryOffset()
	if err != nil {
		return err
	}
	if s.elf.is64 {
		return s.elf.WriteAddress(off+32, v)
	}
	return s.elf.WriteAddress(off+20, v)
}

func (s *SectionHeader) ShLink() (uint32, error) {
	off, err := s.entryOffset()
	if err != nil {
		return 0, err
	}
	if s.elf.is64 {
		return s.elf.ReadWord(off + 40)
	}
	return s.elf.ReadWord(off + 24)
}
func (s *SectionHeader) SetShLink(v uint32) error {
	off, err := s.entryOffset()
	if err != nil {
		return err
	}
	if s.elf.is64 {
		return s.elf.WriteWord(off+40, v)
	}
	return s.elf.WriteWord(off+24, v)
}

func (s *SectionHeader) ShInfo() (uint32, error) {
	off, err := s.entryOffset()
	if err != nil {
		return 0, err
	}
	if s.elf.is64 {
		return s.elf.ReadWord(off + 44)
	}
	return s.elf.ReadWord(off + 28)
}
func (s *SectionHeader) SetShInfo(v uint32) error {
	off, err := s.entryOffset()
	if err != nil {
		return err
	}
	if s.elf.is64 {
		return s.elf.WriteWord(off+44, v)
	}
	return s.elf.WriteWord(off+28, v)
}

func (s *SectionHeader) ShAddralign() (uint64, error) {
	off, err := s.entryOffset()
	if err != nil {
		return 0, err
	}
	if s.elf.is64 {
		return s.elf.ReadAddress(off + 48)
	}
	return s.elf.ReadAddress(off + 32)
}
func (s *SectionHeader) SetShAddralign(v uint64) error {
	off, err := s.entryOffset()
	if err != nil {
		return err
	}
	if s.elf.is64 {
		return s.elf.WriteAddress(off+48, v)
	}
	return s.elf.WriteAddress(off+32, v)
}

func (s *SectionHeader) ShEntsize() (uint64, error) {
	off, err := s.entryOffset()
	if err != nil {
		return 0, err
	}
	if s.elf.is64 {
		return s.elf.ReadAddress(off + 56)
	}
	return s.elf.ReadAddress(off + 36)
}
func (s *SectionHeader) SetShEntsize(v uint64) error {
	off, err := s.entryOffset()
	if err != nil {
		return err
	}
	if s.elf.is64 {
		return s.elf.WriteAddress(off+56, v)
	}
	return s.elf.WriteAddress(off+36, v)
}

// Name resolves sh_name against the section-header string table. The
// shstrtab section itself is not looked up in itself; it reports a fixed
// pseudo-name since its own sh_name entry conventionally points at an empty
// or arbitrary string.
func (s *SectionHeader) Name() (string, error) {
	if s.index == s.elf.shstrndx {
		return ".shstrtab", nil
	}
	shName, err := s.ShName()
	if err != nil {
		return "", err
	}
	strtab := s.elf.SectionHeaders[s.elf.shstrndx]
	strtabOff, err := strtab.ShOffset()
	if err != nil {
		return "", err
	}
	return s.elf.ReadString(strtabOff+int64(shName), nil)
}

// SetName renames this section in place. Since section names live inline in
// shstrtab with no free space reserved beyond the terminating NUL, the new
// name must fit within the existing name's length or ErrNameTooLong is
// returned (SPEC_FULL.md §4.2, mirroring the reference implementation's
// in-place-only rename).
func (s *SectionHeader) SetName(newName string) error {
	current, err := s.Name()
	if err != nil {
		return err
	}
	if len(newName) > len(current) {
		return ErrNameTooLong
	}
	shName, err := s.ShName()
	if err != nil {
		return err
	}
	strtab := s.elf.SectionHeaders[s.elf.shstrndx]
	strtabOff, err := strtab.ShOffset()
	if err != nil {
		return err
	}
	return s.elf.WriteString(strtabOff+int64(shName), newName)
}

// Flags returns a convenience wrapper exposing individual sh_flags bits.
func (s *SectionHeader) Flags() SectionFlags { return SectionFlags{s: s} }

// SectionFlags exposes the bits of sh_flags as independent booleans.
type SectionFlags struct{ s *SectionHeader }

func (f SectionFlags) Write() (bool, error)   { return f.bit(SHF_WRITE) }
func (f SectionFlags) Allocate() (bool, error) { return f.bit(SHF_ALLOC) }
func (f SectionFlags) Exec() (bool, error)    { return f.bit(SHF_EXECINSTR) }

func (f SectionFlags) bit(mask uint64) (bool, error) {
	v, err := f.s.ShFlags()
	if err != nil {
		return false, err
	}
	return v&mask != 0, nil
}

func (f SectionFlags) SetWrite(on bool) error    { return f.setBit(SHF_WRITE, on) }
func (f SectionFlags) SetAllocate(on bool) error { return f.setBit(SHF_ALLOC, on) }
func (f SectionFlags) SetExec(on bool) error     { return f.setBit(SHF_EXECINSTR, on) }

func (f SectionFlags) setBit(mask uint64, on bool) error {
	v, err := f.s.ShFlags()
	if err != nil {
		return err
	}
	if on {
		v |= mask
	} else {
		v &^= mask
	}
	return f.s.SetShFlags(v)
}
