package main

import "fmt"

// ELF class/type/segment/machine constants, transliterated from
// original_source/src/botox/elf.py's ELF class constants.
const (
	ELFDATA2LSB = 1
	ELFDATA2MSB = 2

	ELFCLASSNONE = 0
	ELFCLASS32   = 1
	ELFCLASS64   = 2

	ET_NONE = 0
	ET_REL  = 1
	ET_EXEC = 2
	ET_DYN  = 3
	ET_CORE = 4

	PT_NULL    = 0
	PT_LOAD    = 1
	PT_DYNAMIC = 2
	PT_INTERP  = 3
	PT_NOTE    = 4
	PT_SHLIB   = 5
	PT_PHDR    = 6

	EM_NONE   = 0
	EM_SPARC  = 2
	EM_386    = 3
	EM_MIPS   = 8
	EM_ARM    = 40
	EM_X86_64 = 62

	SHT_NULL     = 0
	SHT_PROGBITS = 1
	SHT_SYMTAB   = 2
	SHT_DYNSYM   = 11

	// Program-header p_flags bits.
	PF_X = 0b001
	PF_W = 0b010
	PF_R = 0b100

	// Section-header sh_flags bits.
	SHF_WRITE     = 0x1
	SHF_ALLOC     = 0x2
	SHF_EXECINSTR = 0x4
)

// elf32HeaderSize and elf64HeaderSize are e_ehsize for each class.
const (
	elf32HeaderSize = 52
	elf64HeaderSize = 64

	elf32PhentSize = 32
	elf64PhentSize = 56

	elf32ShentSize = 40
	elf64ShentSize = 64
)

// ELF is the primary handle for reading and mutating an on-disk ELF image.
// Field accessors on Header, ProgramHeader, and SectionHeader all route
// through this type's Read*/Write* primitives (elfio.go) — every access is a
// real filesystem operation, matching the reference implementation's
// "accessors touch the file" contract (SPEC_FULL.md §4.2).
type ELF struct {
	file *rawFile

	is64   bool
	endian byteOrderAccessor

	Header         *Header
	ProgramHeaders []*ProgramHeader
	SectionHeaders []*SectionHeader

	shstrndx uint16
}

// byteOrderAccessor is the subset of binary.ByteOrder we need; kept as an
// alias so elfio.go's helpers can be unit tested independent of the ELF type.
type byteOrderAccessor = interface {
	Uint16([]byte) uint16
	PutUint16([]byte, uint16)
	Uint32([]byte) uint32
	PutUint32([]byte, uint32)
	Uint64([]byte) uint64
	PutUint64([]byte, uint64)
}

// Open loads an ELF file at path. When readOnly is true, every mutating
// operation (Write*, Insert, Append, Delete) fails with ErrReadOnly.
func Open(path string, readOnly bool) (*ELF, error) {
	f, err := openRawFile(path, readOnly)
	if err != nil {
		return nil, err
	}
	e := &ELF{file: f}
	if err := e.reload(); err != nil {
		f.close()
		return nil, err
	}
	return e, nil
}

// Close releases the underlying file handle.
func (e *ELF) Close() error {
	return e.file.close()
}

// reload re-reads the identification bytes, file header, and header tables.
// Called once at Open and again after every mutating bulk operation, since
// those rewrite the file and all cached offsets must be re-derived from the
// new bytes on disk.
func (e *ELF) reload() error {
	magic, err := e.file.readAt(0, 4)
	if err != nil {
		return err
	}
	if magic[0] != 0x7f || magic[1] != 'E' || magic[2] != 'L' || magic[3] != 'F' {
		return fmt.Errorf("%w: bad magic %x", ErrMalformedELF, magic)
	}

	identClass, err := e.file.readAt(4, 1)
	if err != nil {
		return err
	}
	switch identClass[0] {
	case ELFCLASS64:
		e.is64 = true
	case ELFCLASS32:
		e.is64 = false
	default:
		return fmt.Errorf("%w: invalid e_ident[EI_CLASS] value %d", ErrMalformedELF, identClass[0])
	}

	identData, err := e.file.readAt(5, 1)
	if err != nil {
		return err
	}
	order, err := byteOrderFor(identData[0])
	if err != nil {
		return err
	}
	e.endian = order

	e.Header = &Header{elf: e}

	fsize, err := e.Size()
	if err != nil {
		return err
	}

	phoff, err := e.Header.EPhoff()
	if err != nil {
		return err
	}
	phentsize, err := e.Header.EPhentsize()
	if err != nil {
		return err
	}
	phnum, err := e.Header.EPhnum()
	if err != nil {
		return err
	}
	if phoff < 0 || phoff+int64(phentsize)*int64(phnum) > fsize {
		return fmt.Errorf("%w: program header table extends past end of file", ErrMalformedELF)
	}

	e.ProgramHeaders = make([]*ProgramHeader, 0, phnum)
	for i := uint16(0); i < phnum; i++ {
		e.ProgramHeaders = append(e.ProgramHeaders, &ProgramHeader{elf: e, index: i})
	}

	shoff, err := e.Header.EShoff()
	if err != nil {
		return err
	}
	shentsize, err := e.Header.EShentsize()
	if err != nil {
		return err
	}
	shnum, err := e.Header.EShnum()
	if err != nil {
		return err
	}
	if shnum > 0 {
		if shoff < 0 || shoff+int64(shentsize)*int64(shnum) > fsize {
			return fmt.Errorf("%w: section header table extends past end of file", ErrMalformedELF)
		}
	}

	shstrndx, err := e.Header.EShstrndx()
	if err != nil {
		return err
	}
	e.shstrndx = shstrndx

	e.SectionHeaders = make([]*SectionHeader, 0, shnum)
	for i := uint16(0); i < shnum; i++ {
		e.SectionHeaders = append(e.SectionHeaders, &SectionHeader{elf: e, index: i})
	}

	return nil
}

// Endianness reports the file's byte order, derived once from
// e_ident[EI_DATA] (spec §3, "Endianness is determined once").
func (e *ELF) Endianness() byteOrderAccessor { return e.endian }

// Is64 reports whether the file is ELFCLASS64.
func (e *ELF) Is64() bool { return e.is64 }

// ReadOnly reports whether this model rejects mutating operations.
func (e *ELF) ReadOnly() bool { return e.file.readOnly }
