package main

import (
	"fmt"
	"log"
)

// defaultPageSize is the alignment of the injected segment when neither
// BOTOX_PAGE_SIZE nor -page-size sets one, and when the configured page size
// is zero (SPEC_FULL.md §4.5). See config.go.
const defaultPageSize = 0x1000

// Infect injects the stop-and-jump payload into the ELF file at path,
// following the reference implementation's injection algorithm
// (SPEC_FULL.md §4.5): pick an architecture from e_machine, carve out a new
// loadable segment, assemble the payload targeting the original entry point,
// and rewrite e_entry to point at it.
func Infect(path string, cfg Config) error {
	unlock, err := acquireLock(path)
	if err != nil {
		return err
	}
	defer unlock()

	elf, err := Open(path, false)
	if err != nil {
		return err
	}
	defer elf.Close()

	machine, err := elf.Header.EMachine()
	if err != nil {
		return err
	}
	desc, err := descriptorForMachine(machine)
	if err != nil {
		return err
	}
	if (desc.Machine == EM_X86_64) != elf.Is64() {
		return fmt.Errorf("%w: %s payload does not match the file's ELF class", ErrUnsupportedArchitecture, desc.Name)
	}
	cfg.Logger.Printf("selected architecture %s for e_machine=%d", desc.Name, machine)

	eType, err := elf.Header.EType()
	if err != nil {
		return err
	}
	if eType != ET_EXEC && eType != ET_DYN {
		return fmt.Errorf("%w: e_type %d is not ET_EXEC or ET_DYN", ErrMalformedELF, eType)
	}

	if len(elf.ProgramHeaders) == 0 {
		return fmt.Errorf("%w: file has no program headers", ErrMalformedELF)
	}

	originalEntry, err := elf.Header.EEntry()
	if err != nil {
		return err
	}

	page := uint64(cfg.PageSize)
	if page == 0 {
		page = defaultPageSize
	}

	vNew, err := nextLoadVirtualAddress(elf, page)
	if err != nil {
		return err
	}

	if err := growProgramHeaderTable(elf); err != nil {
		return err
	}

	payload, err := AssemblePayload(desc, originalEntry, elf.Endianness())
	if err != nil {
		return err
	}

	fsize, err := elf.Size()
	if err != nil {
		return err
	}
	oNew, padding := alignedFileOffset(fsize, vNew, page)
	if padding > 0 {
		if err := elf.Append(make([]byte, padding)); err != nil {
			return err
		}
	}
	if err := elf.Append(payload); err != nil {
		return err
	}

	newIdx := len(elf.ProgramHeaders) - 1
	newPhdr := elf.ProgramHeaders[newIdx]
	if err := newPhdr.SetPType(PT_LOAD); err != nil {
		return err
	}
	if err := newPhdr.Flags().SetRead(true); err != nil {
		return err
	}
	if err := newPhdr.Flags().SetWrite(false); err != nil {
		return err
	}
	if err := newPhdr.Flags().SetExec(true); err != nil {
		return err
	}
	if err := newPhdr.SetPOffset(oNew); err != nil {
		return err
	}
	if err := newPhdr.SetPVaddr(vNew); err != nil {
		return err
	}
	if err := newPhdr.SetPPaddr(vNew); err != nil {
		return err
	}
	if err := newPhdr.SetPFilesz(uint64(len(payload))); err != nil {
		return err
	}
	if err := newPhdr.SetPMemsz(uint64(len(payload))); err != nil {
		return err
	}
	if err := newPhdr.SetPAlign(page); err != nil {
		return err
	}

	if err := elf.Header.SetEEntry(vNew); err != nil {
		return err
	}

	cfg.Logger.Printf("infected %s: new segment at vaddr=0x%x offset=0x%x size=%d, entry 0x%x -> 0x%x",
		path, vNew, oNew, len(payload), originalEntry, vNew)
	return nil
}

// nextLoadVirtualAddress picks a virtual address above every existing
// segment's mapped extent, rounded up to page alignment.
func nextLoadVirtualAddress(elf *ELF, page uint64) (uint64, error) {
	var high uint64
	for _, ph := range elf.ProgramHeaders {
		vaddr, err := ph.PVaddr()
		if err != nil {
			return 0, err
		}
		memsz, err := ph.PMemsz()
		if err != nil {
			return 0, err
		}
		if vaddr+memsz > high {
			high = vaddr + memsz
		}
	}
	return roundUp(high, page), nil
}

// alignedFileOffset picks a file offset at or after fsize such that
// offset ≡ vaddr (mod page), returning the offset and the zero-padding
// required to reach it.
func alignedFileOffset(fsize int64, vaddr uint64, page uint64) (int64, int64) {
	base := uint64(fsize)
	target := base
	rem := target % page
	want := vaddr % page
	if rem != want {
		if want > rem {
			target += want - rem
		} else {
			target += page - (rem - want)
		}
	}
	return int64(target), int64(target) - fsize
}

func roundUp(v, page uint64) uint64 {
	if page == 0 {
		return v
	}
	if v%page == 0 {
		return v
	}
	return (v/page + 1) * page
}

// growProgramHeaderTable reserves one new slot at the end of the program
// header table, shifting every file-offset field at or past the insertion
// point by e_phentsize, then increments e_phnum (SPEC_FULL.md §4.5 step 5).
func growProgramHeaderTable(elf *ELF) error {
	phoff, err := elf.Header.EPhoff()
	if err != nil {
		return err
	}
	phentsize, err := elf.Header.EPhentsize()
	if err != nil {
		return err
	}
	phnum, err := elf.Header.EPhnum()
	if err != nil {
		return err
	}
	insertAt := phoff + int64(phentsize)*int64(phnum)
	shift := int64(phentsize)

	if err := elf.Insert(insertAt, make([]byte, phentsize)); err != nil {
		return err
	}

	shoff, err := elf.Header.EShoff()
	if err != nil {
		return err
	}
	if shoff >= insertAt {
		if err := elf.Header.SetEShoff(shoff + shift); err != nil {
			return err
		}
	}

	for _, ph := range elf.ProgramHeaders[:phnum] {
		off, err := ph.POffset()
		if err != nil {
			return err
		}
		if off >= insertAt {
			if err := ph.SetPOffset(off + shift); err != nil {
				return err
			}
		}
	}

	for _, sh := range elf.SectionHeaders {
		off, err := sh.ShOffset()
		if err != nil {
			return err
		}
		if off >= insertAt {
			fsize, err := elf.Size()
			if err != nil {
				return err
			}
			if off+shift > fsize {
				if err := elf.Append(make([]byte, off+shift-fsize)); err != nil {
					return err
				}
			}
			if err := sh.SetShOffset(off + shift); err != nil {
				return err
			}
		}
	}

	return elf.Header.SetEPhnum(phnum + 1)
}

// nopLogger is used where no logger is configured (tests).
var nopLogger = log.New(discardWriter{}, "", 0)

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
