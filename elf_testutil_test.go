package main

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// buildMinimalELF writes a minimal but structurally valid ELF image (one
// PT_LOAD program header, no sections) to a temp file and returns its path.
// is64/big select the class and endianness under test.
func buildMinimalELF(t *testing.T, is64, big bool, machine uint16, entry uint64) string {
	t.Helper()

	var order binary.ByteOrder = binary.LittleEndian
	eiData := byte(ELFDATA2LSB)
	if big {
		order = binary.BigEndian
		eiData = ELFDATA2MSB
	}

	var ehsize, phentsize int
	var eiClass byte
	if is64 {
		ehsize, phentsize, eiClass = elf64HeaderSize, elf64PhentSize, ELFCLASS64
	} else {
		ehsize, phentsize, eiClass = elf32HeaderSize, elf32PhentSize, ELFCLASS32
	}

	phoff := ehsize
	buf := make([]byte, phoff+phentsize)

	buf[0], buf[1], buf[2], buf[3] = 0x7f, 'E', 'L', 'F'
	buf[4] = eiClass
	buf[5] = eiData
	buf[6] = 1 // EI_VERSION

	order.PutUint16(buf[16:], ET_EXEC)
	order.PutUint16(buf[18:], machine)
	order.PutUint32(buf[20:], 1) // e_version

	if is64 {
		order.PutUint64(buf[24:], entry)
		order.PutUint64(buf[32:], uint64(phoff)) // e_phoff
		order.PutUint64(buf[40:], 0)              // e_shoff
		order.PutUint32(buf[48:], 0)              // e_flags
		order.PutUint16(buf[52:], uint16(ehsize))
		order.PutUint16(buf[54:], uint16(phentsize))
		order.PutUint16(buf[56:], 1) // e_phnum
		order.PutUint16(buf[58:], 0) // e_shentsize
		order.PutUint16(buf[60:], 0) // e_shnum
		order.PutUint16(buf[62:], 0) // e_shstrndx

		phOff := phoff
		order.PutUint32(buf[phOff:], PT_LOAD)
		order.PutUint32(buf[phOff+4:], PF_R|PF_X)
		order.PutUint64(buf[phOff+8:], 0)     // p_offset
		order.PutUint64(buf[phOff+16:], 0x400000) // p_vaddr
		order.PutUint64(buf[phOff+24:], 0x400000) // p_paddr
		order.PutUint64(buf[phOff+32:], uint64(len(buf))) // p_filesz
		order.PutUint64(buf[phOff+40:], uint64(len(buf))) // p_memsz
		order.PutUint64(buf[phOff+48:], 0x1000)           // p_align
	} else {
		order.PutUint32(buf[24:], uint32(entry))
		order.PutUint32(buf[28:], uint32(phoff)) // e_phoff
		order.PutUint32(buf[32:], 0)              // e_shoff
		order.PutUint32(buf[36:], 0)              // e_flags
		order.PutUint16(buf[40:], uint16(ehsize))
		order.PutUint16(buf[42:], uint16(phentsize))
		order.PutUint16(buf[44:], 1) // e_phnum
		order.PutUint16(buf[46:], 0) // e_shentsize
		order.PutUint16(buf[48:], 0) // e_shnum
		order.PutUint16(buf[50:], 0) // e_shstrndx

		phOff := phoff
		order.PutUint32(buf[phOff:], PT_LOAD)
		order.PutUint32(buf[phOff+4:], 0)                 // p_offset
		order.PutUint32(buf[phOff+8:], 0x08048000)        // p_vaddr
		order.PutUint32(buf[phOff+12:], 0x08048000)       // p_paddr
		order.PutUint32(buf[phOff+16:], uint32(len(buf))) // p_filesz
		order.PutUint32(buf[phOff+20:], uint32(len(buf))) // p_memsz
		order.PutUint32(buf[phOff+24:], PF_R|PF_X)        // p_flags
		order.PutUint32(buf[phOff+28:], 0x1000)           // p_align
	}

	path := filepath.Join(t.TempDir(), "fixture.elf")
	if err := os.WriteFile(path, buf, 0o755); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
