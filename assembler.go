package main

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AssemblePayload resolves entryPointPlaceholder against jumpAddress in each
// of desc's assembly lines, encodes every resolved line to raw machine code,
// and concatenates the result. This is the Go-native stand-in for the
// reference implementation's dependency on the keystone assembler engine: the
// payload only ever needs the same fixed handful of instruction forms per
// architecture, so rather than embed a general assembler we pattern-match
// each line directly (SPEC_FULL.md §4.4).
func AssemblePayload(desc *ArchDescriptor, jumpAddress uint64, endian byteOrderAccessor) ([]byte, error) {
	var out []byte
	for _, line := range desc.Lines {
		resolved := strings.ReplaceAll(line, entryPointPlaceholder, fmt.Sprintf("0x%x", jumpAddress))

		encoded, err := assembleLine(desc.Machine, resolved, endian)
		if err != nil {
			return nil, &AssemblyError{Line: resolved, Err: err}
		}
		out = append(out, encoded...)
	}
	return out, nil
}

func assembleLine(machine uint16, line string, endian byteOrderAccessor) ([]byte, error) {
	switch machine {
	case EM_386:
		return assembleX86Line(line)
	case EM_X86_64:
		return assembleX8664Line(line)
	case EM_MIPS:
		return assembleMIPSLine(line, endian)
	case EM_ARM:
		return assembleARMLine(line, endian)
	default:
		return nil, fmt.Errorf("%w: e_machine %d", ErrUnsupportedArchitecture, machine)
	}
}

func parseImmediate(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// --- x86 (32-bit) ------------------------------------------------------------

var x86Regs32 = map[string]uint32{"eax": 0, "ecx": 1, "edx": 2, "ebx": 3, "esp": 4, "ebp": 5, "esi": 6, "edi": 7}

var (
	reX86MovRegImm = regexp.MustCompile(`^mov (\w+), (0x[0-9a-fA-F]+|\d+)$`)
	reX86MovRegReg = regexp.MustCompile(`^mov (\w+), (\w+)$`)
	reX86Int       = regexp.MustCompile(`^int (0x[0-9a-fA-F]+|\d+)$`)
	reX86Jmp       = regexp.MustCompile(`^jmp (\w+)$`)
)

func assembleX86Line(line string) ([]byte, error) {
	if m := reX86MovRegImm.FindStringSubmatch(line); m != nil {
		reg, ok := x86Regs32[m[1]]
		if !ok {
			return nil, fmt.Errorf("unknown register %q", m[1])
		}
		imm, err := parseImmediate(m[2])
		if err != nil {
			return nil, err
		}
		b := make([]byte, 5)
		b[0] = byte(0xB8 + reg)
		binary.LittleEndian.PutUint32(b[1:], uint32(imm))
		return b, nil
	}
	if m := reX86Int.FindStringSubmatch(line); m != nil {
		imm, err := parseImmediate(m[1])
		if err != nil {
			return nil, err
		}
		return []byte{0xCD, byte(imm)}, nil
	}
	if m := reX86Jmp.FindStringSubmatch(line); m != nil {
		reg, ok := x86Regs32[m[1]]
		if !ok {
			return nil, fmt.Errorf("unknown register %q", m[1])
		}
		return []byte{0xFF, byte(0xE0 | reg)}, nil
	}
	if m := reX86MovRegReg.FindStringSubmatch(line); m != nil {
		dst, ok1 := x86Regs32[m[1]]
		src, ok2 := x86Regs32[m[2]]
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("unknown register in %q", line)
		}
		return []byte{0x89, byte(0xC0 | (src << 3) | dst)}, nil
	}
	return nil, fmt.Errorf("unrecognized x86 instruction")
}

// --- x86-64 -------------------------------------------------------------

var x86Regs64 = map[string]uint32{"rax": 0, "rcx": 1, "rdx": 2, "rbx": 3, "rsp": 4, "rbp": 5, "rsi": 6, "rdi": 7}

var (
	reX64MovRegImm = regexp.MustCompile(`^mov (\w+), (0x[0-9a-fA-F]+|\d+)$`)
	reX64MovRegReg = regexp.MustCompile(`^mov (\w+), (\w+)$`)
	reX64Jmp       = regexp.MustCompile(`^jmp (\w+)$`)
)

func assembleX8664Line(line string) ([]byte, error) {
	if line == "syscall" {
		return []byte{0x0F, 0x05}, nil
	}
	if m := reX64MovRegImm.FindStringSubmatch(line); m != nil {
		imm, err := parseImmediate(m[2])
		if err != nil {
			return nil, err
		}
		// eax (32-bit) destinations need no REX prefix; r64 destinations are
		// loaded via the 10-byte movabs form so any immediate width works.
		if m[1] == "eax" {
			b := make([]byte, 5)
			b[0] = 0xB8
			binary.LittleEndian.PutUint32(b[1:], uint32(imm))
			return b, nil
		}
		reg, ok := x86Regs64[m[1]]
		if !ok {
			return nil, fmt.Errorf("unknown register %q", m[1])
		}
		b := make([]byte, 10)
		b[0] = 0x48 // REX.W
		b[1] = byte(0xB8 + reg)
		binary.LittleEndian.PutUint64(b[2:], imm)
		return b, nil
	}
	if m := reX64Jmp.FindStringSubmatch(line); m != nil {
		reg, ok := x86Regs64[m[1]]
		if !ok {
			return nil, fmt.Errorf("unknown register %q", m[1])
		}
		return []byte{0xFF, byte(0xE0 | reg)}, nil
	}
	if m := reX64MovRegReg.FindStringSubmatch(line); m != nil {
		dst, ok1 := x86Regs64[m[1]]
		src, ok2 := x86Regs64[m[2]]
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("unknown register in %q", line)
		}
		return []byte{0x48, 0x89, byte(0xC0 | (src << 3) | dst)}, nil
	}
	return nil, fmt.Errorf("unrecognized x86-64 instruction")
}

// --- MIPS32 -------------------------------------------------------------

var mipsRegs = map[string]uint32{
	"$zero": 0, "$at": 1, "$v0": 2, "$v1": 3,
	"$a0": 4, "$a1": 5, "$a2": 6, "$a3": 7,
	"$t0": 8, "$t1": 9, "$t2": 10, "$t3": 11,
}

var (
	reMipsLi     = regexp.MustCompile(`^li (\$\w+), (0x[0-9a-fA-F]+|\d+)$`)
	reMipsSys    = regexp.MustCompile(`^syscall \d+$`)
	reMipsMove   = regexp.MustCompile(`^move (\$\w+), (\$\w+)$`)
	reMipsJr     = regexp.MustCompile(`^jr (\$\w+)$`)
)

func mipsWord(buf []byte, endian byteOrderAccessor, v uint32) []byte {
	w := make([]byte, 4)
	endian.PutUint32(w, v)
	return append(buf, w...)
}

func assembleMIPSLine(line string, endian byteOrderAccessor) ([]byte, error) {
	if reMipsSys.MatchString(line) {
		return mipsWord(nil, endian, 0x0000000C), nil // syscall
	}
	if m := reMipsLi.FindStringSubmatch(line); m != nil {
		rt, ok := mipsRegs[m[1]]
		if !ok {
			return nil, fmt.Errorf("unknown register %q", m[1])
		}
		imm, err := parseImmediate(m[2])
		if err != nil {
			return nil, err
		}
		if imm <= 0xFFFF {
			// ori rt, $zero, imm
			word := (uint32(0x0D) << 26) | (0 << 21) | (rt << 16) | uint32(imm)
			return mipsWord(nil, endian, word), nil
		}
		// li expands to lui $at, upper16 ; ori rt, $at, lower16
		upper := uint32(imm>>16) & 0xFFFF
		lower := uint32(imm) & 0xFFFF
		lui := (uint32(0x0F) << 26) | (0 << 21) | (1 << 16) | upper
		ori := (uint32(0x0D) << 26) | (1 << 21) | (rt << 16) | lower
		out := mipsWord(nil, endian, lui)
		return mipsWord(out, endian, ori), nil
	}
	if m := reMipsMove.FindStringSubmatch(line); m != nil {
		rd, ok1 := mipsRegs[m[1]]
		rs, ok2 := mipsRegs[m[2]]
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("unknown register in %q", line)
		}
		// addu rd, rs, $zero
		word := (rs << 21) | (0 << 16) | (rd << 11) | 0x21
		return mipsWord(nil, endian, word), nil
	}
	if m := reMipsJr.FindStringSubmatch(line); m != nil {
		rs, ok := mipsRegs[m[1]]
		if !ok {
			return nil, fmt.Errorf("unknown register %q", m[1])
		}
		word := (rs << 21) | 0x08
		return mipsWord(nil, endian, word), nil
	}
	return nil, fmt.Errorf("unrecognized MIPS instruction")
}

// --- ARM ------------------------------------------------------------------

var armRegs = map[string]uint32{
	"R0": 0, "R1": 1, "R2": 2, "R3": 3, "R4": 4, "R5": 5, "R6": 6, "R7": 7,
	"PC": 15,
}

var (
	reArmMovImm = regexp.MustCompile(`^mov (R\d+), #(0x[0-9a-fA-F]+|\d+)$`)
	reArmSvc    = regexp.MustCompile(`^svc #(0x[0-9a-fA-F]+|\d+)$`)
	reArmLdrPC  = regexp.MustCompile(`^ldr PC, =(0x[0-9a-fA-F]+)$`)
)

func armWord(endian byteOrderAccessor, v uint32) []byte {
	w := make([]byte, 4)
	endian.PutUint32(w, v)
	return w
}

func assembleARMLine(line string, endian byteOrderAccessor) ([]byte, error) {
	if m := reArmMovImm.FindStringSubmatch(line); m != nil {
		rd, ok := armRegs[m[1]]
		if !ok {
			return nil, fmt.Errorf("unknown register %q", m[1])
		}
		imm, err := parseImmediate(m[2])
		if err != nil {
			return nil, err
		}
		if imm > 0xFF {
			return nil, fmt.Errorf("immediate %d does not fit an unrotated ARM MOV operand", imm)
		}
		word := (uint32(0xE) << 28) | (1 << 25) | (uint32(0xD) << 21) | (rd << 12) | uint32(imm)
		return armWord(endian, word), nil
	}
	if m := reArmSvc.FindStringSubmatch(line); m != nil {
		imm, err := parseImmediate(m[1])
		if err != nil {
			return nil, err
		}
		word := (uint32(0xE) << 28) | (uint32(0xF) << 24) | uint32(imm)
		return armWord(endian, word), nil
	}
	if m := reArmLdrPC.FindStringSubmatch(line); m != nil {
		addr, err := parseImmediate(m[1])
		if err != nil {
			return nil, err
		}
		// ldr PC, [PC, #-4] followed immediately by the literal value: the
		// classic ARM "load 32-bit constant" idiom, since PC reads as
		// instruction address + 8 at execution time.
		instr := armWord(endian, 0xE51FF004)
		lit := armWord(endian, uint32(addr))
		return append(instr, lit...), nil
	}
	return nil, fmt.Errorf("unrecognized ARM instruction")
}
