package main

import "fmt"

// entryPointPlaceholder is substituted with the hexadecimal jump address
// before a payload line is assembled, matching the reference
// implementation's Architecture.ENTRY_POINT token.
const entryPointPlaceholder = "entry_point"

// ArchDescriptor names one supported target architecture and the ordered
// assembly source lines that make up its self-suspend payload: stop the
// process with SIGSTOP, then jump to the original entry point once resumed
// (SPEC_FULL.md §4.3, grounded on original_source/src/botox/architecture.py).
type ArchDescriptor struct {
	Name    string
	Machine uint16
	Lines   []string
}

var archX86 = ArchDescriptor{
	Name:    "x86",
	Machine: EM_386,
	Lines: []string{
		"mov eax, 20",        // getpid()
		"int 0x80",           //
		"mov ebx, eax",       //
		"mov ecx, 19",        // SIGSTOP
		"mov eax, 37",        // kill()
		"int 0x80",           //
		"mov eax, " + entryPointPlaceholder,
		"jmp eax", // goto entry_point
	},
}

var archX8664 = ArchDescriptor{
	Name:    "x86_64",
	Machine: EM_X86_64,
	Lines: []string{
		"mov eax, 0x27", // getpid()
		"syscall",       //
		"mov rdi, rax",  //
		"mov rsi, 19",   // SIGSTOP
		"mov rax, 0x3E", // kill()
		"syscall",       //
		"mov rax, " + entryPointPlaceholder,
		"jmp rax", // goto entry_point
	},
}

var archMIPS = ArchDescriptor{
	Name:    "mips",
	Machine: EM_MIPS,
	Lines: []string{
		"li $v0, 0xFB4",  // getpid()
		"syscall 0",      //
		"move $a0, $v0",  //
		"li $a1, 23",     // SIGSTOP
		"li $v0, 0xFC5",  // kill()
		"syscall 0",      //
		"li $t0, " + entryPointPlaceholder,
		"jr $t0", // goto entry_point
	},
}

var archARM = ArchDescriptor{
	Name:    "arm",
	Machine: EM_ARM,
	Lines: []string{
		"mov R7, #0x14", // getpid()
		"svc #0",        //
		"mov R1, #19",   // SIGSTOP
		"mov R7, #0x25", // kill()
		"svc #0",        //
		"ldr PC, =" + entryPointPlaceholder, // goto entry_point
	},
}

var supportedArchitectures = []*ArchDescriptor{&archX86, &archX8664, &archMIPS, &archARM}

// descriptorForMachine returns the ArchDescriptor matching e_machine, or
// ErrUnsupportedArchitecture if none of the four supported targets match.
func descriptorForMachine(machine uint16) (*ArchDescriptor, error) {
	for _, d := range supportedArchitectures {
		if d.Machine == machine {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: e_machine %d", ErrUnsupportedArchitecture, machine)
}
