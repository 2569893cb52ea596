package main

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleX86Line(t *testing.T) {
	b, err := assembleX86Line("mov eax, 20")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xB8, 0x14, 0x00, 0x00, 0x00}, b)

	b, err = assembleX86Line("int 0x80")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCD, 0x80}, b)

	b, err = assembleX86Line("jmp eax")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xE0}, b)
}

func TestAssembleX86LineRejectsGarbage(t *testing.T) {
	_, err := assembleX86Line("nope nope nope")
	assert.Error(t, err)
}

func TestAssembleX8664Syscall(t *testing.T) {
	b, err := assembleX8664Line("syscall")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0F, 0x05}, b)
}

func TestAssembleARMLiteralLoad(t *testing.T) {
	b, err := assembleARMLine("ldr PC, =0x8048080", binary.LittleEndian)
	require.NoError(t, err)
	require.Len(t, b, 8)
	assert.Equal(t, uint32(0xE51FF004), binary.LittleEndian.Uint32(b[:4]))
	assert.Equal(t, uint32(0x8048080), binary.LittleEndian.Uint32(b[4:]))
}

func TestAssembleMIPSLargeImmediateExpandsToTwoWords(t *testing.T) {
	b, err := assembleMIPSLine("li $t0, 0x8048080", binary.BigEndian)
	require.NoError(t, err)
	assert.Len(t, b, 8, "li with an out-of-range immediate must expand to lui+ori")
}

func TestAssemblePayloadResolvesEntryPlaceholder(t *testing.T) {
	payload, err := AssemblePayload(&archX8664, 0x400000, binary.LittleEndian)
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
}

func TestAssemblePayloadFailureNamesOffendingLine(t *testing.T) {
	bad := ArchDescriptor{Name: "bogus", Machine: EM_386, Lines: []string{"frobnicate the qux"}}
	_, err := AssemblePayload(&bad, 0x1000, binary.LittleEndian)
	require.Error(t, err)
	var asmErr *AssemblyError
	require.ErrorAs(t, err, &asmErr)
	assert.Equal(t, "frobnicate the qux", asmErr.Line)
}

func TestAssemblePayloadAllArchitectures(t *testing.T) {
	for _, d := range supportedArchitectures {
		t.Run(d.Name, func(t *testing.T) {
			payload, err := AssemblePayload(d, 0x10000, binary.BigEndian)
			require.NoError(t, err)
			assert.NotEmpty(t, payload)
		})
	}
}
