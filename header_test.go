package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsBadMagic(t *testing.T) {
	path := buildMinimalELF(t, true, false, EM_X86_64, 0x400000)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[0] = 0x00
	require.NoError(t, os.WriteFile(path, data, 0o755))

	_, err = Open(path, true)
	require.Error(t, err)
	assertIsMalformed(t, err)
}

func TestHeaderRoundTrip(t *testing.T) {
	for _, is64 := range []bool{true, false} {
		for _, big := range []bool{true, false} {
			t.Run(classLabel(is64)+"/"+endianLabel(big), func(t *testing.T) {
				path := buildMinimalELF(t, is64, big, EM_X86_64, 0x400000)
				e, err := Open(path, false)
				require.NoError(t, err)
				defer e.Close()

				var entryValues []uint64
				if is64 {
					entryValues = []uint64{0, 1, 0x7fffffffffffffff, 0x8000000000000001, 0xffffffffffffffff}
				} else {
					entryValues = []uint64{0, 1, 0x7fffffff, 0x80000001, 0xffffffff}
				}

				for _, v := range entryValues {
					require.NoError(t, e.Header.SetEEntry(v))
					got, err := e.Header.EEntry()
					require.NoError(t, err)
					assert.Equal(t, v, got)
				}

				require.NoError(t, e.Header.SetEType(ET_DYN))
				got, err := e.Header.EType()
				require.NoError(t, err)
				assert.Equal(t, uint16(ET_DYN), got)

				require.NoError(t, e.Header.SetEMachine(EM_ARM))
				m, err := e.Header.EMachine()
				require.NoError(t, err)
				assert.Equal(t, uint16(EM_ARM), m)
			})
		}
	}
}

func TestHeaderEndiannessByteReversal(t *testing.T) {
	lePath := buildMinimalELF(t, true, false, EM_X86_64, 0)
	bePath := buildMinimalELF(t, true, true, EM_X86_64, 0)

	le, err := Open(lePath, false)
	require.NoError(t, err)
	defer le.Close()
	be, err := Open(bePath, false)
	require.NoError(t, err)
	defer be.Close()

	const value = uint64(0x0102030405060708)
	require.NoError(t, le.Header.SetEEntry(value))
	require.NoError(t, be.Header.SetEEntry(value))

	leBytes, err := le.Read(24, 8)
	require.NoError(t, err)
	beBytes, err := be.Read(24, 8)
	require.NoError(t, err)

	reversed := make([]byte, len(leBytes))
	for i, b := range leBytes {
		reversed[len(leBytes)-1-i] = b
	}
	assert.Equal(t, reversed, beBytes)
}

func TestEPhoffSetterWritesValue(t *testing.T) {
	// Regression test for the reference implementation's ELF64 e_phoff
	// setter bug (spec §9a): it must actually persist the given value.
	path := buildMinimalELF(t, true, false, EM_X86_64, 0x400000)
	e, err := Open(path, false)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Header.SetEPhoff(123))
	got, err := e.Header.EPhoff()
	require.NoError(t, err)
	assert.EqualValues(t, 123, got)
}

func classLabel(is64 bool) string {
	if is64 {
		return "elf64"
	}
	return "elf32"
}

func endianLabel(big bool) string {
	if big {
		return "be"
	}
	return "le"
}

func assertIsMalformed(t *testing.T, err error) {
	t.Helper()
	assert.ErrorIs(t, err, ErrMalformedELF)
}
