package main

import (
	"crypto/sha256"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{PageSize: defaultPageSize, Logger: nopLogger}
}

func TestInfectRewritesEntryAndGrowsProgramHeaders(t *testing.T) {
	for _, is64 := range []bool{true, false} {
		t.Run(classLabel(is64), func(t *testing.T) {
			var machine uint16 = EM_X86_64
			var entry uint64 = 0x400000
			if !is64 {
				machine, entry = EM_386, 0x08048000
			}
			path := buildMinimalELF(t, is64, false, machine, entry)

			require.NoError(t, Infect(path, testConfig()))

			e, err := Open(path, true)
			require.NoError(t, err)
			defer e.Close()

			require.Len(t, e.ProgramHeaders, 2)

			newEntry, err := e.Header.EEntry()
			require.NoError(t, err)

			newPh := e.ProgramHeaders[1]
			vaddr, err := newPh.PVaddr()
			require.NoError(t, err)
			assert.Equal(t, vaddr, newEntry, "e_entry must equal the injected segment's p_vaddr")

			typ, err := newPh.PType()
			require.NoError(t, err)
			assert.EqualValues(t, PT_LOAD, typ)

			flags := newPh.Flags()
			x, err := flags.Exec()
			require.NoError(t, err)
			assert.True(t, x)
		})
	}
}

func TestInfectUnsupportedMachineLeavesFileUntouched(t *testing.T) {
	path := buildMinimalELF(t, true, false, EM_SPARC, 0x400000)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = Infect(path, testConfig())
	require.ErrorIs(t, err, ErrUnsupportedArchitecture)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestInfectMalformedInputLeavesFileUntouched(t *testing.T) {
	path := buildMinimalELF(t, true, false, EM_X86_64, 0x400000)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[0] = 0 // corrupt the magic
	require.NoError(t, os.WriteFile(path, data, 0o755))

	sum := sha256.Sum256(data)

	err = Infect(path, testConfig())
	require.ErrorIs(t, err, ErrMalformedELF)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sum, sha256.Sum256(after))
}

func TestInfectConcurrentLockedFileFails(t *testing.T) {
	path := buildMinimalELF(t, true, false, EM_X86_64, 0x400000)

	unlock, err := acquireLock(path)
	require.NoError(t, err)
	defer unlock()

	err = Infect(path, testConfig())
	assert.ErrorIs(t, err, ErrLocked)
}

func TestInfectOffsetCoherence(t *testing.T) {
	path := buildMinimalELF(t, true, false, EM_X86_64, 0x400000)
	require.NoError(t, Infect(path, testConfig()))

	e, err := Open(path, true)
	require.NoError(t, err)
	defer e.Close()

	fsize, err := e.Size()
	require.NoError(t, err)

	phnum, err := e.Header.EPhnum()
	require.NoError(t, err)
	assert.EqualValues(t, 2, phnum)

	for _, ph := range e.ProgramHeaders {
		off, err := ph.POffset()
		require.NoError(t, err)
		fsz, err := ph.PFilesz()
		require.NoError(t, err)
		assert.LessOrEqual(t, off+int64(fsz), fsize)
	}
}
