package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramHeaderRoundTrip(t *testing.T) {
	for _, is64 := range []bool{true, false} {
		t.Run(classLabel(is64), func(t *testing.T) {
			path := buildMinimalELF(t, is64, false, EM_X86_64, 0x400000)
			e, err := Open(path, false)
			require.NoError(t, err)
			defer e.Close()

			require.Len(t, e.ProgramHeaders, 1)
			ph := e.ProgramHeaders[0]

			require.NoError(t, ph.SetPVaddr(0xdeadbeef))
			got, err := ph.PVaddr()
			require.NoError(t, err)
			assert.EqualValues(t, 0xdeadbeef, got)

			require.NoError(t, ph.SetPFilesz(4096))
			size, err := ph.PFilesz()
			require.NoError(t, err)
			assert.EqualValues(t, 4096, size)

			require.NoError(t, ph.SetPType(PT_DYNAMIC))
			typ, err := ph.PType()
			require.NoError(t, err)
			assert.EqualValues(t, PT_DYNAMIC, typ)
		})
	}
}

func TestProgramHeaderFlags(t *testing.T) {
	path := buildMinimalELF(t, true, false, EM_X86_64, 0x400000)
	e, err := Open(path, false)
	require.NoError(t, err)
	defer e.Close()

	ph := e.ProgramHeaders[0]
	flags := ph.Flags()

	r, err := flags.Read()
	require.NoError(t, err)
	assert.True(t, r)
	x, err := flags.Exec()
	require.NoError(t, err)
	assert.True(t, x)
	w, err := flags.Write()
	require.NoError(t, err)
	assert.False(t, w)

	require.NoError(t, flags.SetWrite(true))
	w, err = flags.Write()
	require.NoError(t, err)
	assert.True(t, w)

	r, err = flags.Read()
	require.NoError(t, err)
	assert.True(t, r, "setting write must not clear read")
}
