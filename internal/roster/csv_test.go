package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/text/encoding/unicode"
)

func writeRoster(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReadFileUTF8(t *testing.T) {
	path := writeRoster(t, "roster.csv", []byte(
		"NAME\tEMPLOYEE ID\tPIN\n"+
			"Alice Adams\tE001\t1234\n"+
			"Bob Brown\tE002\t5678\n"))

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{Name: "Alice Adams", EmpID: "E001", Pin: "1234"}, records[0])
	assert.Equal(t, Record{Name: "Bob Brown", EmpID: "E002", Pin: "5678"}, records[1])
}

func TestReadFileFinnishHeaders(t *testing.T) {
	path := writeRoster(t, "roster.csv", []byte(
		"NIMI\tTYONTEKIJANUMERO\tPIN\n"+
			"Matti Meikalainen\tE003\t4321\n"))

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Matti Meikalainen", records[0].Name)
}

func TestReadFileUTF16LE(t *testing.T) {
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := encoder.Bytes([]byte(
		"NAME\tEMPLOYEE ID\tPIN\n" +
			"Alice Adams\tE001\t1234\n"))
	require.NoError(t, err)
	path := writeRoster(t, "roster-utf16.csv", data)

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Alice Adams", records[0].Name)
	assert.Equal(t, "E001", records[0].EmpID)
}

func TestReadFileUnknownHeader(t *testing.T) {
	path := writeRoster(t, "roster.csv", []byte(
		"FIRST\tLAST\tCODE\n"+
			"Alice\tAdams\t1234\n"))

	_, err := ReadFile(path)
	assert.ErrorContains(t, err, "unrecognized roster header")
}

func TestReadFileSkipsIncompleteRows(t *testing.T) {
	path := writeRoster(t, "roster.csv", []byte(
		"NAME\tEMPLOYEE ID\tPIN\n"+
			"Alice Adams\tE001\t1234\n"+
			"No Pin Here\tE002\t\n"+
			"\tE003\t9999\n"+
			"Bob Brown\tE004\t5678\n"))

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "E001", records[0].EmpID)
	assert.Equal(t, "E004", records[1].EmpID)
}

func TestReadFileColumnsInAnyOrder(t *testing.T) {
	path := writeRoster(t, "roster.csv", []byte(
		"PIN\tNAME\tEMPLOYEE ID\n"+
			"1234\tAlice Adams\tE001\n"))

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, Record{Name: "Alice Adams", EmpID: "E001", Pin: "1234"}, records[0])
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
