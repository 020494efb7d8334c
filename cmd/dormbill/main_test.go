package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOccupant(t *testing.T) {
	o, err := parseOccupant("Ana:10")
	require.NoError(t, err)
	assert.Equal(t, "Ana", o.Name)
	assert.Equal(t, 10, o.Days)

	o, err = parseOccupant("20")
	require.NoError(t, err)
	assert.Empty(t, o.Name)
	assert.Equal(t, 20, o.Days)

	_, err = parseOccupant("Ana:ten")
	assert.Error(t, err)
}

func TestCalcCommand(t *testing.T) {
	t.Setenv("DORMBILL_LOG_LEVEL", "error")
	t.Setenv("DORMBILL_TARIFF_FILE", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{
		"calc", "--room", "101", "--due", "2024-05-15",
		"--elec-prev", "1000", "--elec-curr", "1100", "--rate", "12",
		"--water-prev", "20", "--water-curr", "25",
		"--occupant", "Ana:10", "--occupant", "20",
	})
	require.NoError(t, root.Execute())

	receipt := out.String()
	assert.Contains(t, receipt, "Ana (10 days): ₱400.00")
	assert.Contains(t, receipt, "Person B (20 days): ₱800.00")
	assert.Contains(t, receipt, "Amount Due: ₱1409.44")
}

func TestCalcCommand_RejectsBadReading(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{
		"calc", "--room", "101",
		"--elec-prev", "100", "--elec-curr", "50",
		"--water-prev", "0", "--water-curr", "1",
		"--occupant", "Ana:10",
	})
	assert.Error(t, root.Execute())
}
