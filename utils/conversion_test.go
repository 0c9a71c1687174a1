package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportFilename(t *testing.T) {
	cases := map[string]string{
		"birth_names":           "birth_names",
		"Cleaned Sales: 2025":   "Cleaned_Sales_2025",
		"  trimmed  ":           "trimmed",
		"weird//..\\chars":      "weird_chars",
		"___":                   "untitled",
		"":                      "untitled",
		"mixedCASE-and-dashes9": "mixedCASE_and_dashes9",
	}
	for input, want := range cases {
		assert.Equal(t, want, ExportFilename(input), "input %q", input)
	}
}

func TestParseUintParam(t *testing.T) {
	id, err := ParseUintParam("42")
	assert.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = ParseUintParam("-1")
	assert.Error(t, err)
	_, err = ParseUintParam("abc")
	assert.Error(t, err)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("junk", 7))
	assert.Equal(t, 3, ParseIntDefault("3", 7))
}

func TestIsValidIdentifier(t *testing.T) {
	assert.True(t, IsValidIdentifier("birth_names"))
	assert.True(t, IsValidIdentifier("_private"))
	assert.False(t, IsValidIdentifier(""))
	assert.False(t, IsValidIdentifier("9starts_with_digit"))
	assert.False(t, IsValidIdentifier("has space"))
	assert.False(t, IsValidIdentifier("drop;table"))

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, IsValidIdentifier(string(long)))
}

func TestVarcharPattern(t *testing.T) {
	match := VarcharPattern.FindStringSubmatch("VARCHAR(64)")
	if assert.NotNil(t, match) {
		assert.Equal(t, "64", match[1])
	}
	assert.NotNil(t, VarcharPattern.FindStringSubmatch("varchar(8)"))
	assert.Nil(t, VarcharPattern.FindStringSubmatch("VARCHAR"))
	assert.Nil(t, VarcharPattern.FindStringSubmatch("XVARCHAR(8)"))
}
