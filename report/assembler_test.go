package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smokerep/smokerep/locator"
	"github.com/smokerep/smokerep/types"
)

const subUplevelURL = "http://www.cpan.org/authors/id/J/KE/DAGOLDEN/Sub-Uplevel-0.2800.tar.gz"

func TestAssemble_Pass(t *testing.T) {
	asm := &Assembler{Version: "0.1.0", ToolVersion: "CPANPLUS 0.9914"}

	r, err := asm.Assemble(types.Event{
		Locator:   subUplevelURL,
		DistLabel: "Sub-Uplevel",
		Grade:     types.GradePass,
	})
	require.NoError(t, err)

	assert.Equal(t, "DAGOLDEN", r.Author)
	assert.Equal(t, "Sub-Uplevel", r.DistLabel)
	assert.Equal(t, types.GradePass, r.Grade)
	assert.Equal(t, "Sub-Uplevel-0.2800", r.Dist)
	assert.Equal(t, "0.2800", r.DistVersion)
	assert.Equal(t, "smokerep 0.1.0 (CPANPLUS 0.9914)", r.Via)
	assert.Nil(t, r.Prereqs)
}

func TestAssemble_FailWithOutput(t *testing.T) {
	asm := &Assembler{Version: "0.1.0"}

	r, err := asm.Assemble(types.Event{
		Locator:   subUplevelURL,
		DistLabel: "Sub-Uplevel",
		Grade:     types.GradeFail,
		Output:    []string{"t/00-load.t .. FAIL\n"},
	})
	require.NoError(t, err)

	assert.Equal(t, types.GradeFail, r.Grade)
	assert.Equal(t, "t/00-load.t .. FAIL\n", r.TestOutput)
	assert.Equal(t, "smokerep 0.1.0 (unknown)", r.Via)
}

func TestAssemble_ConcatenatesOutputWithoutSeparator(t *testing.T) {
	asm := &Assembler{Version: "0.1.0"}

	r, err := asm.Assemble(types.Event{
		Locator:   subUplevelURL,
		DistLabel: "Sub-Uplevel",
		Grade:     types.GradeFail,
		Output:    []string{"t/a.t .. ok\n", "t/b.t .. FAIL\n", "Result: FAIL\n"},
	})
	require.NoError(t, err)
	assert.Equal(t, "t/a.t .. ok\nt/b.t .. FAIL\nResult: FAIL\n", r.TestOutput)
}

type countingResolver struct {
	calls int
}

func (r *countingResolver) Resolve(string) (string, error) {
	r.calls++
	return "DAGOLDEN", nil
}

func TestAssemble_ReservedLabelSkipsBeforeResolution(t *testing.T) {
	resolver := &countingResolver{}
	asm := &Assembler{Resolver: resolver, Version: "0.1.0"}

	r, err := asm.Assemble(types.Event{
		Locator:   "file:///tmp/Local-Foo-0.01.tar.gz",
		DistLabel: "Local-Foo",
		Grade:     types.GradePass,
	})

	assert.Nil(t, r)
	assert.True(t, IsSkip(err), "reserved label should be a skip")
	assert.True(t, errors.Is(err, ErrReservedLabel))
	assert.Zero(t, resolver.calls, "author resolution must not run for reserved labels")
}

func TestAssemble_ParseFailuresAreSkips(t *testing.T) {
	asm := &Assembler{Version: "0.1.0"}

	tests := []struct {
		name    string
		locator string
		want    error
	}{
		{"unsupported scheme", "gopher://cpan.example.org/Foo-1.0.tar.gz", locator.ErrUnsupportedScheme},
		{"reserved author", "http://mirror.example.org/authors/id/L/LO/LOCAL/Foo-1.0.tar.gz", locator.ErrReservedAuthor},
		{"resolution miss", "https://downloads.example.org/Foo-1.0.tar.gz", locator.ErrAuthorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := asm.Assemble(types.Event{
				Locator:   tt.locator,
				DistLabel: "Foo",
				Grade:     types.GradePass,
			})
			assert.Nil(t, r)
			assert.True(t, IsSkip(err))
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

type staticMetadata map[string]map[string]string

func (m staticMetadata) Lookup(label string) (map[string]string, bool) {
	p, ok := m[label]
	return p, ok
}

func TestAssemble_PrereqsFromMetadata(t *testing.T) {
	asm := &Assembler{
		Version: "0.1.0",
		Metadata: staticMetadata{
			"Sub-Uplevel": {"Test::More": "0.88", "perl": "5.006"},
		},
	}

	r, err := asm.Assemble(types.Event{
		Locator:   subUplevelURL,
		DistLabel: "Sub-Uplevel",
		Grade:     types.GradePass,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Test::More": "0.88", "perl": "5.006"}, r.Prereqs)
}

func TestAssemble_MetadataMissLeavesPrereqsNil(t *testing.T) {
	asm := &Assembler{Version: "0.1.0", Metadata: staticMetadata{}}

	r, err := asm.Assemble(types.Event{
		Locator:   subUplevelURL,
		DistLabel: "Sub-Uplevel",
		Grade:     types.GradePass,
	})
	require.NoError(t, err)
	assert.Nil(t, r.Prereqs)
}

func TestAssemble_FileSchemeHasNoAuthor(t *testing.T) {
	asm := &Assembler{Version: "0.1.0"}

	r, err := asm.Assemble(types.Event{
		Locator:   "file:///home/smoker/dists/My-Dist-1.00.tar.gz",
		DistLabel: "My-Dist",
		Grade:     types.GradeNA,
	})
	require.NoError(t, err)
	assert.Empty(t, r.Author)
	assert.Equal(t, "My-Dist-1.00", r.Dist)
}
