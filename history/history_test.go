package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smokerep/smokerep/types"
)

func openTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	idx, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx, path
}

func passReport() *types.Report {
	return &types.Report{
		Author:    "DAGOLDEN",
		DistLabel: "Sub-Uplevel",
		Dist:      "Sub-Uplevel-0.2800",
		Grade:     types.GradePass,
	}
}

func TestIndex_RecordAndGet(t *testing.T) {
	idx, _ := openTestIndex(t)

	rev, err := idx.Record(passReport(), "/reports/DAGOLDEN.Sub-Uplevel.log.json")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	state := idx.Get("DAGOLDEN", "Sub-Uplevel")
	require.NotNil(t, state)
	assert.Equal(t, types.GradePass, state.Grade)
	assert.Equal(t, "Sub-Uplevel-0.2800", state.Dist)
	assert.Equal(t, "/reports/DAGOLDEN.Sub-Uplevel.log.json", state.Path)

	assert.Nil(t, idx.Get("DAGOLDEN", "Never-Seen"))
	assert.True(t, idx.Seen("DAGOLDEN", "Sub-Uplevel"))
	assert.False(t, idx.Seen("BINGOS", "Sub-Uplevel"))
}

func TestIndex_RecordReplacesPair(t *testing.T) {
	idx, _ := openTestIndex(t)

	_, err := idx.Record(passReport(), "/reports/DAGOLDEN.Sub-Uplevel.log.json")
	require.NoError(t, err)

	failed := passReport()
	failed.Grade = types.GradeFail
	rev, err := idx.Record(failed, "/reports/DAGOLDEN.Sub-Uplevel.log.json")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	states := idx.List()
	require.Len(t, states, 1)
	assert.Equal(t, types.GradeFail, states[0].Grade)
	assert.Equal(t, int64(2), states[0].Revision)
}

func TestIndex_ListOrdered(t *testing.T) {
	idx, _ := openTestIndex(t)

	reports := []*types.Report{
		{Author: "RJBS", DistLabel: "Sub-Exporter", Dist: "Sub-Exporter-0.991", Grade: types.GradePass},
		{Author: "DAGOLDEN", DistLabel: "Sub-Uplevel", Dist: "Sub-Uplevel-0.2800", Grade: types.GradePass},
		{Author: "", DistLabel: "My-Local-Build", Dist: "My-Local-Build-0.01", Grade: types.GradeNA},
	}
	for _, r := range reports {
		_, err := idx.Record(r, "x.log.json")
		require.NoError(t, err)
	}

	states := idx.List()
	require.Len(t, states, 3)
	// Ordered by (author, label); the authorless pair sorts first
	assert.Equal(t, "My-Local-Build", states[0].DistLabel)
	assert.Equal(t, "DAGOLDEN", states[1].Author)
	assert.Equal(t, "RJBS", states[2].Author)
}

func TestIndex_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	idx, err := Open(path)
	require.NoError(t, err)
	_, err = idx.Record(passReport(), "/reports/DAGOLDEN.Sub-Uplevel.log.json")
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, int64(1), reopened.CurrentRevision())
	state := reopened.Get("DAGOLDEN", "Sub-Uplevel")
	require.NotNil(t, state)
	assert.Equal(t, types.GradePass, state.Grade)
}
