package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sahay-platform/insights-engine/internal/tabular"
)

func TestLoadTableDecodesTypedColumns(t *testing.T) {
	dir := t.TempDir()
	csv := "student_id,created_at,mood_score,anxiety_score,risk_level\n" +
		"S001,2026-03-02T14:37:52Z,5,8,L3\n" +
		"S002,2026-03-02 15:10:00,7,2,L1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wellness_sessions.csv"), []byte(csv), 0o644))

	store := tabular.NewStore()
	count, err := loadTable(store, dir, tabular.TableWellnessSessions)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	rows, err := store.Rows(tabular.TableWellnessSessions)
	require.NoError(t, err)

	at, ok := tabular.Time(rows[0], "created_at")
	require.True(t, ok)
	require.Equal(t, time.Date(2026, 3, 2, 14, 37, 52, 0, time.UTC), at)

	mood, ok := tabular.Float(rows[0], "mood_score")
	require.True(t, ok)
	require.Equal(t, 5.0, mood)

	level, ok := tabular.String(rows[0], "risk_level")
	require.True(t, ok)
	require.Equal(t, "L3", level)
}

func TestLoadTableDecodesStudentColumns(t *testing.T) {
	dir := t.TempDir()
	csv := "student_id,age_band,interests,anonymous_sharing,retention_period\n" +
		"S001,18-20,music|chess,true,30\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "students.csv"), []byte(csv), 0o644))

	store := tabular.NewStore()
	count, err := loadTable(store, dir, tabular.TableStudents)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	rows, err := store.Rows(tabular.TableStudents)
	require.NoError(t, err)

	interests, ok := tabular.Strings(rows[0], "interests")
	require.True(t, ok)
	require.Equal(t, []string{"music", "chess"}, interests)

	sharing, ok := tabular.Bool(rows[0], "anonymous_sharing")
	require.True(t, ok)
	require.True(t, sharing)

	retention, ok := tabular.Float(rows[0], "retention_period")
	require.True(t, ok)
	require.Equal(t, 30.0, retention)
}

func TestLoadTableMissingFileLoadsEmptyTable(t *testing.T) {
	store := tabular.NewStore()
	count, err := loadTable(store, t.TempDir(), tabular.TableLearningSessions)
	require.NoError(t, err)
	require.Zero(t, count)
	require.Zero(t, store.Count(tabular.TableLearningSessions))
}

func TestLoadTableRejectsMissingRequiredColumn(t *testing.T) {
	dir := t.TempDir()
	csv := "session_id,mood_score\nWS001,5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wellness_sessions.csv"), []byte(csv), 0o644))

	store := tabular.NewStore()
	_, err := loadTable(store, dir, tabular.TableWellnessSessions)
	require.Error(t, err)
}
