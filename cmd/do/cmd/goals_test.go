package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educacao-adventista/matriculometro/internal/model"
)

func TestExportFile(t *testing.T) {
	goals := []*model.Goal{{ID: 7, Category: "Creche", Target: 8, Achieved: 2}}
	dir := t.TempDir()

	path := filepath.Join(dir, "goals.csv")
	require.NoError(t, exportFile(path, "csv", goals))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,category,target,achieved,createdAt,updatedAt\n7,Creche,8,2,,\n", string(data))

	path = filepath.Join(dir, "goals.json")
	require.NoError(t, exportFile(path, "json", goals))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"category":"Creche"`)
}

func TestExportFileErrors(t *testing.T) {
	dir := t.TempDir()

	err := exportFile(filepath.Join(dir, "goals.xml"), "xml", nil)
	assert.EqualError(t, err, `unknown format "xml": use json or csv`)

	err = exportFile(filepath.Join(dir, "missing", "goals.json"), "json", nil)
	assert.ErrorContains(t, err, "failed to create")
}
