package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	content, err := exporter.Render(Dataset{
		Headers: []string{"Code", "Title"},
		Rows: [][]string{
			{"CS401", "Algorithms"},
			{"BI402", "Biochemistry, Advanced"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Code,Title", lines[0])
	assert.Equal(t, "CS401,Algorithms", lines[1])
	assert.Equal(t, `BI402,"Biochemistry, Advanced"`, lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestCSVExporterRejectsRaggedRow(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{
		Headers: []string{"Code", "Title"},
		Rows:    [][]string{{"CS401"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cells")
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	content, err := exporter.Render(Dataset{
		Headers: []string{"Code", "Title"},
		Rows:    [][]string{{"CS401", "Algorithms"}},
	}, "Module Annual Reviews")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "%PDF"))
}
