package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePath() JoinPath {
	return JoinPath{
		{SourceTable: "visit", SourceColumn: "patient_id", TargetTable: "patient", TargetColumn: "patient_id"},
		{SourceTable: "diagnosis", SourceColumn: "visit_id", TargetTable: "visit", TargetColumn: "visit_id"},
	}
}

func TestJoinPathRender(t *testing.T) {
	want := "visit.patient_id -> patient.patient_id\ndiagnosis.visit_id -> visit.visit_id"
	assert.Equal(t, want, samplePath().Render())
	assert.Equal(t, "", JoinPath{}.Render())
}

func TestJoinPathTables(t *testing.T) {
	assert.Equal(t, []string{"visit", "patient", "diagnosis"}, samplePath().Tables())
	assert.Nil(t, JoinPath{}.Tables())
}

func TestParseJoinPathRoundTrip(t *testing.T) {
	path := samplePath()

	parsed, err := ParseJoinPath(path.Render())
	require.NoError(t, err)
	assert.Equal(t, path, parsed)
}

func TestParseJoinPathEmpty(t *testing.T) {
	parsed, err := ParseJoinPath("  \n ")
	require.NoError(t, err)
	assert.Nil(t, parsed)
}

func TestParseJoinPathMalformed(t *testing.T) {
	_, err := ParseJoinPath("visit.patient_id patient.patient_id")
	assert.Error(t, err)

	_, err = ParseJoinPath("visit -> patient")
	assert.Error(t, err)
}
