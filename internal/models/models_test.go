package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubSubjectCovers(t *testing.T) {
	sub := SubSubject{FirstPace: 1001, LastPace: 1012}

	assert.True(t, sub.Covers(1001, 1012))
	assert.True(t, sub.Covers(1003, 1010))
	assert.False(t, sub.Covers(1000, 1005))
	assert.False(t, sub.Covers(1005, 1013))
}

func TestExportFormatAndStatus(t *testing.T) {
	assert.True(t, ExportFormatCSV.Valid())
	assert.True(t, ExportFormatPDF.Valid())
	assert.False(t, ExportFormat("xlsx").Valid())

	assert.True(t, ExportStatusFailed.Terminal())
	assert.True(t, ExportStatusFinished.Terminal())
	assert.False(t, ExportStatusQueued.Terminal())
}
