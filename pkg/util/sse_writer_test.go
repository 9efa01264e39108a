package util

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"search-server/internal/app/models"
)

func TestWriteSSE_Frames(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteAppendText(w, "你好"))
	require.NoError(t, WriteSetReference(w, "r1", []models.ReferenceItem{{ID: "1", Display: models.ReferenceDisplay{ReferID: "1"}, Title: "T"}}))
	require.NoError(t, WriteHeartbeat(w))
	WriteDone(w)

	want := "data: {\"text\":\"你好\",\"type\":\"append-text\"}\n\n" +
		"data: {\"list\":[{\"id\":\"1\",\"display\":{\"refer_id\":\"1\"},\"title\":\"T\",\"link\":\"\",\"displaySource\":\"\",\"date\":\"\"}],\"resultId\":\"r1\",\"type\":\"set-reference\"}\n\n" +
		"data: {\"type\":\"heartbeat\"}\n\n" +
		"data: [DONE]\n\n"
	assert.Equal(t, want, w.Body.String())
	assert.True(t, w.Flushed)
}

func TestWriteSSE_Unsupported(t *testing.T) {
	w := httptest.NewRecorder()
	assert.Error(t, WriteSSE(w, "x", 42))
	assert.Empty(t, w.Body.String())
}
