package utils

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type named string

func (n named) String() string { return "name: " + string(n) }

func TestWriteErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorResponse(rec, http.StatusBadRequest, "bad index")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"bad index"}`, rec.Body.String())
}

func TestPostProcessResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	PostProcessResponse(rec, map[string]int{"count": 2}, false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"count":2}`, rec.Body.String())

	rec = httptest.NewRecorder()
	PostProcessResponse(rec, []byte(`{"raw":true}`), false)
	require.Equal(t, `{"raw":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	PostProcessResponse(rec, make(chan int), false)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPrintOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintOutput(&buf, "text", named("oracle")))
	require.Equal(t, "name: oracle\n", buf.String())

	buf.Reset()
	require.NoError(t, PrintOutput(&buf, "json", named("oracle")))
	require.Equal(t, "\"oracle\"\n", buf.String())
}
