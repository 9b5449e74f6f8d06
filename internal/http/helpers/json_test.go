package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
}

func TestReadJSON(t *testing.T) {
	cases := []struct {
		name   string
		ct     string
		body   string
		ok     bool
		status int
	}{
		{"ok", "application/json", `{"name":"x","extra":1}`, true, 200},
		{"wrong content type", "text/plain", `{"name":"x"}`, false, http.StatusUnsupportedMediaType},
		{"empty", "application/json", ``, false, http.StatusBadRequest},
		{"malformed", "application/json; charset=utf-8", `{"name":`, false, http.StatusBadRequest},
		{"too large", "application/json", `{"name":"` + strings.Repeat("a", int(MaxBody)) + `"}`, false, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", tc.ct)
			rec := httptest.NewRecorder()

			var p payload
			require.Equal(t, tc.ok, ReadJSON(rec, req, &p))
			require.Equal(t, tc.status, rec.Code)
			if tc.ok {
				require.Equal(t, "x", p.Name)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"client_id": "c1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"client_id":"c1"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, nil)
	require.Empty(t, rec.Body.String())
}
