/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIServer(t *testing.T) {
	srv := NewAPIServer()
	defer srv.Close()

	srv.Handle(http.MethodPost, "/messages/individual/{accountID}/send", RespondJSON(http.StatusOK, map[string]string{"status": "queued"}))
	client := &http.Client{Transport: srv.Transport()}

	resp, err := client.Post(srv.BaseURL()+"/messages/individual/acc-1/send", contentTypeAppJSON,
		strings.NewReader(`{"content":"hi"}`))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"queued"}`, string(body))

	resp, err = client.Get(srv.BaseURL() + "/unknown")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	reqs := srv.RequireRequestsCount(t, 2)
	require.Equal(t, http.MethodPost, reqs[0].Method)
	require.Equal(t, "/messages/individual/acc-1/send", reqs[0].Path)
	var payload map[string]string
	reqs[0].DecodeJSON(t, &payload)
	require.Equal(t, "hi", payload["content"])
	require.Equal(t, "/unknown", reqs[1].Path)
}

func TestRespondDetail(t *testing.T) {
	srv := NewAPIServer()
	defer srv.Close()

	srv.Handle(http.MethodGet, "/messages/updates", RespondDetail(http.StatusBadRequest, "bad thing"))
	client := &http.Client{Transport: srv.Transport()}

	resp, err := client.Get(srv.BaseURL() + "/messages/updates")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.JSONEq(t, `{"detail":"bad thing"}`, string(body))
}
