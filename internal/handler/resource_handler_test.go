package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vakeelhq/vakeel/internal/model"
)

func doRequest(t *testing.T, engine http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestListResources(t *testing.T) {
	engine, fakes := setupRouter(t)
	fakes.resources.listed = []model.Resource{
		{ID: "r1", Content: `{"Name":"Asha Rao"}`, PayloadKind: model.PayloadKindJSON},
		{ID: "r2", Content: "plain text profile", PayloadKind: model.PayloadKindText},
	}

	resp := doRequest(t, engine, http.MethodGet, "/api/v1/resources")
	require.Equal(t, http.StatusOK, resp.Code)
	var result struct {
		Resources []model.Resource `json:"resources"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Len(t, result.Resources, 2)
	require.Equal(t, "r1", result.Resources[0].ID)
}

func TestListResourcesEmptyEncodesAsArray(t *testing.T) {
	engine, _ := setupRouter(t)
	resp := doRequest(t, engine, http.MethodGet, "/api/v1/resources")
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"resources":[]}`, resp.Body.String())
}

func TestListResourcesRejectsBadPaging(t *testing.T) {
	engine, _ := setupRouter(t)
	for _, query := range []string{"?limit=0", "?limit=9999", "?limit=abc", "?offset=-1"} {
		resp := doRequest(t, engine, http.MethodGet, "/api/v1/resources"+query)
		require.Equal(t, http.StatusBadRequest, resp.Code, "query: %s", query)
	}
}

func TestGetResource(t *testing.T) {
	engine, fakes := setupRouter(t)
	fakes.resources.byID["r1"] = &model.Resource{
		ID:          "r1",
		Content:     `{"Name":"Asha Rao"}`,
		PayloadKind: model.PayloadKindJSON,
	}

	resp := doRequest(t, engine, http.MethodGet, "/api/v1/resources/r1")
	require.Equal(t, http.StatusOK, resp.Code)
	var got model.Resource
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	require.Equal(t, "r1", got.ID)
	require.Equal(t, model.PayloadKindJSON, got.PayloadKind)

	resp = doRequest(t, engine, http.MethodGet, "/api/v1/resources/missing")
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Contains(t, resp.Body.String(), "resource not found")
}

func TestDeleteResource(t *testing.T) {
	engine, fakes := setupRouter(t)

	resp := doRequest(t, engine, http.MethodDelete, "/api/v1/resources/r1")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, []string{"r1"}, fakes.resources.deleted)

	fakes.resources.delErr = errBoom
	resp = doRequest(t, engine, http.MethodDelete, "/api/v1/resources/r2")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}
