package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOpenAPISpec_Parses(t *testing.T) {
	var doc struct {
		OpenAPI string                    `yaml:"openapi"`
		Paths   map[string]map[string]any `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal(OpenAPISpec, &doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)

	for path, method := range map[string]string{
		"/api/login":                  "post",
		"/api/catalog":                "get",
		"/api/catalog/{id}":           "get",
		"/api/catalog/export.m3u":     "get",
		"/api/events":                 "get",
		"/api/admin/playlists/upload": "post",
		"/api/admin/playlists/sync":   "post",
		"/api/admin/users":            "post",
		"/api/admin/ticker":           "put",
		"/api/admin/restore":          "post",
	} {
		require.Contains(t, doc.Paths, path)
		assert.Contains(t, doc.Paths[path], method, path)
	}
}
