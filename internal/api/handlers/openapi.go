package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"github.com/platformbuilds/lineboard/internal/models"
	"github.com/platformbuilds/lineboard/internal/monitoring"
)

// resolveOpenAPIPath finds api/openapi.yaml from the repo root or a package
// directory. LINEBOARD_OPENAPI_PATH wins when it points at a readable file.
func resolveOpenAPIPath() string {
	if p := os.Getenv("LINEBOARD_OPENAPI_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	candidates := []string{
		"api/openapi.yaml",
		filepath.FromSlash("../../api/openapi.yaml"),
		filepath.FromSlash("../../../api/openapi.yaml"),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "api/openapi.yaml"
}

// GET /api/openapi.yaml
func ServeOpenAPIYAML(c *gin.Context) {
	data, err := os.ReadFile(resolveOpenAPIPath())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "failed to load openapi.yaml"})
		return
	}
	c.Data(http.StatusOK, "application/yaml; charset=utf-8", data)
}

// GET /api/openapi.json
func GetOpenAPISpec(c *gin.Context) {
	data, err := os.ReadFile(resolveOpenAPIPath())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "failed to load openapi.yaml"})
		return
	}
	var obj any
	if err := yaml.Unmarshal(data, &obj); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "failed to parse openapi.yaml"})
		return
	}

	if m, ok := obj.(map[string]any); ok {
		if info, ok := m["info"].(map[string]any); ok {
			info["version"] = monitoring.Version
		}
		// Examples cover the current shift day in the plant timezone.
		today := time.Now().In(models.AppLocation)
		start := time.Date(today.Year(), today.Month(), today.Day(), 6, 0, 0, 0, models.AppLocation)
		setParamExample(m, "StartTime", start.Format("2006-01-02T15:04:05"))
		setParamExample(m, "EndTime", start.Add(8*time.Hour).Format("2006-01-02T15:04:05"))
	}

	c.JSON(http.StatusOK, obj)
}

func setParamExample(doc map[string]any, name, example string) {
	components, ok := doc["components"].(map[string]any)
	if !ok {
		return
	}
	params, ok := components["parameters"].(map[string]any)
	if !ok {
		return
	}
	if p, ok := params[name].(map[string]any); ok {
		p["example"] = example
	}
}
