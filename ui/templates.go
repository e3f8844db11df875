package ui

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

const indexTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="30">
<title>piquant sweep {{.Sweep}}</title>
</head>
<body>
<h1>Sweep {{.Sweep}}</h1>
<table>
<tr><th>Run</th><th>State</th></tr>
{{range .Runs}}<tr><td>{{.Name}}</td><td class="{{.State}}">{{.State}}</td></tr>
{{end}}</table>
</body>
</html>
`

// renderTemplate executes a template with the given data
func (s *Server) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	// render to a buffer so a failure can still produce an error response
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.Error("Template error for %s: %v", templateName, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		s.logger.Warn("Error writing template response: %v", err)
	}
}
