package server

import (
	"embed"
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"asset-manifest/manifest"
	"asset-manifest/scan"
	"asset-manifest/workspace"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"indent":    func(depth int) string { return strings.Repeat("  ", depth) },
		"humanSize": scan.ToHumanSize,
	}).ParseFS(templateFS, "templates/*.tmpl")
}

// row is one line of the rendered tree.
type row struct {
	Depth    int
	IsFolder bool
	Name     string
	Icon     string
	// Path is the folder's logical path or the file's path.
	Path string
}

type indexData struct {
	*workspace.Snapshot
	Rows      []row
	WriteMode bool
	RootPath  string
	Level     string
	Message   string
	Error     string
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	data := indexData{
		WriteMode: s.cfg.Server.Write,
		RootPath:  s.svc.Root(),
		Level:     c.Query("level", string(workspace.LevelInfo)),
		Message:   c.Query("msg"),
	}

	s.mu.Lock()
	snap, err := s.svc.Snapshot()
	s.mu.Unlock()

	status := fiber.StatusOK
	if err != nil {
		s.log.Error("failed to load manifest", zap.Error(err))
		status = fiber.StatusInternalServerError
		data.Error = err.Error()
		data.Snapshot = &workspace.Snapshot{}
	} else {
		data.Snapshot = snap
		data.Rows = flatten(snap.Tree, "", 0, nil)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Status(status)
	return s.tmpl.ExecuteTemplate(c.Response().BodyWriter(), "index.html.tmpl", data)
}

func flatten(nodes []manifest.Node, parent string, depth int, out []row) []row {
	for _, n := range nodes {
		switch n := n.(type) {
		case *manifest.Folder:
			p := n.Name
			if parent != "" {
				p = parent + "/" + n.Name
			}
			out = append(out, row{Depth: depth, IsFolder: true, Name: n.Name, Icon: n.Icon, Path: p})
			out = flatten(n.Children, p, depth+1, out)
		case *manifest.File:
			name := n.Path
			if i := strings.LastIndex(name, "/"); i >= 0 {
				name = name[i+1:]
			}
			out = append(out, row{Depth: depth, Name: name, Path: n.Path})
		}
	}
	return out
}
