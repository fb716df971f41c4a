package server

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"asset-manifest/fileops"
	"asset-manifest/workspace"
)

type addRequest struct {
	Files  []string `json:"files_to_add" form:"files_to_add"`
	Target string   `json:"target_manifest_folder" form:"target_manifest_folder"`
}

// sourcesRequest is shared by delete, move and copy. In form posts
// source_paths may be a single comma-separated value.
type sourcesRequest struct {
	Sources []string `json:"source_paths" form:"source_paths"`
	Dest    string   `json:"dest_folder" form:"dest_folder"`
}

type renameRequest struct {
	Path    string `json:"original_path" form:"original_path"`
	NewName string `json:"new_name" form:"new_name"`
}

type addFolderRequest struct {
	Name     string `json:"folder_name" form:"folder_name"`
	Icon     string `json:"folder_icon" form:"folder_icon"`
	Parent   string `json:"parent_folder" form:"parent_folder"`
	Physical bool   `json:"create_physical_folder" form:"create_physical_folder"`
}

type editFolderRequest struct {
	Folder   string `json:"original_name" form:"original_name"`
	NewName  string `json:"new_name" form:"new_name"`
	Icon     string `json:"new_icon" form:"new_icon"`
	Physical bool   `json:"rename_physical_folder" form:"rename_physical_folder"`
}

func (s *Server) handleAdd(c *fiber.Ctx) error {
	var req addRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	return s.mutate(c, func() workspace.Result {
		return s.svc.AddFiles(req.Files, req.Target)
	})
}

func (s *Server) handleDelete(c *fiber.Ctx) error {
	var req sourcesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	return s.mutate(c, func() workspace.Result {
		return s.svc.DeleteFiles(splitSources(req.Sources))
	})
}

func (s *Server) handleMove(c *fiber.Ctx) error {
	var req sourcesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	return s.mutate(c, func() workspace.Result {
		return s.svc.MoveFiles(splitSources(req.Sources), req.Dest)
	})
}

func (s *Server) handleCopy(c *fiber.Ctx) error {
	var req sourcesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	return s.mutate(c, func() workspace.Result {
		return s.svc.CopyFiles(splitSources(req.Sources), req.Dest)
	})
}

func (s *Server) handleRename(c *fiber.Ctx) error {
	var req renameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	return s.mutate(c, func() workspace.Result {
		return s.svc.RenameFile(req.Path, req.NewName)
	})
}

func (s *Server) handleAddFolder(c *fiber.Ctx) error {
	var req addFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	return s.mutate(c, func() workspace.Result {
		return s.svc.CreateFolder(req.Name, req.Icon, req.Parent, req.Physical)
	})
}

func (s *Server) handleEditFolder(c *fiber.Ctx) error {
	var req editFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	return s.mutate(c, func() workspace.Result {
		return s.svc.RenameFolder(req.Folder, req.NewName, req.Icon, req.Physical)
	})
}

func (s *Server) handleCleanup(c *fiber.Ctx) error {
	return s.mutate(c, s.svc.Cleanup)
}

// mutate runs op under the service lock and answers with the Result as JSON
// or as a redirect back to the index.
func (s *Server) mutate(c *fiber.Ctx, op func() workspace.Result) error {
	s.inProgress.Add(1)
	defer s.inProgress.Done()

	s.mu.Lock()
	r := op()
	s.mu.Unlock()

	if wantsJSON(c) {
		status := fiber.StatusOK
		if r.Failed() {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(r)
	}
	return c.Redirect(messageURL(r), fiber.StatusSeeOther)
}

func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	s.mu.Lock()
	report, err := s.svc.Analyze()
	s.mu.Unlock()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(report)
}

func (s *Server) handleTree(c *fiber.Ctx) error {
	s.mu.Lock()
	m, err := s.svc.Tree()
	s.mu.Unlock()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(m)
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	s.mu.Lock()
	entries, err := s.svc.History(limit)
	s.mu.Unlock()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(entries)
}

// handleFileStream sends a file below the root.
func (s *Server) handleFileStream(c *fiber.Ctx) error {
	rel := c.Query("path")
	if rel == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Path parameter required")
	}

	fullPath, err := s.svc.Abs(rel)
	if errors.Is(err, fileops.ErrOutsideRoot) {
		s.log.Warn("rejected file request outside root", zap.String("path", rel))
		return c.Status(fiber.StatusForbidden).SendString("Path is outside the project root")
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid path")
	}

	info, err := os.Stat(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return c.Status(fiber.StatusNotFound).SendString("File not found")
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return c.Status(fiber.StatusBadRequest).SendString("Path is a directory, not a file")
	}
	return c.SendFile(fullPath)
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status": "error",
		"error":  "Invalid request body",
	})
}

// splitSources accepts both repeated values and comma-separated lists.
func splitSources(in []string) []string {
	var out []string
	for _, v := range in {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

// messageURL carries a Result back to the index page.
func messageURL(r workspace.Result) string {
	msg := r.Message
	if len(r.Notes) > 0 {
		msg += " " + strings.Join(r.Notes, " ")
	}
	if len(r.Failures) > 0 && r.Level != workspace.LevelError {
		msg += " " + strings.Join(r.Failures, " ")
	}
	q := url.Values{}
	q.Set("level", string(r.Level))
	q.Set("msg", msg)
	return "/?" + q.Encode()
}
