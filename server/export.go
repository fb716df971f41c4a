package server

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"asset-manifest/manifest"
)

// handleExport streams a zip of every tracked file under a folder. Entries
// keep their root-relative paths. Broken links are skipped.
func (s *Server) handleExport(c *fiber.Ctx) error {
	folder := c.Query("folder")
	if folder == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Folder parameter required")
	}

	s.mu.Lock()
	files, err := s.svc.FolderFiles(folder)
	s.mu.Unlock()
	var notFound *manifest.TargetNotFoundError
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).SendString(err.Error())
	}
	if err != nil {
		return err
	}

	zipName := path.Base(manifest.Normalize(folder)) + ".zip"
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+zipName+`"`)

	zw := zip.NewWriter(c.Response().BodyWriter())
	added := 0
	for _, rel := range files {
		ok, err := s.addToZip(zw, rel)
		if err != nil {
			s.log.Error("failed to create zip", zap.String("folder", folder), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to create zip archive")
		}
		if ok {
			added++
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	s.log.Info("exported folder", zap.String("folder", folder), zap.Int("files", added))
	return nil
}

// addToZip reports false when rel is missing from disk.
func (s *Server) addToZip(zw *zip.Writer, rel string) (bool, error) {
	full, err := s.svc.Abs(rel)
	if err != nil {
		return false, nil
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		s.log.Warn("skipping missing file in export", zap.String("path", rel))
		return false, nil
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return false, err
	}
	header.Name = rel
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return false, err
	}
	f, err := os.Open(full)
	if err != nil {
		return false, err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err == nil, err
}
