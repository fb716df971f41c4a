package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/tus/tusd/pkg/filestore"
	"github.com/tus/tusd/pkg/handler"
	"go.uber.org/zap"
)

const tusBasePath = "/upload/tus/"

// setupTusUpload mounts the tus endpoints. Finished uploads are moved from
// the uploads directory into the project and, when the client named a
// folder, added to the manifest.
//
// Upload metadata: filename, relativePath (destination directory under the
// root) and the optional folder.
func (s *Server) setupTusUpload() error {
	uploadsDir := s.cfg.UploadsPath()
	info, err := os.Stat(uploadsDir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("%s exists but is not a directory", uploadsDir)
	case os.IsNotExist(err):
		if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
			return fmt.Errorf("failed to create uploads directory: %w", err)
		}
		s.log.Info("created uploads directory", zap.String("dir", uploadsDir))
	case err != nil:
		return fmt.Errorf("failed to check uploads directory: %w", err)
	}

	store := filestore.New(uploadsDir)
	composer := handler.NewStoreComposer()
	store.UseIn(composer)

	tusHandler, err := handler.NewHandler(handler.Config{
		StoreComposer:         composer,
		NotifyCompleteUploads: true,
		BasePath:              tusBasePath,
	})
	if err != nil {
		return fmt.Errorf("unable to create tus handler: %w", err)
	}

	go func() {
		for event := range tusHandler.CompleteUploads {
			s.completeUpload(uploadsDir, event.Upload)
		}
	}()

	group := s.app.Group(tusBasePath, adaptor.HTTPMiddleware(tusHandler.Middleware))
	group.Post("", adaptor.HTTPHandlerFunc(tusHandler.PostFile))
	group.Head(":id", adaptor.HTTPHandlerFunc(tusHandler.HeadFile))
	group.Patch(":id", adaptor.HTTPHandlerFunc(tusHandler.PatchFile))
	group.Get(":id", adaptor.HTTPHandlerFunc(tusHandler.GetFile))
	group.Delete(":id", adaptor.HTTPHandlerFunc(tusHandler.DelFile))

	s.log.Info("tus upload handler initialized", zap.String("dir", uploadsDir))
	return nil
}

func (s *Server) completeUpload(uploadsDir string, info handler.FileInfo) {
	s.inProgress.Add(1)
	defer s.inProgress.Done()

	filename := info.MetaData["filename"]
	destDir := info.MetaData["relativePath"]
	folder := info.MetaData["folder"]
	tempFile := filepath.Join(uploadsDir, info.ID)

	s.mu.Lock()
	r := s.svc.Upload(tempFile, destDir, filename, folder)
	s.mu.Unlock()

	if r.Failed() {
		s.log.Error("upload could not be stored",
			zap.String("id", info.ID), zap.String("filename", filename), zap.String("error", r.Message))
		return
	}
	if err := os.Remove(tempFile + ".info"); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove upload info", zap.String("id", info.ID), zap.Error(err))
	}
}
