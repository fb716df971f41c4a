package server

import (
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const wsChunkSize = 10

type wsRequest struct {
	RequestID int `json:"requestId"`
}

// wsMessage carries one chunk. A message with no items and no error ends
// the reply to a request.
type wsMessage struct {
	RequestID int      `json:"requestId"`
	Kind      string   `json:"kind,omitempty"`
	Items     []string `json:"items"`
	Error     string   `json:"error,omitempty"`
}

// handleWebSocket answers each request with the untracked files and then
// the broken links, in chunks.
func (s *Server) handleWebSocket(c *websocket.Conn) {
	defer c.Close()
	s.log.Debug("websocket connected")

	for {
		var req wsRequest
		if err := c.ReadJSON(&req); err != nil {
			s.log.Debug("websocket read error", zap.Error(err))
			return
		}

		s.mu.Lock()
		report, err := s.svc.Analyze()
		s.mu.Unlock()
		if err != nil {
			msg := wsMessage{RequestID: req.RequestID, Items: []string{}, Error: err.Error()}
			if err := c.WriteJSON(msg); err != nil {
				return
			}
			continue
		}

		if !s.sendChunks(c, req.RequestID, "untracked", report.UntrackedFiles) ||
			!s.sendChunks(c, req.RequestID, "broken", report.BrokenLinks) {
			return
		}

		if err := c.WriteJSON(wsMessage{RequestID: req.RequestID, Items: []string{}}); err != nil {
			s.log.Debug("error sending completion signal", zap.Error(err))
			return
		}
	}
}

func (s *Server) sendChunks(c *websocket.Conn, id int, kind string, items []string) bool {
	for i := 0; i < len(items); i += wsChunkSize {
		end := min(i+wsChunkSize, len(items))
		msg := wsMessage{RequestID: id, Kind: kind, Items: items[i:end]}
		if err := c.WriteJSON(msg); err != nil {
			s.log.Debug("error sending chunk", zap.Error(err))
			return false
		}
	}
	return true
}
