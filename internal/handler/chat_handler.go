package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pdf-chat-go/internal/service"
	"pdf-chat-go/pkg/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatHandler answers questions about an uploaded PDF over JSON and websocket.
type ChatHandler struct {
	chatService service.ChatService
	docService  service.DocumentService
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chatService service.ChatService, docService service.DocumentService) *ChatHandler {
	return &ChatHandler{chatService: chatService, docService: docService}
}

// ChatRequest is the body of POST /v1/chat/:pdf_id.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat handles POST /v1/chat/:pdf_id.
func (h *ChatHandler) Chat(c *gin.Context) {
	pdfID := c.Param("pdf_id")
	if !h.documentExists(c, pdfID) {
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithDetail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	answer, err := h.chatService.Ask(c.Request.Context(), pdfID, req.Message)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusBadRequest {
			abortWithDetail(c, status, "Message must not be empty")
			return
		}
		log.Errorf("Chat: failed to answer, pdf_id: %s, error: %v", pdfID, err)
		abortWithDetail(c, http.StatusInternalServerError, "Failed to generate response")
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": answer})
}

// Handle upgrades GET /v1/chat/:pdf_id/ws to a websocket. Every text frame is
// one question, either raw text or {"message": "..."}; every reply is
// {"response": "..."} or {"error": "..."}.
func (h *ChatHandler) Handle(c *gin.Context) {
	pdfID := c.Param("pdf_id")
	if !h.documentExists(c, pdfID) {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", err)
		return
	}
	defer conn.Close()

	log.Infof("websocket connected, pdf_id: %s", pdfID)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("failed to read websocket message: %v", err)
			}
			return
		}

		question := string(message)
		if strings.HasPrefix(strings.TrimSpace(question), "{") {
			var req ChatRequest
			if err := json.Unmarshal(message, &req); err == nil {
				question = req.Message
			}
		}

		reply := gin.H{}
		answer, err := h.chatService.Ask(c.Request.Context(), pdfID, question)
		switch {
		case err == nil:
			reply["response"] = answer
		case statusFor(err) == http.StatusBadRequest:
			reply["error"] = "Message must not be empty"
		default:
			log.Errorf("websocket chat failed, pdf_id: %s, error: %v", pdfID, err)
			reply["error"] = "Failed to generate response"
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Warnf("failed to write websocket reply: %v", err)
			return
		}
	}
}

func (h *ChatHandler) documentExists(c *gin.Context, pdfID string) bool {
	if _, err := h.docService.Get(c.Request.Context(), pdfID); err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			abortWithDetail(c, status, "PDF not found")
			return false
		}
		log.Errorf("failed to look up pdf %s: %v", pdfID, err)
		abortWithDetail(c, status, "Failed to load PDF")
		return false
	}
	return true
}
