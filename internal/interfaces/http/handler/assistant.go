package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/payaid/backend/internal/application/assistant"
)

// AssistantHandler handles AI assistant endpoints
type AssistantHandler struct {
	BaseHandler
	chatService *assistant.ChatService
}

// NewAssistantHandler creates a new AssistantHandler
func NewAssistantHandler(chatService *assistant.ChatService) *AssistantHandler {
	return &AssistantHandler{
		chatService: chatService,
	}
}

// ChatRequest is a question for the assistant
type ChatRequest struct {
	Message      string `json:"message" binding:"required,max=4000" example:"What is our refund policy?"`
	UseKnowledge bool   `json:"use_knowledge" example:"true"`
}

// Chat godoc
// @ID           chatAssistant
// @Summary      Ask the assistant
// @Description  Answers through the configured providers in order. With use_knowledge the answer is grounded on numbered knowledge base sources.
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        request body ChatRequest true "Question"
// @Success      200 {object} APIResponse[assistant.ChatResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ai/chat [post]
func (h *AssistantHandler) Chat(c *gin.Context) {
	tenantID, userID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req ChatRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.chatService.Chat(c.Request.Context(), tenantID, assistant.ChatInput{
		UserID:       userID,
		Message:      req.Message,
		UseKnowledge: req.UseKnowledge,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
