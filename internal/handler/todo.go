package handler

import (
	"net/http"

	"taskchat-backend/internal/model"
	"taskchat-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type TodoHandler struct {
	todos *service.TodoStore
}

func NewTodoHandler(todos *service.TodoStore) *TodoHandler {
	return &TodoHandler{
		todos: todos,
	}
}

func (h *TodoHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.listResponse())
}

// Add creates an item. Blank text is ignored and answers with the
// unchanged list.
func (h *TodoHandler) Add(c *gin.Context) {
	var req model.AddTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, ok := h.todos.Add(c.Request.Context(), req.Text)
	if !ok {
		c.JSON(http.StatusOK, h.listResponse())
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *TodoHandler) Toggle(c *gin.Context) {
	h.todos.Toggle(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, h.listResponse())
}

func (h *TodoHandler) Delete(c *gin.Context) {
	h.todos.Delete(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, h.listResponse())
}

func (h *TodoHandler) listResponse() model.TodoListResponse {
	return model.TodoListResponse{
		Todos: h.todos.Items(),
		Stats: h.todos.Stats(),
	}
}
