package handlers

import (
	"net/http"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/dispatch"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"github.com/gin-gonic/gin"
)

// TaskHandler is the handler side of the HTTP transport.
type TaskHandler struct {
	executor dispatch.Executor
}

func NewTaskHandler(executor dispatch.Executor) *TaskHandler {
	return &TaskHandler{executor: executor}
}

// RunTask serves POST /tasks/:operation. Handler failures are reported as
// 500 with the error text unchanged so the sender can relay it.
func (h *TaskHandler) RunTask(c *gin.Context) {
	op, err := models.ParseOperation(c.Param("operation"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var body models.TaskRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.executor.Execute(c.Request.Context(), op, &body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.TaskResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.TaskResponse{Result: models.NewPayload(result)})
}
