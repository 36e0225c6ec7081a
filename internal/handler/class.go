package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/virtuve/class-booking/internal/repository"
)

// ClassHandler serves the public class catalog.
type ClassHandler struct {
	Classes *repository.ClassRepo
}

func NewClassHandler(classes *repository.ClassRepo) *ClassHandler {
	return &ClassHandler{Classes: classes}
}

// List returns every scheduled class including its remaining spots.
func (h *ClassHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	classes, err := h.Classes.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list classes failed"})
	}
	return c.JSON(http.StatusOK, classes)
}

// Get returns a single class by ID.
func (h *ClassHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cl, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrClassNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get class failed"})
	}
	return c.JSON(http.StatusOK, cl)
}
