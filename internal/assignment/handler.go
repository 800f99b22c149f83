package assignment

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"CampusPortal/internal/auth"
	"CampusPortal/internal/helper"
)

type AssignmentHandler struct {
	service *AssignmentService
}

func NewAssignmentHandler(service *AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

func (h *AssignmentHandler) ListAssignments(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}

	assignments, err := h.service.ListAssignments(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, assignments)
}

func (h *AssignmentHandler) CreateAssignment(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	var req CreateAssignmentRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}

	a, err := h.service.CreateAssignment(c.Request().Context(), caller, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *AssignmentHandler) GetAssignment(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := helper.ObjectIDParam(c, "id")
	if err != nil {
		return err
	}

	a, err := h.service.GetAssignment(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AssignmentHandler) UpdateAssignment(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := helper.ObjectIDParam(c, "id")
	if err != nil {
		return err
	}
	var req UpdateAssignmentRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}

	a, err := h.service.UpdateAssignment(c.Request().Context(), caller, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AssignmentHandler) DeleteAssignment(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := helper.ObjectIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteAssignment(c.Request().Context(), caller, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Assignment deleted"})
}

func (h *AssignmentHandler) Submit(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := helper.ObjectIDParam(c, "id")
	if err != nil {
		return err
	}
	var req SubmitRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}

	a, err := h.service.Submit(c.Request().Context(), caller, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AssignmentHandler) Submissions(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := helper.ObjectIDParam(c, "id")
	if err != nil {
		return err
	}

	resp, err := h.service.Submissions(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AssignmentHandler) Grade(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := helper.ObjectIDParam(c, "id")
	if err != nil {
		return err
	}
	subID, err := helper.ObjectIDParam(c, "subId")
	if err != nil {
		return err
	}
	var req GradeRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}

	sub, err := h.service.Grade(c.Request().Context(), caller, id, subID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}
