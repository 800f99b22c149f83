package attendance

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"CampusPortal/internal/auth"
	"CampusPortal/internal/helper"
)

type AttendanceHandler struct {
	service *AttendanceService
}

func NewAttendanceHandler(service *AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

func (h *AttendanceHandler) MarkAttendance(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	var req MarkRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}

	a, err := h.service.MarkAttendance(c.Request().Context(), caller, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AttendanceHandler) CourseAttendance(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := helper.ObjectIDParam(c, "courseId")
	if err != nil {
		return err
	}

	registers, err := h.service.CourseAttendance(c.Request().Context(), caller, courseID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, registers)
}

func (h *AttendanceHandler) MyAttendance(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}

	records, err := h.service.StudentAttendance(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records)
}
