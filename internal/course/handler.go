package course

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"CampusPortal/internal/auth"
	"CampusPortal/internal/helper"
)

type CourseHandler struct {
	service *CourseService
}

func NewCourseHandler(service *CourseService) *CourseHandler {
	return &CourseHandler{service: service}
}

func (h *CourseHandler) ListCourses(c echo.Context) error {
	courses, err := h.service.ListCourses(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courses)
}

func (h *CourseHandler) CreateCourse(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	var req CreateCourseRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}

	course, err := h.service.CreateCourse(c.Request().Context(), caller, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, course)
}

func (h *CourseHandler) GetCourse(c echo.Context) error {
	id, err := helper.ObjectIDParam(c, "id")
	if err != nil {
		return err
	}

	course, err := h.service.GetCourse(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) Enroll(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := helper.ObjectIDParam(c, "id")
	if err != nil {
		return err
	}

	course, err := h.service.Enroll(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) AddStudent(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := helper.ObjectIDParam(c, "id")
	if err != nil {
		return err
	}
	var req AddStudentRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}

	course, err := h.service.AddStudent(c.Request().Context(), caller, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) AddMaterial(c echo.Context) error {
	caller, err := auth.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := helper.ObjectIDParam(c, "id")
	if err != nil {
		return err
	}
	var req AddMaterialRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}

	course, err := h.service.AddMaterial(c.Request().Context(), caller, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, course)
}
