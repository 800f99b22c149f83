package helper

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"CampusPortal/internal/apperr"
)

// BindAndValidate binds the request body into req and runs the echo validator
// on it.
func BindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return c.Validate(req)
}

// ObjectIDParam parses the path parameter name as an ObjectID.
func ObjectIDParam(c echo.Context, name string) (primitive.ObjectID, error) {
	return ParseObjectID(c.Param(name), name)
}

// ParseObjectID parses a hex id, naming field in the validation error.
func ParseObjectID(hex, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.ValidationFields("Invalid id", map[string]string{field: "must be a valid id"})
	}
	return id, nil
}
