package bootstrap

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// Loadenv loads .env from the working directory when there is one. Variables
// already present in the environment are not overridden.
func Loadenv(filenames ...string) (loaded bool, err error) {
	err = godotenv.Load(filenames...)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
