package plant

import "errors"

var (
	ErrPlantNotFound = errors.New("plant not found")
	ErrEmptyKey      = errors.New("plant key is empty")
)
