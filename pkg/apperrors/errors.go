package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("query failed validation")
	ErrInvalidFilterMeta  = errors.New("filter metadata is invalid")
	ErrUnsupportedFeature = errors.New("unsupported SQL feature")
	ErrUnknownDatasource  = errors.New("unknown datasource")
)
