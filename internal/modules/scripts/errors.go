package scripts

import "errors"

var (
	ErrScriptNotFound  = errors.New("script not found")
	ErrInvalidFileType = errors.New("file type is not allowed")
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrDanglingCover   = errors.New("cover locator does not resolve to a stored file")
)
