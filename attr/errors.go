package attr

import "errors"

var (
	// ErrMalformedAttribute is returned for an unknown, missing or repeated type tag,
	// or a tag whose payload has the wrong JSON type.
	ErrMalformedAttribute = errors.New("dynabatch: malformed attribute")

	// ErrInvalidNumber is returned when N or NS text is not a decimal number.
	ErrInvalidNumber = errors.New("dynabatch: invalid number")

	// ErrEmptySet is returned for a set with no members.
	ErrEmptySet = errors.New("dynabatch: empty set")

	// ErrDuplicateMapKey is returned when a map names the same attribute twice.
	ErrDuplicateMapKey = errors.New("dynabatch: duplicate map key")
)

// PathError locates a codec error inside a nested value.
type PathError struct {
	// Path is the attribute path, e.g. "Details.Misc.dream[1]".
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error { return e.Err }

func atPath(path string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}
	return &PathError{Path: path, Err: err}
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
