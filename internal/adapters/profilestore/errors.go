package profilestore

import "errors"

// ErrInvalidCatalog is returned when a profile catalog cannot be loaded.
var ErrInvalidCatalog = errors.New("invalid profile catalog")
