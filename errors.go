package chainsight

import "errors"

// ErrConfigNotFound is returned when no config file exists in the directory
// tree above the search start.
var ErrConfigNotFound = errors.New("no chainsight config file found")
