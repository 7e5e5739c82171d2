package cache

import "errors"

var errUnsupportedValue = errors.New("memory cache: value must be string or []byte")
