package model

import "errors"

var ErrorInvalidPayload = errors.New("Error: malformed payload")
