package apimodel

import (
	"strconv"
)

// StatusError is returned when an upstream service answers with a non 200 status
type StatusError struct {
	ErrStatusCode int    `json:"status_code"`
	ErrMessage    string `json:"message"`
}

func (e *StatusError) StatusCode() int {
	return e.ErrStatusCode
}

func (e *StatusError) Error() string {
	if e.ErrMessage != "" {
		return strconv.Itoa(e.ErrStatusCode) + ":" + e.ErrMessage
	} else {
		return strconv.Itoa(e.ErrStatusCode)
	}
}
