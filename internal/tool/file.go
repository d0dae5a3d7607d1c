package tool

import (
	"os"
)

// IsFileExists reports whether filename exists, any error other than "not exist" is returned
func IsFileExists(filename string) (bool, error) {
	_, err := os.Stat(filename)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// EnsureDir creates dirname when missing
func EnsureDir(dirname string, perm os.FileMode) (created bool, err error) {
	exists, err := IsFileExists(dirname)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	return true, os.MkdirAll(dirname, perm)
}
