package services

import "errors"

var (
	ErrNotFound           = errors.New("Not found")
	ErrEmailRequired      = errors.New("Users must have an email address")
	ErrEmailTaken         = errors.New("User with this email already exists")
	ErrInvalidCredentials = errors.New("Unable to authenticate with provided credentials")
	ErrInvalidRelation    = errors.New("Invalid pk - object does not exist")
	ErrInvalidImage       = errors.New("Upload a valid image. The file you uploaded was either not an image or a corrupted image")
	ErrInvalidPrice       = errors.New("Ensure that there are no more than 5 digits in total")
)

var ErrInvalidFilter = errors.New("Invalid id list, expected comma separated integers")
