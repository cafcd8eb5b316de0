package natuserr

import "os"

var (
	errPermission = os.ErrPermission
	errNotExist   = os.ErrNotExist
	errExist      = os.ErrExist
)
