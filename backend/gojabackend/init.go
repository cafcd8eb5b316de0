package gojabackend

import (
	"github.com/r3e-network/natus/backend/pluginloader"
)

func init() {
	pluginloader.RegisterBuiltin(pluginloader.Builtin{
		Name:   name,
		VTable: New(),
	})
}
