//go:build tinygo

package main

import (
	"tk/app"
	"tk/hal"
)

func main() {
	app.RunWithConfig(hal.New(), app.Config{SelfTest: true})
}
