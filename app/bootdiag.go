//go:build !(tinygo && bootdebug)

package app

import "tk/hal"

func bootStep(hal.HAL, string) {}
