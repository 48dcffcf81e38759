package main

// Compiled-in modules register themselves with the core registry via blank
// imports.
import (
	_ "github.com/metoushela/megan/modules/channel/messenger"
	_ "github.com/metoushela/megan/modules/provider/gemini"
	_ "github.com/metoushela/megan/modules/provider/promptrelay"
)
