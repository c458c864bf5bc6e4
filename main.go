package main

import (
	"os"

	"schedule-board/core/logger"
	"schedule-board/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
		os.Exit(1)
	}
}
