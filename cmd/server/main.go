package main

import (
	"github.com/corvid-labs/lodestone/internal/server"
	"github.com/corvid-labs/lodestone/internal/util"
	"github.com/corvid-labs/lodestone/pkg/logger"
	"github.com/corvid-labs/lodestone/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
