package main

import (
	"fmt"
	"os"

	"github.com/temirov/spp/internal/cli"
	"github.com/temirov/spp/internal/utils"
)

// main is the entry point for the spp command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(false)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	applicationExecutionError := cli.Execute()
	if applicationExecutionError != nil {
		loggerInstance.Error(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
	_ = loggerInstance.Sync()
	os.Exit(cli.ExitCode(applicationExecutionError))
}
