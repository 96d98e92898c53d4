// Package cli provides the spp command line interface.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/spp/internal/config"
	"github.com/temirov/spp/internal/directive"
	"github.com/temirov/spp/internal/engine"
	"github.com/temirov/spp/internal/services/clipboard"
	"github.com/temirov/spp/internal/utils"
)

const (
	outputFlagName          = "output"
	outputFlagShorthand     = "o"
	directoryFlagName       = "directory"
	directoryFlagShorthand  = "C"
	maxIncludeDepthFlagName = "max-include-depth"
	copyFlagName            = "copy"
	configFlagName          = "config"
	verboseFlagName         = "verbose"
	verboseFlagShorthand    = "v"

	rootUse              = "spp [files...]"
	rootShortDescription = "spp script preprocessor"
	rootLongDescription  = `spp copies its input files to the output, executing directive lines on the way.
A directive is a line starting with '#' followed by a name:

  #insert <path>     copy the file at path verbatim
  #include <path>    preprocess the file at path in place
  #ignore            drop following lines until #end-ignore
  #end-ignore        stop dropping lines
  #ignore-next       drop the next line (also spelled #ignorenext)

Relative paths resolve against the directory of the file containing the directive.
Lines that look like directives but are not recognized are copied unchanged.
Without files, or with '-', standard input is read.`
	rootUsageExample = `  # Preprocess a script into build/script.sh
  spp -o build/script.sh src/script.sh

  # Read standard input, resolving relative paths against ./templates
  spp -C templates < page.txt`

	outputFlagDescription          = "write output to file instead of standard output"
	directoryFlagDescription       = "directory used to resolve paths found in standard input"
	maxIncludeDepthFlagDescription = "maximum nesting of #include directives"
	copyFlagDescription            = "also copy the output to the clipboard"
	configFlagDescription          = "configuration file path"
	verboseFlagDescription         = "log every directive to standard error"

	emptyArgumentMessageFormat = "--%s: argument may not be empty"
	invalidDepthMessageFormat  = "--%s: max include depth must be at least 1, got %d"
	notAFileMessageFormat      = "%s: not a file"
	missingPathMessageFormat   = "%s: no such file or directory"
	statFailedMessageFormat    = "stat failed for '%s': %w"
	openFailedMessageFormat    = "open %s: %w"
	flushFailedMessageFormat   = "flush output: %w"
	closeFailedMessageFormat   = "close %s: %w"
	copyFailedMessageFormat    = "copy output to clipboard: %w"
)

// dependencies are the collaborators a command run may substitute in tests.
type dependencies struct {
	copier    clipboard.Copier
	newLogger func(verbose bool) (*zap.Logger, error)
}

func defaultDependencies() dependencies {
	return dependencies{
		copier:    clipboard.NewService(),
		newLogger: utils.NewApplicationLogger,
	}
}

// runOptions stores flag values.
type runOptions struct {
	outputPath       string
	workingDirectory string
	maxIncludeDepth  int
	copyToClipboard  bool
	configPath       string
	verbose          bool
}

// Execute runs the spp application.
func Execute() error {
	rootCommand := createRootCommand(defaultDependencies())
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(deps dependencies) *cobra.Command {
	var options runOptions

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return runPreprocessor(command, arguments, options, deps)
		},
	}
	rootCommand.SetFlagErrorFunc(func(_ *cobra.Command, flagError error) error {
		return withExitCode(ExitCodeInvalidOption, flagError)
	})
	addRunFlags(rootCommand.Flags(), &options)
	return rootCommand
}

// addRunFlags registers preprocessing flags on the flag set.
func addRunFlags(flagSet *pflag.FlagSet, options *runOptions) {
	flagSet.StringVarP(&options.outputPath, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	flagSet.StringVarP(&options.workingDirectory, directoryFlagName, directoryFlagShorthand, "", directoryFlagDescription)
	flagSet.IntVar(&options.maxIncludeDepth, maxIncludeDepthFlagName, engine.DefaultMaxIncludeDepth, maxIncludeDepthFlagDescription)
	flagSet.BoolVar(&options.copyToClipboard, copyFlagName, false, copyFlagDescription)
	flagSet.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	flagSet.BoolVarP(&options.verbose, verboseFlagName, verboseFlagShorthand, false, verboseFlagDescription)
}

// runPreprocessor opens the inputs and the output, then hands them to the engine.
func runPreprocessor(command *cobra.Command, arguments []string, options runOptions, deps dependencies) (err error) {
	flagSet := command.Flags()
	if flagSet.Changed(outputFlagName) && options.outputPath == "" {
		return withExitCode(ExitCodeInvalidArgument, fmt.Errorf(emptyArgumentMessageFormat, outputFlagName))
	}
	if flagSet.Changed(directoryFlagName) && options.workingDirectory == "" {
		return withExitCode(ExitCodeInvalidArgument, fmt.Errorf(emptyArgumentMessageFormat, directoryFlagName))
	}
	if flagSet.Changed(maxIncludeDepthFlagName) && options.maxIncludeDepth < 1 {
		return withExitCode(ExitCodeInvalidArgument, fmt.Errorf(invalidDepthMessageFormat, maxIncludeDepthFlagName, options.maxIncludeDepth))
	}

	applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		ExplicitFilePath: options.configPath,
	})
	if configurationError != nil {
		return withExitCode(ExitCodeInvalidArgument, configurationError)
	}

	logger, loggerError := deps.newLogger(options.verbose)
	if loggerError != nil {
		return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
	}
	defer func() {
		_ = logger.Sync()
	}()

	engineOptions := applicationConfiguration.EngineOptions()
	if flagSet.Changed(directoryFlagName) {
		engineOptions.WorkingDirectory = options.workingDirectory
	}
	if flagSet.Changed(maxIncludeDepthFlagName) {
		engineOptions.MaxIncludeDepth = options.maxIncludeDepth
	}
	engineOptions.Registry = directive.NewStandardRegistry()
	engineOptions.Logger = logger
	preprocessor, engineError := engine.New(engineOptions)
	if engineError != nil {
		return withExitCode(ExitCodeInvalidArgument, engineError)
	}

	copyToClipboard := options.copyToClipboard
	if !flagSet.Changed(copyFlagName) && applicationConfiguration.Copy != nil {
		copyToClipboard = *applicationConfiguration.Copy
	}

	sources, closeSources, sourcesError := openSources(arguments, command.InOrStdin())
	if sourcesError != nil {
		return sourcesError
	}
	defer closeSources()

	outputWriter, closeOutput, outputError := openOutput(options.outputPath, command.OutOrStdout())
	if outputError != nil {
		return outputError
	}
	defer func() {
		if closeError := closeOutput(); closeError != nil && err == nil {
			err = closeError
		}
	}()

	var clipboardSink *clipboard.Sink
	if copyToClipboard {
		clipboardSink = clipboard.NewSink(deps.copier)
	}

	processError := dispatchOutput(func(writer io.Writer) error {
		return preprocessor.Process(sources, writer)
	}, func(reader io.Reader) error {
		return consumeOutput(reader, outputWriter, clipboardSink)
	})
	if processError != nil {
		return processError
	}

	if clipboardSink != nil {
		if copyError := clipboardSink.Flush(); copyError != nil {
			return fmt.Errorf(copyFailedMessageFormat, copyError)
		}
		logger.Debug("output copied to clipboard")
	}
	return nil
}

// consumeOutput drains preprocessed text into the buffered output and, when sink is set, the clipboard capture.
// The output is flushed even after a failure so text produced before it is kept.
func consumeOutput(reader io.Reader, outputWriter io.Writer, sink *clipboard.Sink) error {
	bufferedOutput := bufio.NewWriter(outputWriter)
	var destination io.Writer = bufferedOutput
	if sink != nil {
		destination = io.MultiWriter(bufferedOutput, sink)
	}
	_, copyError := io.Copy(destination, reader)
	if flushError := bufferedOutput.Flush(); flushError != nil && copyError == nil {
		copyError = fmt.Errorf(flushFailedMessageFormat, flushError)
	}
	return copyError
}

// openSources validates and opens every input path. Standard input is used for "-" or when no path is given.
func openSources(arguments []string, standardInput io.Reader) ([]engine.Source, func(), error) {
	if len(arguments) == 0 {
		arguments = []string{utils.StandardStreamArgument}
	}
	var openedFiles []*os.File
	closeAll := func() {
		for _, openedFile := range openedFiles {
			_ = openedFile.Close()
		}
	}

	sources := make([]engine.Source, 0, len(arguments))
	for _, argument := range arguments {
		if argument == utils.StandardStreamArgument {
			sources = append(sources, engine.Source{Reader: standardInput})
			continue
		}
		fileInformation, statError := os.Stat(argument)
		if statError != nil {
			closeAll()
			if errors.Is(statError, os.ErrNotExist) {
				return nil, nil, withExitCode(ExitCodeMissingPath, fmt.Errorf(missingPathMessageFormat, argument))
			}
			return nil, nil, fmt.Errorf(statFailedMessageFormat, argument, statError)
		}
		if fileInformation.IsDir() {
			closeAll()
			return nil, nil, withExitCode(ExitCodeNotAFile, fmt.Errorf(notAFileMessageFormat, argument))
		}
		// #nosec G304
		fileHandle, openError := os.Open(argument)
		if openError != nil {
			closeAll()
			return nil, nil, fmt.Errorf(openFailedMessageFormat, argument, openError)
		}
		openedFiles = append(openedFiles, fileHandle)
		sources = append(sources, engine.Source{Reader: fileHandle, Path: argument})
	}
	return sources, closeAll, nil
}

// openOutput creates or truncates outputPath, or returns standardOutput when the path is empty.
func openOutput(outputPath string, standardOutput io.Writer) (io.Writer, func() error, error) {
	if outputPath == "" {
		return standardOutput, func() error { return nil }, nil
	}
	if fileInformation, statError := os.Stat(outputPath); statError == nil && fileInformation.IsDir() {
		return nil, nil, withExitCode(ExitCodeNotAFile, fmt.Errorf(notAFileMessageFormat, outputPath))
	}
	// #nosec G304
	fileHandle, createError := os.Create(outputPath)
	if createError != nil {
		return nil, nil, fmt.Errorf(openFailedMessageFormat, outputPath, createError)
	}
	closeFile := func() error {
		if closeError := fileHandle.Close(); closeError != nil {
			return fmt.Errorf(closeFailedMessageFormat, outputPath, closeError)
		}
		return nil
	}
	return fileHandle, closeFile, nil
}
