// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/snapsource/internal/config"
	"github.com/temirov/snapsource/internal/services/clipboard"
	"github.com/temirov/snapsource/internal/services/snapshot"
	"github.com/temirov/snapsource/internal/tokenizer"
	"github.com/temirov/snapsource/internal/types"
	"github.com/temirov/snapsource/internal/utils"
)

const (
	configFlagName         = "config"
	verboseFlagName        = "verbose"
	formatFlagName         = "format"
	rootFlagName           = "root"
	maxDepthFlagName       = "max-depth"
	maxFileSizeFlagName    = "max-file-size"
	treeFlagName           = "tree"
	gitignoreFlagName      = "gitignore"
	hideDotFilesFlagName   = "hide-dot-files"
	removeCommentsFlagName = "remove-comments"
	compressFlagName       = "compress"
	excludePatternFlagName = "exclude-pattern"
	excludePatternShortcut = "e"
	excludePathFlagName    = "exclude-path"
	tokensFlagName         = "tokens"
	modelFlagName          = "model"
	maxTokensFlagName      = "max-tokens"
	tokenWarningFlagName   = "token-warning"
	clipboardFlagName      = "clipboard"
	progressFlagName       = "progress"
	globalFlagName         = "global"
	forceFlagName          = "force"

	configFlagDescription         = "configuration file used instead of the local .snapsource.yaml"
	verboseFlagDescription        = "log skipped entries and other diagnostics"
	formatFlagDescription         = "output format: plaintext, markdown or xml"
	rootFlagDescription           = "workspace root (defaults to the working directory)"
	maxDepthFlagDescription       = "maximum depth of the rendered tree"
	maxFileSizeFlagDescription    = "largest file, in bytes, whose content is included"
	treeFlagDescription           = "include the project tree"
	gitignoreFlagDescription      = "honor the root .gitignore"
	hideDotFilesFlagDescription   = "hide files and folders whose names start with a dot"
	removeCommentsFlagDescription = "strip // and /* */ comments from file content"
	compressFlagDescription       = "trim lines and drop blank lines"
	excludePatternFlagDescription = "additional gitignore-style exclusion pattern"
	excludePathFlagDescription    = "additional path whose whole subtree is excluded"
	tokensFlagDescription         = "estimate tokens and cost of the output"
	modelFlagDescription          = "model used for token estimation"
	maxTokensFlagDescription      = "token ceiling for the limit warning (0 uses the model window)"
	tokenWarningFlagDescription   = "warn when the token estimate exceeds the ceiling"
	clipboardFlagDescription      = "copy to the system clipboard instead of standard output"
	progressFlagDescription       = "show a progress bar on standard error"
	globalFlagDescription         = "write the global configuration instead of the local one"
	forceFlagDescription          = "overwrite an existing configuration file"

	rootUse              = "snapsource"
	rootShortDescription = "snapsource copies a textual snapshot of a project"
	rootLongDescription  = `snapsource renders a project tree and the contents of selected files
into a single plaintext, markdown or xml document suitable for pasting into an LLM prompt.
Settings come from ~/.snapsource/config.yaml, then .snapsource.yaml, then flags.`
	versionTemplate = "version: {{.Version}}\n"

	copyUse              = "copy [paths...]"
	copyAlias            = "c"
	copyShortDescription = "copy the tree and file contents (" + copyAlias + ")"
	copyLongDescription  = `Render the project tree and the content of every selected file or folder.
Folders are expanded recursively; ignored, hidden and excluded entries are skipped.
A boolean literal such as "no" or "1" after a toggle flag is read as the flag value unless
a file or folder with that name exists; use --flag=value to be explicit.`
	copyUsageExample = `  # Copy the whole project as markdown
  snapsource copy

  # Copy two folders as xml to standard output
  snapsource copy --format xml --clipboard=false internal cmd`

	structureUse              = "structure [path]"
	structureAlias            = "s"
	structureShortDescription = "copy the tree of one folder (" + structureAlias + ")"
	structureLongDescription  = `Render only the tree, using the selected folder as the root.
A selected file renders the whole workspace tree without a root label.`
	structureUsageExample = `  # Copy the tree of the internal folder
  snapsource structure internal`

	initUse              = "init"
	initShortDescription = "write the default configuration file"
	initUsageExample     = `  # Create .snapsource.yaml in the working directory
  snapsource init

  # Replace the global configuration
  snapsource init --global --force`

	initCompletedFormat        = "Configuration written to %s\n"
	errorNegativeDepthFormat   = "--%s must not be negative, got %d"
	errorFileSizeFormat        = "--%s must be positive, got %d"
	errorNegativeTokensFormat  = "--%s must not be negative, got %d"
	errorWorkingDirectoryFmt   = "determine working directory: %w"
	errorLoadConfigurationFmt  = "load configuration: %w"
	errorLoggerFormat          = "initialize logger: %w"
	errorRunCancelledMessage   = "snapshot cancelled"
	warningProgressCloseFailed = "closing progress bar failed"
)

// Dependencies overrides the collaborators used by the commands. Zero values select the
// process streams, the system clipboard and the tiktoken counter for the configured model.
type Dependencies struct {
	Stdout    io.Writer
	Stderr    io.Writer
	Clipboard clipboard.Copier
	Counter   tokenizer.Counter
	Logger    *zap.Logger
}

// Execute runs the snapsource application with the process arguments.
func Execute(ctx context.Context) error {
	rootCommand := NewRootCommand(Dependencies{})
	rootCommand.SetArgs(expandToggleArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

type globalOptions struct {
	configurationPath string
	verbose           bool
}

// NewRootCommand builds the root Cobra command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	if dependencies.Stdout == nil {
		dependencies.Stdout = os.Stdout
	}
	if dependencies.Stderr == nil {
		dependencies.Stderr = os.Stderr
	}
	var options globalOptions

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Version:       utils.GetApplicationVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)
	rootCommand.SetOut(dependencies.Stdout)
	rootCommand.SetErr(dependencies.Stderr)
	rootCommand.PersistentFlags().StringVar(&options.configurationPath, configFlagName, "", configFlagDescription)
	rootCommand.PersistentFlags().BoolVar(&options.verbose, verboseFlagName, false, verboseFlagDescription)

	rootCommand.AddCommand(
		createCopyCommand(&options, dependencies),
		createStructureCommand(&options, dependencies),
		createInitCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// snapshotFlags holds the values of flags shared by the copy and structure commands.
type snapshotFlags struct {
	format          string
	workspaceRoot   string
	maxDepth        int
	maxFileSize     int64
	includeTree     bool
	useGitignore    bool
	hideDotFiles    bool
	removeComments  bool
	compress        bool
	excludePatterns []string
	excludePaths    []string
	tokens          bool
	model           string
	maxTokens       int
	tokenWarning    bool
	useClipboard    bool
	progress        bool
}

func addSnapshotFlags(command *cobra.Command, flags *snapshotFlags) {
	defaults := types.DefaultRunConfiguration()
	flagSet := command.Flags()
	flagSet.StringVar(&flags.format, formatFlagName, string(defaults.Format), formatFlagDescription)
	flagSet.StringVar(&flags.workspaceRoot, rootFlagName, "", rootFlagDescription)
	flagSet.IntVar(&flags.maxDepth, maxDepthFlagName, defaults.MaxDepth, maxDepthFlagDescription)
	flagSet.Int64Var(&flags.maxFileSize, maxFileSizeFlagName, defaults.MaxFileSize, maxFileSizeFlagDescription)
	registerToggle(flagSet, &flags.includeTree, treeFlagName, defaults.IncludeTree, treeFlagDescription)
	registerToggle(flagSet, &flags.useGitignore, gitignoreFlagName, defaults.UseGitignore, gitignoreFlagDescription)
	registerToggle(flagSet, &flags.hideDotFiles, hideDotFilesFlagName, defaults.HideDotFiles, hideDotFilesFlagDescription)
	registerToggle(flagSet, &flags.removeComments, removeCommentsFlagName, defaults.RemoveComments, removeCommentsFlagDescription)
	registerToggle(flagSet, &flags.compress, compressFlagName, defaults.CompressCode, compressFlagDescription)
	flagSet.StringArrayVarP(&flags.excludePatterns, excludePatternFlagName, excludePatternShortcut, nil, excludePatternFlagDescription)
	flagSet.StringArrayVar(&flags.excludePaths, excludePathFlagName, nil, excludePathFlagDescription)
	registerToggle(flagSet, &flags.tokens, tokensFlagName, defaults.TokenCounting, tokensFlagDescription)
	flagSet.StringVar(&flags.model, modelFlagName, defaults.TokenModel, modelFlagDescription)
	flagSet.IntVar(&flags.maxTokens, maxTokensFlagName, defaults.MaxTokens, maxTokensFlagDescription)
	registerToggle(flagSet, &flags.tokenWarning, tokenWarningFlagName, defaults.TokenWarning, tokenWarningFlagDescription)
	registerToggle(flagSet, &flags.useClipboard, clipboardFlagName, defaults.UseClipboard, clipboardFlagDescription)
	registerToggle(flagSet, &flags.progress, progressFlagName, defaults.ProgressIndicators, progressFlagDescription)
}

// applyOverrides copies explicitly set flags over the configuration loaded from files.
func (flags *snapshotFlags) applyOverrides(command *cobra.Command, configuration *types.RunConfiguration) error {
	changed := command.Flags().Changed
	if changed(formatFlagName) {
		format, err := types.ParseOutputFormat(flags.format)
		if err != nil {
			return err
		}
		configuration.Format = format
	}
	if changed(maxDepthFlagName) {
		if flags.maxDepth < 0 {
			return fmt.Errorf(errorNegativeDepthFormat, maxDepthFlagName, flags.maxDepth)
		}
		configuration.MaxDepth = flags.maxDepth
	}
	if changed(maxFileSizeFlagName) {
		if flags.maxFileSize <= 0 {
			return fmt.Errorf(errorFileSizeFormat, maxFileSizeFlagName, flags.maxFileSize)
		}
		configuration.MaxFileSize = flags.maxFileSize
	}
	if changed(maxTokensFlagName) {
		if flags.maxTokens < 0 {
			return fmt.Errorf(errorNegativeTokensFormat, maxTokensFlagName, flags.maxTokens)
		}
		configuration.MaxTokens = flags.maxTokens
	}
	if changed(treeFlagName) {
		configuration.IncludeTree = flags.includeTree
	}
	if changed(gitignoreFlagName) {
		configuration.UseGitignore = flags.useGitignore
	}
	if changed(hideDotFilesFlagName) {
		configuration.HideDotFiles = flags.hideDotFiles
	}
	if changed(removeCommentsFlagName) {
		configuration.RemoveComments = flags.removeComments
	}
	if changed(compressFlagName) {
		configuration.CompressCode = flags.compress
	}
	if changed(tokensFlagName) {
		configuration.TokenCounting = flags.tokens
	}
	if changed(modelFlagName) {
		configuration.TokenModel = flags.model
	}
	if changed(tokenWarningFlagName) {
		configuration.TokenWarning = flags.tokenWarning
	}
	if changed(clipboardFlagName) {
		configuration.UseClipboard = flags.useClipboard
	}
	if changed(progressFlagName) {
		configuration.ProgressIndicators = flags.progress
	}
	configuration.Exclude.Patterns = append(configuration.Exclude.Patterns, flags.excludePatterns...)
	configuration.Exclude.Paths = append(configuration.Exclude.Paths, flags.excludePaths...)
	return nil
}

func createCopyCommand(options *globalOptions, dependencies Dependencies) *cobra.Command {
	var flags snapshotFlags
	copyCommand := &cobra.Command{
		Use:     copyUse,
		Aliases: []string{copyAlias},
		Short:   copyShortDescription,
		Long:    copyLongDescription,
		Example: copyUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return runSnapshot(command, options, &flags, dependencies, arguments, false)
		},
	}
	addSnapshotFlags(copyCommand, &flags)
	return copyCommand
}

func createStructureCommand(options *globalOptions, dependencies Dependencies) *cobra.Command {
	var flags snapshotFlags
	structureCommand := &cobra.Command{
		Use:     structureUse,
		Aliases: []string{structureAlias},
		Short:   structureShortDescription,
		Long:    structureLongDescription,
		Example: structureUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return runSnapshot(command, options, &flags, dependencies, arguments, true)
		},
	}
	addSnapshotFlags(structureCommand, &flags)
	return structureCommand
}

func createInitCommand() *cobra.Command {
	var global bool
	var force bool
	initCommand := &cobra.Command{
		Use:     initUse,
		Short:   initShortDescription,
		Example: initUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, err := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(command.OutOrStdout(), initCompletedFormat, path)
			return err
		},
	}
	initCommand.Flags().BoolVar(&global, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// runSnapshot resolves the configuration, wires the snapshot service and reports its result.
func runSnapshot(
	command *cobra.Command,
	options *globalOptions,
	flags *snapshotFlags,
	dependencies Dependencies,
	items []string,
	structureOnly bool,
) error {
	logger := dependencies.Logger
	if logger == nil {
		applicationLogger, err := utils.NewApplicationLogger(options.verbose)
		if err != nil {
			return fmt.Errorf(errorLoggerFormat, err)
		}
		defer func() { _ = applicationLogger.Sync() }()
		logger = applicationLogger
	}

	workingDirectory, err := os.Getwd()
	if err != nil {
		return fmt.Errorf(errorWorkingDirectoryFmt, err)
	}
	workspaceRoot := workingDirectory
	if flags.workspaceRoot != "" {
		workspaceRoot = flags.workspaceRoot
		if !filepath.IsAbs(workspaceRoot) {
			workspaceRoot = filepath.Join(workingDirectory, workspaceRoot)
		}
	}

	loaded, err := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workspaceRoot,
		ExplicitFilePath: options.configurationPath,
	})
	if err != nil {
		return fmt.Errorf(errorLoadConfigurationFmt, err)
	}
	configuration, err := loaded.Resolve()
	if err != nil {
		return err
	}
	if err := flags.applyOverrides(command, &configuration); err != nil {
		return err
	}

	if len(items) == 0 {
		items = []string{workspaceRoot}
	}

	stdout := command.OutOrStdout()
	stderr := command.ErrOrStderr()
	var sink clipboard.Copier = clipboard.NewStreamService(stdout)
	if configuration.UseClipboard {
		sink = dependencies.Clipboard
		if sink == nil {
			sink = clipboard.NewService()
		}
	}

	serviceOptions := snapshot.Options{
		Sink:    sink,
		Counter: dependencies.Counter,
		Logger:  logger,
	}
	if configuration.ProgressIndicators {
		reporter := newProgressReporter(stderr)
		defer func() {
			if closeErr := reporter.Close(); closeErr != nil {
				logger.Debug(warningProgressCloseFailed, zap.Error(closeErr))
			}
		}()
		serviceOptions.Progress = reporter.Observe
	}

	result, runErr := snapshot.NewService(serviceOptions).Run(command.Context(), snapshot.Request{
		WorkspaceRoot: workspaceRoot,
		Items:         resolveArguments(workingDirectory, items),
		Configuration: configuration,
		StructureOnly: structureOnly,
	})
	if runErr != nil {
		if errors.Is(runErr, snapshot.ErrCancelled) {
			return errors.New(errorRunCancelledMessage)
		}
		return runErr
	}

	if configuration.UseClipboard && result.Summary != "" {
		fmt.Fprintln(stderr, result.Summary)
	}
	if result.TokenWarning != "" {
		fmt.Fprintln(stderr, result.TokenWarning)
	}
	return nil
}

// resolveArguments anchors relative command line paths at the working directory, which may
// differ from the workspace root selected with --root.
func resolveArguments(workingDirectory string, arguments []string) []string {
	resolved := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		if filepath.IsAbs(argument) {
			resolved = append(resolved, filepath.Clean(argument))
			continue
		}
		resolved = append(resolved, filepath.Join(workingDirectory, argument))
	}
	return resolved
}
