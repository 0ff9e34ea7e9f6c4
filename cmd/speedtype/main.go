// Package main provides the CLI entrypoint for speedtype.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/speedtype/internal/analysisui"
	"github.com/verte-zerg/speedtype/internal/config"
	"github.com/verte-zerg/speedtype/internal/engine"
	"github.com/verte-zerg/speedtype/internal/gemini"
	"github.com/verte-zerg/speedtype/internal/logger"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/recommend"
	"github.com/verte-zerg/speedtype/internal/sentence"
	"github.com/verte-zerg/speedtype/internal/server"
	"github.com/verte-zerg/speedtype/internal/stats"
	"github.com/verte-zerg/speedtype/internal/store"
	"github.com/verte-zerg/speedtype/internal/tui"
)

var (
	testCountdown int
	testDuration  int
	testTheme     string
	testSound     bool

	sentenceSource   string
	sentenceFile     string
	sentenceLang     string
	sentenceWords    int
	sentenceCaps     float64
	sentencePunct    float64
	sentenceWordList string
	sentenceFallback string

	aiModel    string
	aiEndpoint string
	aiKeyEnv   string
	aiTimeout  int

	recommendSource string

	storeBackend string
	storePath    string

	logLevel string
	logFile  string

	serveAddr string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "speedtype",
		Short:         "Terminal typing speed test",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTestCmd,
	}

	rootCmd.Flags().IntVar(&testCountdown, "countdown", config.DefaultCountdown, "seconds counted down before typing starts")
	rootCmd.Flags().IntVar(&testDuration, "duration", config.DefaultDuration, "test length in seconds")
	rootCmd.Flags().StringVar(&testTheme, "theme", config.DefaultTheme, "colour theme (dark or light)")
	rootCmd.Flags().BoolVar(&testSound, "sound", false, "ring the terminal bell on a wrong keystroke")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&sentenceSource, "source", config.DefaultSentenceSource, "sentence source (static, file, words or ai)")
	pf.StringVar(&sentenceFile, "sentences", "", "YAML sentence file for --source file")
	pf.StringVar(&sentenceLang, "lang", config.DefaultLang, "word list language for --source words")
	pf.IntVar(&sentenceWords, "words", config.DefaultWords, "words per generated sentence")
	pf.Float64Var(&sentenceCaps, "caps", config.DefaultCaps, "probability of a capitalized word (0-1)")
	pf.Float64Var(&sentencePunct, "punct", config.DefaultPunct, "punctuation probability per word (0-1)")
	pf.StringVar(&sentenceWordList, "wordlist", "", "word list path for --source words")
	pf.StringVar(&sentenceFallback, "fallback", "", "sentence used when the source fails")
	pf.StringVar(&aiModel, "model", config.DefaultAIModel, "generative model name")
	pf.StringVar(&aiEndpoint, "endpoint", gemini.DefaultEndpoint, "generative API base URL")
	pf.StringVar(&aiKeyEnv, "api-key-env", config.DefaultAIKeyEnv, "environment variable holding the API key")
	pf.IntVar(&aiTimeout, "ai-timeout", config.DefaultAITimeout, "model request timeout in seconds")
	pf.StringVar(&recommendSource, "recommend", config.DefaultRecommendSource, "recommendation source (auto, ai or local)")
	pf.StringVar(&storeBackend, "store", config.DefaultStoreBackend, "result store backend (sqlite or file)")
	pf.StringVar(&storePath, "store-path", "", "result store path")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (trace, debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "log file path")

	rootCmd.AddCommand(newAnalysisCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

// loadSettings merges the config file into unset flags and validates the result.
func loadSettings(cmd *cobra.Command) (model.Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logErrf("failed to load .env: %v\n", err)
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "countdown", &testCountdown, fileCfg.Test.Countdown)
	applyIntConfig(cmd, "duration", &testDuration, fileCfg.Test.Duration)
	applyStringConfig(cmd, "theme", &testTheme, fileCfg.Test.Theme)
	applyBoolConfig(cmd, "sound", &testSound, fileCfg.Test.Sound)
	applyStringConfig(cmd, "source", &sentenceSource, fileCfg.Sentences.Source)
	applyStringConfig(cmd, "sentences", &sentenceFile, fileCfg.Sentences.File)
	applyStringConfig(cmd, "lang", &sentenceLang, fileCfg.Sentences.Lang)
	applyIntConfig(cmd, "words", &sentenceWords, fileCfg.Sentences.Words)
	applyFloatConfig(cmd, "caps", &sentenceCaps, fileCfg.Sentences.CapsPct)
	applyFloatConfig(cmd, "punct", &sentencePunct, fileCfg.Sentences.PunctPct)
	applyStringConfig(cmd, "wordlist", &sentenceWordList, fileCfg.Sentences.WordList)
	applyStringConfig(cmd, "fallback", &sentenceFallback, fileCfg.Sentences.Fallback)
	applyStringConfig(cmd, "model", &aiModel, fileCfg.AI.Model)
	applyStringConfig(cmd, "endpoint", &aiEndpoint, fileCfg.AI.Endpoint)
	applyStringConfig(cmd, "api-key-env", &aiKeyEnv, fileCfg.AI.APIKeyEnv)
	applyIntConfig(cmd, "ai-timeout", &aiTimeout, fileCfg.AI.TimeoutSeconds)
	applyStringConfig(cmd, "recommend", &recommendSource, fileCfg.Recommend.Source)
	applyStringConfig(cmd, "store", &storeBackend, fileCfg.Store.Backend)
	applyStringConfig(cmd, "store-path", &storePath, fileCfg.Store.Path)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)
	if fileCfg.Server.Addr != nil && cmd.Flags().Lookup("addr") != nil {
		applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	}

	settings := model.Settings{
		Countdown:       testCountdown,
		Duration:        testDuration,
		Theme:           strings.ToLower(strings.TrimSpace(testTheme)),
		Sound:           testSound,
		SentenceSource:  strings.ToLower(strings.TrimSpace(sentenceSource)),
		SentenceFile:    expandHome(sentenceFile),
		WordListPath:    expandHome(sentenceWordList),
		Lang:            strings.TrimSpace(sentenceLang),
		Words:           sentenceWords,
		CapsPct:         sentenceCaps,
		PunctPct:        sentencePunct,
		Fallback:        sentenceFallback,
		RecommendSource: strings.ToLower(strings.TrimSpace(recommendSource)),
		AIModel:         strings.TrimSpace(aiModel),
		AIEndpoint:      strings.TrimSpace(aiEndpoint),
		AIKeyEnv:        strings.TrimSpace(aiKeyEnv),
		AITimeout:       time.Duration(aiTimeout) * time.Second,
		StoreBackend:    strings.ToLower(strings.TrimSpace(storeBackend)),
		StorePath:       expandHome(storePath),
	}
	if settings.SentenceSource == sentence.SourceFile && settings.SentenceFile == "" {
		settings.SentenceFile = config.DefaultSentenceFile()
	}
	if settings.SentenceSource == sentence.SourceWords && settings.WordListPath == "" {
		settings.WordListPath = config.DefaultWordListPath(settings.Lang)
	}
	if settings.StorePath == "" {
		settings.StorePath = config.DefaultStorePath(settings.StoreBackend)
	}
	if err := validateSettings(settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

func validateSettings(s model.Settings) error {
	if s.Countdown <= 0 {
		return fmt.Errorf("--countdown must be > 0")
	}
	if s.Duration <= 0 {
		return fmt.Errorf("--duration must be > 0")
	}
	if !tui.ValidTheme(s.Theme) {
		return fmt.Errorf("--theme must be dark or light")
	}
	if !sentence.ValidSource(s.SentenceSource) {
		return fmt.Errorf("--source must be static, file, words or ai")
	}
	if s.Words <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if s.CapsPct < 0 || s.CapsPct > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if s.PunctPct < 0 || s.PunctPct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	if s.AIKeyEnv == "" {
		return fmt.Errorf("--api-key-env must not be empty")
	}
	if s.AITimeout <= 0 {
		return fmt.Errorf("--ai-timeout must be > 0")
	}
	if !recommend.ValidSource(s.RecommendSource) {
		return fmt.Errorf("--recommend must be auto, ai or local")
	}
	if !store.ValidBackend(s.StoreBackend) {
		return fmt.Errorf("--store must be sqlite or file")
	}
	if !logger.ValidLevel(logLevel) {
		return fmt.Errorf("--log-level must be trace, debug, info, warn or error")
	}
	return nil
}

// openFileLogger logs to a file so the alternate screen stays clean.
func openFileLogger() *logger.Logger {
	path := expandHome(logFile)
	if path == "" {
		path = config.DefaultLogPath()
	}
	log, err := logger.NewFile(path, logLevel)
	if err != nil {
		logErrf("logging disabled: %v\n", err)
		return nil
	}
	return log
}

func newModelClient(s model.Settings) *gemini.Client {
	return gemini.NewClient(gemini.Config{
		Endpoint: s.AIEndpoint,
		Model:    s.AIModel,
		APIKey:   os.Getenv(s.AIKeyEnv),
		Timeout:  s.AITimeout,
	})
}

func newSentenceSource(s model.Settings, client *gemini.Client, log *logger.Logger) (sentence.Source, error) {
	if s.SentenceSource == sentence.SourceAI && !client.Configured() {
		return nil, fmt.Errorf("--source ai needs an API key in $%s", s.AIKeyEnv)
	}
	src, err := sentence.New(s, client)
	if err != nil && missingDefaultWordList(s, err) {
		log.Warnf("word list %s not found, using built-in sentences: %v", s.WordListPath, err)
		s.SentenceSource = sentence.SourceStatic
		src, err = sentence.New(s, client)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create sentence source: %w", err)
	}
	return src, nil
}

// missingDefaultWordList reports whether the words source failed only because no list
// was installed at the default path. An explicit --wordlist that is missing stays an error.
func missingDefaultWordList(s model.Settings, err error) bool {
	return strings.EqualFold(s.SentenceSource, sentence.SourceWords) &&
		s.WordListPath == config.DefaultWordListPath(s.Lang) &&
		errors.Is(err, fs.ErrNotExist)
}

func newRecommender(s model.Settings, client *gemini.Client, log *logger.Logger) (recommend.Recommender, error) {
	if s.RecommendSource == recommend.SourceAI && !client.Configured() {
		return nil, fmt.Errorf("--recommend ai needs an API key in $%s", s.AIKeyEnv)
	}
	rec, err := recommend.New(s.RecommendSource, client, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create recommender: %w", err)
	}
	return rec, nil
}

func openSlot(s model.Settings) (*store.Slot, error) {
	slot, err := store.Open(s.StoreBackend, s.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}
	return slot, nil
}

func closeSlot(slot *store.Slot) {
	if err := slot.Close(); err != nil {
		logErrf("failed to close result store: %v\n", err)
	}
}

func newRunnerOptions(s model.Settings, log *logger.Logger) engine.Options {
	return engine.Options{
		Countdown: s.Countdown,
		Duration:  s.Duration,
		Fallback:  s.Fallback,
		Logger:    log,
	}
}

func runTestCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log := openFileLogger()
	defer func() {
		_ = log.Close()
	}()

	client := newModelClient(settings)
	src, err := newSentenceSource(settings, client, log)
	if err != nil {
		return err
	}
	slot, err := openSlot(settings)
	if err != nil {
		return err
	}
	defer closeSlot(slot)

	runner := engine.NewRunner(src, newRunnerOptions(settings, log))
	defer runner.Close()

	m := tui.NewModel(runner, slot, tui.Options{
		Duration: settings.Duration,
		Theme:    settings.Theme,
		Sound:    settings.Sound,
		Bell:     os.Stderr,
		Logger:   log,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if !m.WantsAnalysis() {
		return nil
	}
	runner.Close()
	return runAnalysis(settings, client, slot, log)
}

func newAnalysisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analysis",
		Short: "Show the analysis of the last exported result",
		Args:  cobra.NoArgs,
		RunE:  runAnalysisCmd,
	}
}

func runAnalysisCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log := openFileLogger()
	defer func() {
		_ = log.Close()
	}()
	slot, err := openSlot(settings)
	if err != nil {
		return err
	}
	defer closeSlot(slot)
	return runAnalysis(settings, newModelClient(settings), slot, log)
}

func runAnalysis(s model.Settings, client *gemini.Client, slot *store.Slot, log *logger.Logger) error {
	rec, err := newRecommender(s, client, log)
	if err != nil {
		return err
	}
	if !stats.IsTerminal(os.Stdout) {
		return writeAnalysisReport(os.Stdout, slot, rec, s.AITimeout+5*time.Second)
	}
	m := analysisui.NewModel(slot, rec, analysisui.Options{
		Logger:      log,
		TipsTimeout: s.AITimeout + 5*time.Second,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run analysis TUI: %w", err)
	}
	return nil
}

// writeAnalysisReport prints the analysis as plain text for pipes and files.
func writeAnalysisReport(w io.Writer, loader analysisui.ResultLoader, rec recommend.Recommender, tipsTimeout time.Duration) error {
	loadCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	res, err := loader.Load(loadCtx)
	cancel()
	if errors.Is(err, store.ErrNoData) {
		_, err = fmt.Fprintln(w, recommend.NoDataMessage)
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to load result: %w", err)
	}
	histogram := recommend.ErrorHistogram(res.DetailedErrors)
	var tips []string
	if rec != nil {
		ctx, cancel := context.WithTimeout(context.Background(), tipsTimeout)
		tips = rec.Recommend(ctx, res.WPM, res.Accuracy, histogram)
		cancel()
	}
	return stats.RenderReport(w, res, histogram, tips, 80)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve typing sessions over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", config.DefaultServerAddr, "listen address")
	// Root test flags are local, so serve declares its own timing flags.
	cmd.Flags().IntVar(&testCountdown, "countdown", config.DefaultCountdown, "seconds counted down before typing starts")
	cmd.Flags().IntVar(&testDuration, "duration", config.DefaultDuration, "test length in seconds")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, logLevel)

	client := newModelClient(settings)
	src, err := newSentenceSource(settings, client, log)
	if err != nil {
		return err
	}
	rec, err := newRecommender(settings, client, log)
	if err != nil {
		return err
	}
	slot, err := openSlot(settings)
	if err != nil {
		return err
	}
	defer closeSlot(slot)

	manager := server.NewManager(func() *engine.Runner {
		return engine.NewRunner(src, newRunnerOptions(settings, log))
	})
	srv := server.New(manager, slot, rec, server.Options{Logger: log})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, serveAddr)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.Template()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func expandHome(path string) string {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
