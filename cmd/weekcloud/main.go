// Package main provides the CLI entrypoint for weekcloud.
package main

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/weekcloud/internal/cloudui"
	"github.com/verte-zerg/weekcloud/internal/config"
	"github.com/verte-zerg/weekcloud/internal/dataset"
	"github.com/verte-zerg/weekcloud/internal/engagement"
	"github.com/verte-zerg/weekcloud/internal/layout"
	"github.com/verte-zerg/weekcloud/internal/model"
	"github.com/verte-zerg/weekcloud/internal/pipeline"
	"github.com/verte-zerg/weekcloud/internal/render"
	"github.com/verte-zerg/weekcloud/internal/stats"
	"github.com/verte-zerg/weekcloud/internal/store"
	"github.com/verte-zerg/weekcloud/internal/textnorm"
	"github.com/verte-zerg/weekcloud/internal/week"
)

const (
	defaultLang       = "en"
	defaultWidth      = 800
	defaultHeight     = 400
	defaultBackground = "white"
	defaultTopTerms   = 10
	defaultChartWidth = 48
	dateLayout        = "2006-01-02"
)

var (
	textLang          string
	textMinToken      int
	textStopwords     []string
	textStopwordsFile string

	cloudWidth            int
	cloudHeight           int
	cloudMinFont          int
	cloudMaxFont          int
	cloudFontStep         int
	cloudMaxWords         int
	cloudScaling          string
	cloudMargin           int
	cloudPreferHorizontal float64
	cloudRandomStart      bool
	cloudSeed             int64
	cloudBackground       string
	cloudFont             string

	dbPath     string
	debug      bool
	browseDate string

	cloudDate       string
	cloudOut        string
	cloudPlacements string
	cloudPreview    bool
	cloudTop        int

	dashboardFrame string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "weekcloud",
		Short:         "Weekly word clouds of review text",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runBrowseCmd,
	}

	defaults := layout.DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&textLang, "lang", defaultLang, "stopword language (en or none)")
	flags.IntVar(&textMinToken, "min-token", textnorm.DefaultMinTokenLength, "minimum token length in runes")
	flags.StringSliceVar(&textStopwords, "stopword", nil, "extra stopwords (repeatable)")
	flags.StringVar(&textStopwordsFile, "stopwords-file", "", "file with extra stopwords, one per line")
	flags.IntVar(&cloudWidth, "width", defaultWidth, "canvas width in pixels")
	flags.IntVar(&cloudHeight, "height", defaultHeight, "canvas height in pixels")
	flags.IntVar(&cloudMinFont, "min-font", defaults.MinFontSize, "minimum font size")
	flags.IntVar(&cloudMaxFont, "max-font", defaults.MaxFontSize, "maximum font size (0: half the canvas height)")
	flags.IntVar(&cloudFontStep, "font-step", defaults.FontStep, "font size decrement when a term does not fit")
	flags.IntVar(&cloudMaxWords, "max-words", defaults.MaxWords, "maximum number of terms (0: no limit)")
	flags.StringVar(&cloudScaling, "scaling", defaults.Scaling, "font scaling: linear, sqrt or log")
	flags.IntVar(&cloudMargin, "margin", defaults.Margin, "pixels kept free around each term")
	flags.Float64Var(&cloudPreferHorizontal, "prefer-horizontal", defaults.PreferHorizontal, "share of horizontal terms (0-1)")
	flags.BoolVar(&cloudRandomStart, "random-start", defaults.RandomStart, "start each spiral at a seeded random point")
	flags.Int64Var(&cloudSeed, "seed", defaults.Seed, "seed for rotation and start points")
	flags.StringVar(&cloudBackground, "background", defaultBackground, "background color (name or #rrggbb)")
	flags.StringVar(&cloudFont, "font", "", "TrueType font file (default: embedded Go Regular)")
	flags.StringVar(&dbPath, "db", "", "database path (default: XDG data dir)")
	flags.BoolVar(&debug, "debug", false, "log pipeline diagnostics to stderr")

	rootCmd.Flags().StringVar(&browseDate, "date", "", "initially selected date (YYYY-MM-DD)")

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newCloudCmd())
	rootCmd.AddCommand(newWeeksCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

type settings struct {
	text  model.TextConfig
	cloud model.CloudConfig
	db    string
}

// loadSettings merges the config file into flags that were not set explicitly.
func loadSettings(cmd *cobra.Command) (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "lang", &textLang, fileCfg.Text.Lang)
	applyIntConfig(cmd, "min-token", &textMinToken, fileCfg.Text.MinToken)
	applyStringSliceConfig(cmd, "stopword", &textStopwords, fileCfg.Text.Stopwords)
	applyStringConfig(cmd, "stopwords-file", &textStopwordsFile, fileCfg.Text.StopwordsFile)
	applyIntConfig(cmd, "width", &cloudWidth, fileCfg.Cloud.Width)
	applyIntConfig(cmd, "height", &cloudHeight, fileCfg.Cloud.Height)
	applyIntConfig(cmd, "min-font", &cloudMinFont, fileCfg.Cloud.MinFont)
	applyIntConfig(cmd, "max-font", &cloudMaxFont, fileCfg.Cloud.MaxFont)
	applyIntConfig(cmd, "font-step", &cloudFontStep, fileCfg.Cloud.FontStep)
	applyIntConfig(cmd, "max-words", &cloudMaxWords, fileCfg.Cloud.MaxWords)
	applyStringConfig(cmd, "scaling", &cloudScaling, fileCfg.Cloud.Scaling)
	applyIntConfig(cmd, "margin", &cloudMargin, fileCfg.Cloud.Margin)
	applyFloatConfig(cmd, "prefer-horizontal", &cloudPreferHorizontal, fileCfg.Cloud.PreferHorizontal)
	applyBoolConfig(cmd, "random-start", &cloudRandomStart, fileCfg.Cloud.RandomStart)
	applyInt64Config(cmd, "seed", &cloudSeed, fileCfg.Cloud.Seed)
	applyStringConfig(cmd, "background", &cloudBackground, fileCfg.Cloud.Background)
	applyStringConfig(cmd, "font", &cloudFont, fileCfg.Cloud.Font)
	applyStringConfig(cmd, "db", &dbPath, fileCfg.Data.DB)

	s := settings{
		text: model.TextConfig{
			Lang:          textLang,
			MinToken:      textMinToken,
			Stopwords:     textStopwords,
			StopwordsFile: textStopwordsFile,
		},
		cloud: model.CloudConfig{
			Width:            cloudWidth,
			Height:           cloudHeight,
			MinFont:          cloudMinFont,
			MaxFont:          cloudMaxFont,
			FontStep:         cloudFontStep,
			MaxWords:         cloudMaxWords,
			Scaling:          cloudScaling,
			Margin:           cloudMargin,
			PreferHorizontal: cloudPreferHorizontal,
			RandomStart:      cloudRandomStart,
			Seed:             cloudSeed,
			Background:       cloudBackground,
			FontPath:         cloudFont,
		},
		db: dbPath,
	}
	if s.db == "" {
		s.db = config.DefaultDBPath()
	}
	if err := validateSettings(s); err != nil {
		return settings{}, err
	}
	return s, nil
}

func validateSettings(s settings) error {
	if s.text.MinToken < 1 {
		return fmt.Errorf("--min-token must be >= 1")
	}
	if s.cloud.Width <= 0 || s.cloud.Height <= 0 {
		return fmt.Errorf("--width and --height must be > 0")
	}
	if s.cloud.PreferHorizontal < 0 || s.cloud.PreferHorizontal > 1 {
		return fmt.Errorf("--prefer-horizontal must be between 0 and 1")
	}
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openStore(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// engine bundles a pipeline with the resources it holds open.
type engine struct {
	pipeline   *pipeline.Pipeline
	fonts      *render.FontSet
	background color.RGBA
}

func (e *engine) Close() {
	if cerr := e.fonts.Close(); cerr != nil {
		// Best-effort release of font faces.
		_ = cerr
	}
}

func buildEngine(s settings, st *store.Store, logger *slog.Logger) (*engine, error) {
	norm, err := textnorm.New(textnorm.Options{
		Language:        s.text.Lang,
		MinTokenLength:  s.text.MinToken,
		CustomStopwords: s.text.Stopwords,
		StopwordsFile:   s.text.StopwordsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid text settings: %w", err)
	}
	bg, err := render.ParseColor(s.cloud.Background)
	if err != nil {
		return nil, fmt.Errorf("invalid --background: %w", err)
	}
	fonts, err := render.LoadFont(s.cloud.FontPath)
	if err != nil {
		return nil, err
	}
	cfg := layout.Config{
		MinFontSize:      s.cloud.MinFont,
		MaxFontSize:      s.cloud.MaxFont,
		FontStep:         s.cloud.FontStep,
		MaxWords:         s.cloud.MaxWords,
		Scaling:          s.cloud.Scaling,
		Margin:           s.cloud.Margin,
		PreferHorizontal: s.cloud.PreferHorizontal,
		RandomStart:      s.cloud.RandomStart,
		Seed:             s.cloud.Seed,
		SpiralStep:       layout.DefaultConfig().SpiralStep,
	}
	renderer := render.NewRenderer(fonts)
	renderer.Background = bg
	p, err := pipeline.New(norm, layout.NewEngine(cfg, fonts), renderer, pipeline.Options{
		Canvas:   layout.Canvas{Width: s.cloud.Width, Height: s.cloud.Height},
		Bucketer: week.NewBucketer(),
		Store:    st,
		Logger:   logger,
	})
	if err != nil {
		_ = fonts.Close()
		return nil, err
	}
	return &engine{pipeline: p, fonts: fonts, background: bg}, nil
}

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s value (expected YYYY-MM-DD): %w", flag, err)
	}
	return t, nil
}

func runBrowseCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	var start time.Time
	if browseDate != "" {
		if start, err = parseDate("date", browseDate); err != nil {
			return err
		}
	}
	st, err := openStore(s.db)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := commandContext(cmd)
	ds, err := stats.LoadDataset(ctx, st)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	// The UI owns the terminal; diagnostics would corrupt it.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := buildEngine(s, st, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	runner := pipeline.NewRunner(eng.pipeline)
	m := cloudui.NewModel(ctx, runner, ds, cloudui.Options{Background: eng.background, Start: start})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import CSV datasets, or list past imports",
		Args:  cobra.NoArgs,
		RunE:  runImportListCmd,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reviews <file.csv>",
		Short: "Replace the review dataset (columns: at, content, score)",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportReviewsCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "posts <file.csv>",
		Short: "Replace the social post dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportPostsCmd,
	})
	return cmd
}

func runImportReviewsCmd(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	records, err := dataset.LoadReviews(args[0])
	if err != nil {
		return fmt.Errorf("failed to read reviews: %w", err)
	}
	st, err := openStore(s.db)
	if err != nil {
		return err
	}
	defer closeStore(st)
	if err := st.ReplaceReviews(commandContext(cmd), records, args[0]); err != nil {
		return fmt.Errorf("failed to import reviews: %w", err)
	}
	logErrf("Imported %d reviews from %s\n", len(records), args[0])
	return nil
}

func runImportPostsCmd(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	posts, err := dataset.LoadPosts(args[0])
	if err != nil {
		return fmt.Errorf("failed to read posts: %w", err)
	}
	st, err := openStore(s.db)
	if err != nil {
		return err
	}
	defer closeStore(st)
	if err := st.ReplacePosts(commandContext(cmd), posts, args[0]); err != nil {
		return fmt.Errorf("failed to import posts: %w", err)
	}
	logErrf("Imported %d posts from %s\n", len(posts), args[0])
	return nil
}

func runImportListCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(s.db)
	if err != nil {
		return err
	}
	defer closeStore(st)
	imports, err := st.ListImports(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list imports: %w", err)
	}
	if len(imports) == 0 {
		logErrln("No imports yet. Run: weekcloud import reviews <file.csv>")
		return nil
	}
	return stats.RenderImports(cmd.OutOrStdout(), imports)
}

func newCloudCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cloud",
		Short: "Render the word cloud of one week",
		Args:  cobra.NoArgs,
		RunE:  runCloudCmd,
	}
	cmd.Flags().StringVar(&cloudDate, "date", "", "any date inside the week (YYYY-MM-DD)")
	cmd.Flags().StringVar(&cloudOut, "out", "", "PNG output path (default: <data dir>/clouds/<week>.png)")
	cmd.Flags().StringVar(&cloudPlacements, "placements", "", "write placements as YAML to this path")
	cmd.Flags().BoolVar(&cloudPreview, "preview", false, "print a braille preview to stdout")
	cmd.Flags().IntVar(&cloudTop, "top", defaultTopTerms, "number of top terms to list")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func runCloudCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	date, err := parseDate("date", cloudDate)
	if err != nil {
		return err
	}
	st, err := openStore(s.db)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := commandContext(cmd)
	ds, err := stats.LoadDataset(ctx, st)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	eng, err := buildEngine(s, st, newLogger())
	if err != nil {
		return err
	}
	defer eng.Close()

	res, err := eng.pipeline.Run(ctx, ds, date)
	if err != nil {
		return fmt.Errorf("failed to build cloud: %w", err)
	}

	out := cloudOut
	if out == "" {
		out = filepath.Join(config.DefaultOutputDir(), res.Window.Key()+".png")
	}
	if err := writePNG(out, res); err != nil {
		return err
	}
	logErrf("Wrote %s\n", out)
	if cloudPlacements != "" {
		if err := writePlacements(cloudPlacements, res, eng.pipeline.Canvas()); err != nil {
			return err
		}
		logErrf("Wrote %s\n", cloudPlacements)
	}
	if cloudPreview {
		if err := render.Preview(cmd.OutOrStdout(), res.Image, 0, 0, eng.background, false); err != nil {
			return fmt.Errorf("failed to write preview: %w", err)
		}
	}
	return stats.RenderWindow(cmd.OutOrStdout(), res, cloudTop)
}

func writePNG(path string, res pipeline.Result) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if err := render.EncodePNG(f, res.Image); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

type placementsFile struct {
	Week       string             `yaml:"week"`
	Range      string             `yaml:"range"`
	Width      int                `yaml:"width"`
	Height     int                `yaml:"height"`
	Reviews    int                `yaml:"reviews"`
	MeanScore  float64            `yaml:"mean_score"`
	Placements []layout.Placement `yaml:"placements"`
	Dropped    []string           `yaml:"dropped,omitempty"`
	Truncated  int                `yaml:"truncated,omitempty"`
}

func writePlacements(path string, res pipeline.Result, canvas layout.Canvas) error {
	doc := placementsFile{
		Week:       res.Window.Key(),
		Range:      res.Window.String(),
		Width:      canvas.Width,
		Height:     canvas.Height,
		Reviews:    res.Stats.Count,
		MeanScore:  res.Stats.MeanScore,
		Placements: res.Placements,
		Dropped:    res.Dropped,
		Truncated:  res.Truncated,
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode placements: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create placements directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write placements: %w", err)
	}
	return nil
}

func newWeeksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weeks",
		Short: "List weeks with reviews",
		Args:  cobra.NoArgs,
		RunE:  runWeeksCmd,
	}
}

func runWeeksCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(s.db)
	if err != nil {
		return err
	}
	defer closeStore(st)
	ds, err := stats.LoadDataset(commandContext(cmd), st)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	return stats.RenderWeeks(cmd.OutOrStdout(), stats.BuildWeeks(ds, week.NewBucketer()))
}

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show social post engagement",
		Args:  cobra.NoArgs,
		RunE:  runDashboardCmd,
	}
	cmd.Flags().StringVar(&dashboardFrame, "frame", string(engagement.FrameAll), "time frame: all, week or month")
	return cmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	frame, err := engagement.ParseFrame(dashboardFrame)
	if err != nil {
		return fmt.Errorf("invalid --frame: %w", err)
	}
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(s.db)
	if err != nil {
		return err
	}
	defer closeStore(st)
	ds, err := stats.LoadDataset(commandContext(cmd), st)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	summary := stats.BuildDashboard(ds, frame)
	if summary.Totals.Posts == 0 {
		logErrln("No posts imported. Run: weekcloud import posts <file.csv>")
		return nil
	}
	useColor := render.ShouldUseColor(cmd.OutOrStdout(), false)
	return stats.RenderDashboard(cmd.OutOrStdout(), summary, defaultChartWidth, useColor)
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
		if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
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

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
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

func applyStringSliceConfig(cmd *cobra.Command, name string, target *[]string, value []string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), value...)
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

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
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

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
