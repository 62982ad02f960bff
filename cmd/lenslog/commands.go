package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/kalambet/lenslog/internal/analysis"
	"github.com/kalambet/lenslog/internal/api"
	"github.com/kalambet/lenslog/internal/config"
	"github.com/kalambet/lenslog/internal/tracker"
)

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse a meal or homework photo",
	Long: `Analyse a photo through the running gateway.

By default the result is recorded in the history. With --dry-run the photo is
only analysed and nothing is stored.

Examples:
  lenslog analyze food ./lunch.jpg
  lenslog analyze homework ./worksheet.png --dry-run`,
}

var analyzeFoodCmd = &cobra.Command{
	Use:   "food <image>",
	Short: "Estimate the macros of a meal photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, "food", args[0])
	},
}

var analyzeHomeworkCmd = &cobra.Command{
	Use:   "homework <image>",
	Short: "Assess a photo of math homework",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, "homework", args[0])
	},
}

func init() {
	for _, c := range []*cobra.Command{analyzeFoodCmd, analyzeHomeworkCmd} {
		c.Flags().Bool("dry-run", false, "analyse without recording the result")
		c.Flags().Bool("json", false, "print the raw JSON result")
		c.Flags().String("id", "", "id for the recorded entry (default: generated)")
		analyzeCmd.AddCommand(c)
	}
}

// readImage loads and base64-encodes an image file, rejecting files the
// gateway would refuse anyway.
func readImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image %s is empty", path)
	}
	if len(data) > analysis.MaxImageBytes {
		return "", fmt.Errorf("image %s is %d bytes; the limit is %d", path, len(data), analysis.MaxImageBytes)
	}
	return analysis.EncodeImage(data), nil
}

// analysisPath picks the record endpoint, or the relay endpoint for a dry run.
func analysisPath(kind string, dryRun bool) string {
	if dryRun {
		return "/analyze/" + kind
	}
	if kind == "food" {
		return "/food/entries"
	}
	return "/homework/assessments"
}

func runAnalyze(cmd *cobra.Command, kind, path string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	asJSON, _ := cmd.Flags().GetBool("json")
	id, _ := cmd.Flags().GetString("id")

	image, err := readImage(path)
	if err != nil {
		return err
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	req := api.AnalyzeRequest{Image: image}
	if !dryRun {
		req.ID = id
		if abs, err := filepath.Abs(path); err == nil {
			req.ImageURL = "file://" + abs
		}
	}

	printStep("Analysing %s...", filepath.Base(path))
	resp, err := client.post(cmd.Context(), analysisPath(kind, dryRun), req)
	if err != nil {
		return err
	}

	var raw json.RawMessage
	if err := decodeJSON(resp, &raw); err != nil {
		return err
	}
	if asJSON {
		return printJSON(raw)
	}

	var recorded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &recorded); err != nil {
		return err
	}

	if kind == "food" {
		var result analysis.FoodAnalysis
		if err := json.Unmarshal(raw, &result); err != nil {
			return err
		}
		writeFoodAnalysis(os.Stdout, result)
	} else {
		var result analysis.HomeworkAnalysis
		if err := json.Unmarshal(raw, &result); err != nil {
			return err
		}
		writeHomeworkAnalysis(os.Stdout, result)
	}

	if recorded.ID != "" {
		printSuccess("Recorded %s", recorded.ID)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFoodAnalysis(w io.Writer, f analysis.FoodAnalysis) {
	fmt.Fprintln(w, colorize(colorBold, f.Description))
	writeMacros(w, f.Macros)
}

func writeHomeworkAnalysis(w io.Writer, h analysis.HomeworkAnalysis) {
	verdict := colorize(colorRed, "needs work")
	if h.IsCorrect {
		verdict = colorize(colorGreen, "correct")
	}
	fmt.Fprintf(w, "%s (%s)\n", colorize(colorBold, h.Subject), verdict)
	fmt.Fprintf(w, "%s\n", h.Description)
	fmt.Fprintf(w, "  Completeness    %s\n", progressBar(h.Completeness, 100))
	fmt.Fprintf(w, "  Logic coherence %s\n", progressBar(h.LogicCoherence, 100))

	if len(h.Questions) > 0 {
		fmt.Fprintf(w, "\n%s (%d/%d correct)\n", colorize(colorBold, "Questions"), h.CorrectQuestions, h.TotalQuestions)
		for _, q := range h.Questions {
			mark := colorize(colorGreen, "✓")
			if !q.IsCorrect {
				mark = colorize(colorRed, "✗")
			}
			fmt.Fprintf(w, "  %d. %s %s  [%s, %s]\n", q.QuestionNumber, mark, q.QuestionText, q.KnowledgeArea, q.Difficulty)
			fmt.Fprintf(w, "     answer: %s\n", q.StudentAnswer)
			if q.CorrectAnswer != nil && !q.IsCorrect {
				fmt.Fprintf(w, "     correct: %s\n", *q.CorrectAnswer)
			}
			if q.Explanation != nil {
				fmt.Fprintf(w, "     %s\n", *q.Explanation)
			}
		}
	}

	writeList(w, "Strengths", h.Strengths)
	writeList(w, "Weak points", h.WeakPoints)
	if h.ErrorAnalysis != "" {
		fmt.Fprintf(w, "\n%s\n  %s\n", colorize(colorBold, "Error analysis"), h.ErrorAnalysis)
	}
	if h.SolutionApproach != "" {
		fmt.Fprintf(w, "\n%s\n  %s\n", colorize(colorBold, "Solution approach"), h.SolutionApproach)
	}
	fmt.Fprintf(w, "\n%s\n", colorize(colorBold, "Knowledge areas"))
	writeKnowledgeAreas(w, h.KnowledgeAreas)
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", colorize(colorBold, title))
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}

// --- food ---

var foodCmd = &cobra.Command{
	Use:   "food",
	Short: "Food history, daily totals and macro goals",
}

var foodEntriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List recorded meals",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var entries []tracker.FoodEntry
		if err := client.getJSON(cmd.Context(), listPath(cmd, "/food/entries"), &entries); err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No food entries found.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %s  %5d kcal  %s\n",
				colorize(colorCyan, shortID(e.ID)),
				e.Timestamp.Local().Format("2006-01-02 15:04"),
				e.Macros.Calories,
				e.Description,
			)
		}
		return nil
	},
}

var foodSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show macro totals for the last 24 hours",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var s api.FoodSummary
		if err := client.getJSON(cmd.Context(), "/food/summary", &s); err != nil {
			return err
		}
		writeFoodSummary(os.Stdout, s.Totals, s.Remaining, s.Goals, s.EntryCount)
		return nil
	},
}

var foodGoalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Show or change daily macro goals",
}

var foodGoalsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show daily macro goals as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showGoals(cmd.Context(), "/food/goals")
	},
}

var foodGoalsSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Set one goal (calories, protein, fat, carbs)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if _, err := setGoalField(cmd.Context(), client, "/food/goals", args[0], args[1]); err != nil {
			return err
		}
		printSuccess("Set %s = %s", args[0], args[1])
		return nil
	},
}

var foodGoalsPresetCmd = &cobra.Command{
	Use:   "preset [name]",
	Short: "List goal presets, or apply one by name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var presets []tracker.GoalPreset
		if err := client.getJSON(cmd.Context(), "/food/goals/presets", &presets); err != nil {
			return err
		}

		if len(args) == 0 {
			for _, p := range presets {
				fmt.Printf("%-12s %4d kcal  P %3dg  F %3dg  C %3dg  %s\n",
					colorize(colorBold, p.Name), p.Goals.Calories, p.Goals.Protein, p.Goals.Fat, p.Goals.Carbs,
					colorize(colorDim, p.Description))
			}
			return nil
		}

		preset, ok := findPreset(presets, args[0])
		if !ok {
			names := lo.Map(presets, func(p tracker.GoalPreset, _ int) string { return p.Name })
			return fmt.Errorf("unknown preset %q (available: %s)", args[0], strings.Join(names, ", "))
		}
		resp, err := client.put(cmd.Context(), "/food/goals", preset.Goals)
		if err != nil {
			return err
		}
		var saved tracker.DailyGoals
		if err := decodeJSON(resp, &saved); err != nil {
			return err
		}
		printSuccess("Applied preset %s", preset.Name)
		return nil
	},
}

// findPreset matches a preset name case-insensitively, ignoring spaces and dashes.
func findPreset(presets []tracker.GoalPreset, name string) (tracker.GoalPreset, bool) {
	norm := func(s string) string {
		return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
	}
	return lo.Find(presets, func(p tracker.GoalPreset) bool { return norm(p.Name) == norm(name) })
}

var foodCalendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show which days met the macro goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var cal tracker.FoodCalendar
		if err := client.getJSON(cmd.Context(), calendarPath(cmd, "/food/calendar"), &cal); err != nil {
			return err
		}
		cells := lo.Map(cal.Days, func(d tracker.FoodDay, _ int) calendarCell {
			return calendarCell{Date: d.Date, InMonth: d.InMonth, Status: d.Status}
		})
		writeCalendar(os.Stdout, cal.Year, cal.Month, cells, cal.Summary)
		return nil
	},
}

func init() {
	addListFlags(foodEntriesCmd)
	addCalendarFlags(foodCalendarCmd)

	foodGoalsCmd.AddCommand(foodGoalsShowCmd)
	foodGoalsCmd.AddCommand(foodGoalsSetCmd)
	foodGoalsCmd.AddCommand(foodGoalsPresetCmd)

	foodCmd.AddCommand(foodEntriesCmd)
	foodCmd.AddCommand(foodSummaryCmd)
	foodCmd.AddCommand(foodGoalsCmd)
	foodCmd.AddCommand(foodCalendarCmd)
}

// --- homework ---

var homeworkCmd = &cobra.Command{
	Use:   "homework",
	Short: "Homework history, progress and learning goals",
}

var homeworkAssessmentsCmd = &cobra.Command{
	Use:   "assessments",
	Short: "List recorded homework assessments",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var list []tracker.AssessmentResult
		if err := client.getJSON(cmd.Context(), listPath(cmd, "/homework/assessments"), &list); err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No assessments found.")
			return nil
		}
		for _, a := range list {
			mark := colorize(colorGreen, "✓")
			if !a.IsCorrect {
				mark = colorize(colorRed, "✗")
			}
			fmt.Printf("%s  %s  %s  %-10s %s\n",
				colorize(colorCyan, shortID(a.ID)),
				a.Timestamp.Local().Format("2006-01-02 15:04"),
				mark,
				a.Subject,
				a.Description,
			)
		}
		return nil
	},
}

var homeworkProgressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show accuracy and knowledge areas for the last 24 hours",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var report api.ProgressReport
		if err := client.getJSON(cmd.Context(), "/homework/progress", &report); err != nil {
			return err
		}
		writeProgress(os.Stdout, report.Progress, report.Goals)
		return nil
	},
}

func writeProgress(w io.Writer, p tracker.StudentProgress, goals tracker.LearningGoals) {
	fmt.Fprintf(w, "%s (last 24 hours)\n", colorize(colorBold, "Progress"))
	fmt.Fprintf(w, "  Problems  %d / %d daily goal\n", p.TotalProblems, goals.DailyProblems)
	fmt.Fprintf(w, "  Correct   %d\n", p.CorrectProblems)
	fmt.Fprintf(w, "  Accuracy  %s (target %d%%)\n", progressBar(p.Accuracy, 100), goals.TargetAccuracy)
	fmt.Fprintf(w, "  Trend     %s\n", p.ImprovementTrend)
	fmt.Fprintf(w, "\n%s\n", colorize(colorBold, "Knowledge areas"))
	writeKnowledgeAreas(w, p.KnowledgeAreas)
}

var homeworkGoalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Show or change learning goals",
}

var homeworkGoalsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show learning goals as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showGoals(cmd.Context(), "/homework/goals")
	},
}

var homeworkGoalsSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Set one learning goal",
	Long: `Set one learning goal.

Examples:
  lenslog homework goals set dailyProblems 10
  lenslog homework goals set targetAccuracy 85
  lenslog homework goals set weeklyGoals.fractions 75
  lenslog homework goals set focusAreas "Fractions, Geometry"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if _, err := setGoalField(cmd.Context(), client, "/homework/goals", args[0], args[1]); err != nil {
			return err
		}
		printSuccess("Set %s = %s", args[0], args[1])
		return nil
	},
}

var homeworkCalendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show which days met the learning goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var cal tracker.LearningCalendar
		if err := client.getJSON(cmd.Context(), calendarPath(cmd, "/homework/calendar"), &cal); err != nil {
			return err
		}
		cells := lo.Map(cal.Days, func(d tracker.LearningDay, _ int) calendarCell {
			return calendarCell{Date: d.Date, InMonth: d.InMonth, Status: d.Status}
		})
		writeCalendar(os.Stdout, cal.Year, cal.Month, cells, cal.Summary)
		fmt.Printf("%d of %d problems correct (%d%%)\n", cal.TotalCorrect, cal.TotalProblems, cal.OverallAccuracy)
		return nil
	},
}

func init() {
	addListFlags(homeworkAssessmentsCmd)
	addCalendarFlags(homeworkCalendarCmd)

	homeworkGoalsCmd.AddCommand(homeworkGoalsShowCmd)
	homeworkGoalsCmd.AddCommand(homeworkGoalsSetCmd)

	homeworkCmd.AddCommand(homeworkAssessmentsCmd)
	homeworkCmd.AddCommand(homeworkProgressCmd)
	homeworkCmd.AddCommand(homeworkGoalsCmd)
	homeworkCmd.AddCommand(homeworkCalendarCmd)
}

// --- shared helpers ---

func addListFlags(c *cobra.Command) {
	c.Flags().Bool("all", false, "list the whole history instead of the last 24 hours")
	c.Flags().Int("limit", 20, "maximum number of records to list")
}

func listPath(cmd *cobra.Command, base string) string {
	all, _ := cmd.Flags().GetBool("all")
	limit, _ := cmd.Flags().GetInt("limit")
	window := "24h"
	if all {
		window = "all"
	}
	return fmt.Sprintf("%s?window=%s&limit=%d", base, window, limit)
}

func addCalendarFlags(c *cobra.Command) {
	c.Flags().Int("year", 0, "year (default: current)")
	c.Flags().Int("month", 0, "month 1-12 (default: current)")
	c.Flags().String("tz", "", "IANA time zone for day boundaries (default: gateway local)")
}

func calendarPath(cmd *cobra.Command, base string) string {
	year, _ := cmd.Flags().GetInt("year")
	month, _ := cmd.Flags().GetInt("month")
	tz, _ := cmd.Flags().GetString("tz")
	return calendarQuery(base, year, month, tz)
}

func calendarQuery(base string, year, month int, tz string) string {
	q := url.Values{}
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}
	if month > 0 {
		q.Set("month", strconv.Itoa(month))
	}
	if tz != "" {
		q.Set("tz", tz)
	}
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func showGoals(ctx context.Context, path string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	var goals any
	if err := client.getJSON(ctx, path, &goals); err != nil {
		return err
	}
	return printJSON(goals)
}

// setGoalField fetches the goals at path, changes one field, and writes the
// whole document back.
func setGoalField(ctx context.Context, client *apiClient, path, field, value string) (map[string]any, error) {
	var goals map[string]any
	if err := client.getJSON(ctx, path, &goals); err != nil {
		return nil, err
	}
	if err := applyGoalField(goals, field, value); err != nil {
		return nil, err
	}
	resp, err := client.put(ctx, path, goals)
	if err != nil {
		return nil, err
	}
	var saved map[string]any
	if err := decodeJSON(resp, &saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// applyGoalField sets a dotted field in a decoded goals document. List fields
// take a comma-separated value; every other field takes a non-negative integer.
func applyGoalField(goals map[string]any, field, value string) error {
	parts := strings.Split(field, ".")
	m := goals
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			return unknownGoalField(goals, field)
		}
		m = next
	}

	key := parts[len(parts)-1]
	cur, ok := m[key]
	if !ok {
		return unknownGoalField(goals, field)
	}

	switch cur.(type) {
	case []any:
		items := []any{}
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		m[key] = items
	case map[string]any:
		return fmt.Errorf("goal %q is a group; set one of its fields: %s", field, strings.Join(goalFields(cur.(map[string]any), field+"."), ", "))
	default:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid value %q for %s: want a non-negative integer", value, field)
		}
		m[key] = n
	}
	return nil
}

func unknownGoalField(goals map[string]any, field string) error {
	return fmt.Errorf("unknown goal field %q (valid: %s)", field, strings.Join(goalFields(goals, ""), ", "))
}

// goalFields lists the settable leaf fields of a goals document in dotted form.
func goalFields(m map[string]any, prefix string) []string {
	var out []string
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if sub, ok := m[k].(map[string]any); ok {
			out = append(out, goalFields(sub, prefix+k+".")...)
			continue
		}
		out = append(out, prefix+k)
	}
	return out
}

// --- data ---

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Export stored data",
}

const exportPageSize = 100

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all food entries and assessments as JSONL",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var writer *os.File
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			writer = f
		} else {
			writer = os.Stdout
		}

		counts, err := exportData(cmd.Context(), client, writer)
		if err != nil {
			return err
		}

		if output != "" {
			printSuccess("Exported %d food entries and %d assessments to %s", counts["food_entry"], counts["assessment"], output)
		}
		return nil
	},
}

// exportData writes every stored record as one {"type", "data"} JSON line and
// returns the number written per type.
func exportData(ctx context.Context, client *apiClient, w io.Writer) (map[string]int, error) {
	enc := json.NewEncoder(w)
	counts := map[string]int{}

	sources := []struct{ typ, path string }{
		{"food_entry", "/food/entries"},
		{"assessment", "/homework/assessments"},
	}
	for _, src := range sources {
		offset := 0
		for {
			var records []json.RawMessage
			path := fmt.Sprintf("%s?window=all&limit=%d&offset=%d", src.path, exportPageSize, offset)
			if err := client.getJSON(ctx, path, &records); err != nil {
				return counts, err
			}
			if len(records) == 0 {
				break
			}
			for _, rec := range records {
				if err := enc.Encode(map[string]any{"type": src.typ, "data": rec}); err != nil {
					return counts, fmt.Errorf("writing export: %w", err)
				}
			}
			counts[src.typ] += len(records)
			offset += len(records)
		}
	}
	return counts, nil
}

func init() {
	dataExportCmd.Flags().String("output", "", "output file path (default: stdout)")
	dataCmd.AddCommand(dataExportCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value in the config file.\n\nValid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configSetSecretCmd = &cobra.Command{
	Use:   "set-secret <key> [value]",
	Short: "Store a secret such as vision.api_key",
	Long: "Store a secret in the lenslog secrets file. When value is omitted it is read\n" +
		"from standard input, which keeps it out of the shell history.\n\nSecret keys: " +
		strings.Join(config.SecretKeys(), ", "),
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			v, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}
			value = v
		}
		if value == "" {
			return errors.New("secret value must not be empty")
		}

		if err := config.SetSecret(config.NewKeychain(), key, value); err != nil {
			return err
		}
		printSuccess("Stored %s", key)
		return nil
	},
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetSecretCmd)
}
