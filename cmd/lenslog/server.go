package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/lenslog/internal/analysis"
	"github.com/kalambet/lenslog/internal/api"
	"github.com/kalambet/lenslog/internal/config"
	"github.com/kalambet/lenslog/internal/storage"
	"github.com/kalambet/lenslog/internal/vision"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the lenslog gateway (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running lenslog gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show lenslog gateway status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "lenslog.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func visionProviderConfig(cfg config.Config) vision.ProviderConfig {
	return vision.ProviderConfig{
		Provider: cfg.Vision.Provider,
		BaseURL:  cfg.Vision.BaseURL,
		APIKey:   cfg.Vision.APIKey,
		Timeout:  cfg.Vision.TimeoutDuration(),
	}
}

func analysisOptions(cfg config.Config) analysis.Options {
	return analysis.Options{
		FoodModel:         cfg.Vision.FoodModel,
		HomeworkModel:     cfg.Vision.HomeworkModel,
		FoodMaxTokens:     cfg.Vision.FoodMaxTokens,
		HomeworkMaxTokens: cfg.Vision.HomeworkMaxTokens,
		Temperature:       cfg.Vision.Temperature,
		Language:          cfg.Analysis.Language,
	}
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "lenslog version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)})))

	// Ensure the gateway token exists before any client needs it.
	apiToken, err := config.GetAPIToken(config.NewKeychain())
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("lenslog is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("lenslog is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	completer, err := vision.New(visionProviderConfig(cfg))
	if err != nil {
		return fmt.Errorf("configuring vision provider: %w", err)
	}
	switch c := completer.(type) {
	case *vision.OllamaClient:
		if !c.IsRunning(ctx) {
			printWarning("Ollama is not reachable; analyses will fail until it is started")
		}
	default:
		if cfg.Vision.APIKey == "" {
			printWarning("vision.api_key is not set; analyses will report a configuration error")
			printWarning("Set LENSLOG_VISION_API_KEY or run: lenslog config set-secret vision.api_key <key>")
		}
	}
	analyzer := analysis.New(completer, analysisOptions(cfg))

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	svc := api.NewService(store, analyzer, nil)
	handler := api.NewHandler(api.Deps{
		Service:     svc,
		Token:       apiToken,
		CORSOrigins: cfg.Server.CORSOriginList(),
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	if cfg.Server.MCPEnabled {
		stdioSrv := server.NewStdioServer(api.NewMCPServer(svc))
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("lenslog listening", "addr", addr, "provider", cfg.Vision.Provider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("lenslog is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop lenslog (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to lenslog (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	running := false
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Gateway", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Gateway", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Gateway", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Provider", "%s", cfg.Vision.Provider)
	if cfg.Vision.Provider == vision.ProviderOllama {
		ollama := vision.NewOllamaClient(cfg.Vision.BaseURL, 0)
		if ollama.IsRunning(context.Background()) {
			printStatus("Ollama", "running")
		} else {
			printStatus("Ollama", "not running")
		}
	} else if cfg.Vision.APIKey == "" {
		printStatus("API key", "%s", colorize(colorYellow, "not set"))
	} else {
		printStatus("API key", "set")
	}
	printStatus("Food model", "%s", cfg.Vision.FoodModel)
	printStatus("Homework model", "%s", cfg.Vision.HomeworkModel)

	apiToken, tokenErr := config.LookupAPIToken(config.NewKeychain())
	if tokenErr == nil && running {
		if n, ok := countRecords(client, serverURL+"/food/entries?window=all&limit=100", apiToken); ok {
			printStatus("Food entries", "%s", countLabel(n, 100))
		}
		if n, ok := countRecords(client, serverURL+"/homework/assessments?window=all&limit=100", apiToken); ok {
			printStatus("Assessments", "%s", countLabel(n, 100))
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func countRecords(client *http.Client, url, token string) (int, bool) {
	resp, err := apiGet(client, url, token)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()
	var records []json.RawMessage
	if resp.StatusCode != http.StatusOK || json.NewDecoder(resp.Body).Decode(&records) != nil {
		return 0, false
	}
	return len(records), true
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}

func apiGet(client *http.Client, url, token string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return client.Do(req)
}
