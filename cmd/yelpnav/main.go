// Command yelpnav is an interactive chat client for the business navigator.
// It reads user messages from stdin, runs each one through the checkpointed
// agent graph and prints the reply. Conversations are resumable: pass -thread
// with a previous thread ID to continue where you left off.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kataras/golog"

	"github.com/smallnest/yelpnavigator/config"
	"github.com/smallnest/yelpnavigator/log"
	"github.com/smallnest/yelpnavigator/navigator"
	"github.com/smallnest/yelpnavigator/store"
	"github.com/smallnest/yelpnavigator/store/memory"
	"github.com/smallnest/yelpnavigator/store/postgres"
	"github.com/smallnest/yelpnavigator/store/redis"
	"github.com/smallnest/yelpnavigator/store/sqlite"
	"github.com/smallnest/yelpnavigator/tool"

	openaillm "github.com/smallnest/yelpnavigator/llms/openai"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	replyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

func main() {
	threadID := flag.String("thread", "", "thread ID to resume (empty starts a new conversation)")
	message := flag.String("message", "", "run a single message instead of the interactive loop")
	flag.Parse()

	if err := run(*threadID, *message); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func run(threadID, message string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	model, err := openaillm.New(
		openaillm.WithAPIKey(cfg.OpenAIAPIKey),
		openaillm.WithBaseURL(cfg.OpenAIBaseURL),
		openaillm.WithModel(cfg.Model),
	)
	if err != nil {
		return err
	}

	st, err := buildStore(cfg)
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: cfg.ToolTimeout}
	pipeline := navigator.NewPipeline(model, &navigator.Nodes{
		Search:    tool.NewSearchClient(cfg.ToolBaseURL, tool.WithSearchHTTPClient(httpClient)),
		Details:   tool.NewDetailsClient(cfg.ToolBaseURL, tool.WithDetailsHTTPClient(httpClient)),
		Sentiment: tool.NewSentimentClient(cfg.ToolBaseURL, tool.WithSentimentHTTPClient(httpClient)),
	})
	runnable, err := navigator.BuildV3(pipeline, st)
	if err != nil {
		return err
	}

	agent := navigator.NewAgent(runnable, threadID)
	ctx := context.Background()

	if message != "" {
		reply, err := agent.Chat(ctx, message)
		if err != nil {
			return err
		}
		fmt.Println(replyStyle.Render(reply))
		return nil
	}

	fmt.Println(faintStyle.Render("thread " + agent.ThreadID() + " (ctrl-d to quit)"))
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you> "))
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		reply, err := agent.Chat(ctx, input)
		if err != nil {
			fmt.Println(errStyle.Render("error: " + err.Error()))
			continue
		}
		fmt.Println(replyStyle.Render(reply))
	}
	return scanner.Err()
}

func buildStore(cfg *config.Config) (store.CheckpointStore, error) {
	switch cfg.StoreBackend {
	case config.StoreSqlite:
		return sqlite.NewSqliteCheckpointStore(sqlite.SqliteOptions{Path: cfg.SqlitePath})
	case config.StoreRedis:
		return redis.NewRedisCheckpointStore(redis.RedisOptions{
			Addr: cfg.RedisAddr,
			TTL:  cfg.RedisTTL,
		}), nil
	case config.StorePostgres:
		return postgres.NewPostgresCheckpointStore(context.Background(), postgres.PostgresOptions{
			ConnString: cfg.PostgresDSN,
		})
	default:
		return memory.NewMemoryCheckpointStore(), nil
	}
}

func setupLogging(level string) {
	logger := log.NewGologLogger(golog.New())
	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(log.LogLevelDebug)
	case "warn":
		logger.SetLevel(log.LogLevelWarn)
	case "error":
		logger.SetLevel(log.LogLevelError)
	default:
		logger.SetLevel(log.LogLevelInfo)
	}
	log.SetDefaultLogger(logger)
}
