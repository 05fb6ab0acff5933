// cmd/homework-stub/main.go
//
// homework-stub serves the /exec protocol from memory so the client's HTTP
// path can be tried without a deployed backend:
//
//	homework-stub -seed reviews.yaml &
//	HOMEWORK_BACKEND_URL=http://127.0.0.1:8787/exec homework

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/max00189xp/homework/internal/config"
	"github.com/max00189xp/homework/internal/feedback"
	"github.com/max00189xp/homework/internal/logging"
	"github.com/max00189xp/homework/internal/stubserver"
)

func main() {
	projectDir := flag.String("project", "", "directory holding .homework/ (defaults to cwd)")
	seedPath := flag.String("seed", "", "YAML file with reviews to serve")
	host := flag.String("host", "", "bind host (overrides stub.host)")
	port := flag.Int("port", 0, "bind port (overrides stub.port)")
	latency := flag.Duration("latency", 0, "delay added to every /exec response")
	flag.Parse()

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	absoluteProject, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	cfg, err := config.NewConfig(absoluteProject)
	if err != nil {
		die("load config: %v", err)
	}

	settings := stubserver.SettingsFromConfig(cfg)
	if h := strings.TrimSpace(*host); h != "" {
		settings.Host = h
	}
	if *port > 0 {
		settings.Port = *port
	}
	settings.Latency = *latency

	reviews, err := loadReviews(*seedPath)
	if err != nil {
		die("load reviews: %v", err)
	}
	store := stubserver.NewStore(reviews...)

	logger := logging.NewWriter(os.Stderr)
	srv := stubserver.NewServer(settings,
		stubserver.WithStore(store),
		stubserver.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Start(ctx); err != nil {
		die("start stub: %v", err)
	}
	fmt.Printf("Serving %d review(s). Point the client at:\n  HOMEWORK_BACKEND_URL=%s\n", len(reviews), srv.ExecURL())

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		die("shutdown: %v", err)
	}
	fmt.Printf("Received %d submission(s).\n", len(store.Submissions()))
}

// loadReviews reads the seed file, or serves the offline sample review when
// none is given so the stub answers the same names as the built-in mock.
func loadReviews(path string) ([]stubserver.Review, error) {
	if strings.TrimSpace(path) != "" {
		return stubserver.LoadSeedFile(path)
	}
	mock := feedback.NewMockTransport(feedback.WithDelay(0))
	resp, err := mock.Call(context.Background(), feedback.QueryRequest(feedback.SentinelName))
	if err != nil {
		return nil, err
	}
	return []stubserver.Review{{
		Name:     resp.Name,
		Time:     resp.Time,
		FourChar: resp.FourChar,
		Feedback: resp.Feedback,
	}}, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
