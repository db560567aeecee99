// Command orchestrator reads queries from the standard input and answers them
// with the model, invoking the registered tools when needed.
//
// Configuration is read from the environment, an optional .env file in the
// working directory, and an optional config file named by ORCHESTRATOR_CONFIG.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/agent"
	"github.com/effective-security/orchestrator/callbacks"
	"github.com/effective-security/orchestrator/internal/config"
	"github.com/effective-security/orchestrator/internal/repl"
	"github.com/effective-security/orchestrator/pkg/llmfactory"
	"github.com/effective-security/orchestrator/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/orchestrator/cmd", "orchestrator")

var logLevels = map[string]xlog.LogLevel{
	"critical": xlog.CRITICAL,
	"error":    xlog.ERROR,
	"warning":  xlog.WARNING,
	"notice":   xlog.NOTICE,
	"info":     xlog.INFO,
	"debug":    xlog.DEBUG,
	"trace":    xlog.TRACE,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "orchestrator: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	xlog.SetFormatter(xlog.NewStringFormatter(errOut))

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(os.Getenv(config.EnvConfigFile))
	if err != nil {
		return err
	}
	if level, ok := logLevels[cfg.LogLevel]; ok {
		xlog.SetGlobalLogLevel(level)
	}

	model, err := llmfactory.NewLLM(cfg.ProviderConfig())
	if err != nil {
		return errors.WithMessage(err, "failed to create model")
	}

	var opts []agent.Option
	if cfg.Verbose {
		opts = append(opts, agent.WithCallback(callbacks.NewPrinter(errOut, callbacks.ModeVerbose)))
	}
	a, err := agent.New(cfg, model, opts...)
	if err != nil {
		return err
	}

	logger.KV(xlog.INFO,
		"status", "started",
		"chat_id", a.ChatID(),
		"provider", cfg.Provider,
		"model", cfg.ModelID,
		"region", cfg.Region,
	)
	logger.KV(xlog.DEBUG, "tools", tools.GetDescriptions(a.Tools()...))

	return repl.New(in, out, a).Run(ctx)
}
