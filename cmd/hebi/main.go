// Command hebi is a small host embedding the runtime core: a `run` command
// for scripts, and a readline-backed REPL for interactive use. Grounded on
// the teacher's cmd/hey/main.go command tree (urfave/cli/v3, one Command
// per subcommand, a top-level interactive-shell flag).
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/wudi/hebi/modloader"
	"github.com/wudi/hebi/vm"
)

// Config is the REPL/run configuration loaded from a YAML file (pointed
// at by --config), mirroring the teacher's separate per-subcommand config
// loading in cmd/hey's init/require/install commands.
type Config struct {
	ModuleRoot string `yaml:"module_root"`
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func newVm(cfg Config) *vm.Vm {
	machine := vm.New()
	if cfg.ModuleRoot != "" {
		machine.SetLoader(modloader.NewFileLoader(cfg.ModuleRoot))
	}
	return machine
}

func main() {
	var configPath string

	runCommand := &cli.Command{
		Name:      "run",
		Usage:     "run a script file",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return fmt.Errorf("hebi run: missing script file")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			src, err := os.ReadFile(cmd.Args().First())
			if err != nil {
				return err
			}
			machine := newVm(cfg)
			_, err = machine.Eval(string(src))
			return err
		},
	}

	replCommand := &cli.Command{
		Name:  "repl",
		Usage: "start an interactive session",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runRepl(cfg)
		},
	}

	app := &cli.Command{
		Name:  "hebi",
		Usage: "an embeddable scripting language runtime",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "path to a YAML config file",
				Destination: &configPath,
			},
		},
		Commands: []*cli.Command{runCommand, replCommand},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runRepl(cfg)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "hebi: %v\n", err)
		os.Exit(1)
	}
}

// runRepl drives a read-eval-print loop over a single persistent Vm, each
// session tagged with a uuid purely for diagnostic/log correlation.
func runRepl(cfg Config) error {
	sessionID := uuid.New()
	machine := newVm(cfg)

	rl, err := readline.New("hebi> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stderr(), "hebi repl (session %s)\n", sessionID)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}

		result, err := machine.Eval(line)
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
			continue
		}
		fmt.Println(result.Display())
	}
}
