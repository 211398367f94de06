package main

import (
	"fmt"

	"github.com/topolab-net/topolab/pkg/cli"
	"github.com/topolab-net/topolab/pkg/lab"
	"github.com/topolab-net/topolab/pkg/runtime"
	"github.com/topolab-net/topolab/pkg/topology"
)

// loadLab parses the descriptor, resolves the immutable config, connects
// to Docker, and builds the entity graph. Every subcommand starts here.
func loadLab() (*lab.Lab, error) {
	if topoFile == "" {
		return nil, fmt.Errorf("no topology file given (use -t)")
	}

	file, err := topology.Load(topoFile)
	if err != nil {
		return nil, err
	}
	cfg := topology.ResolveConfig(file, topoFile)

	client, err := runtime.NewClient()
	if err != nil {
		return nil, fmt.Errorf("connect to docker: %w", err)
	}

	l := lab.New(cfg, client)
	if err := l.Build(file); err != nil {
		return nil, err
	}
	return l, nil
}

func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
