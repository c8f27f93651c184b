// Command bemrename-mcp exposes the analyze/plan/apply/rollback facade
// as an MCP tool server over stdio, for editors and agents that drive
// field renaming through the Model Context Protocol instead of the CLI.
package main

import (
	"fmt"
	"os"

	"github.com/fieldbem/pdfrename/internal/bemerrors"
	"github.com/fieldbem/pdfrename/internal/bemlog"
	"github.com/fieldbem/pdfrename/internal/training"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	serverName    = "bemrename-mcp"
	serverVersion = "0.1.0"
)

func loadTrainingStore(path string) (*training.Store, error) {
	if path == "" {
		return training.Load(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, bemerrors.IoFailure(fmt.Sprintf("opening training corpus %s failed", path), err)
	}
	defer f.Close()

	records, err := training.LoadNDJSON(f)
	if err != nil {
		return nil, err
	}
	return training.Load(records), nil
}

func main() {
	pflag.String("training", "", "path to an NDJSON training corpus")
	pflag.Bool("debug", false, "enable debug logging (stdio mode otherwise discards logs to avoid corrupting the protocol stream)")
	pflag.Parse()

	v := viper.New()
	v.SetEnvPrefix("BEMRENAME")
	v.AutomaticEnv()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	bemlog.Setup(bemlog.ModeStdio, v.GetBool("debug"))

	store, err := loadTrainingStore(v.GetString("training"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	srv := NewServer(serverName, serverVersion, store)
	if err := srv.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
