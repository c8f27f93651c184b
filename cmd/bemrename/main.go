// Command bemrename is the CLI wrapper over internal/bemrename's
// analyze/plan/apply/rollback/process facade. Configuration loading
// mirrors the teacher's config.LoadFromFlags shape, generalized from
// stdlib flag to pflag+viper so BEMRENAME_* env vars can supply the
// same options as the flags. No config file is read.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fieldbem/pdfrename/internal/bemerrors"
	"github.com/fieldbem/pdfrename/internal/bemlog"
	"github.com/fieldbem/pdfrename/internal/bemrename"
	"github.com/fieldbem/pdfrename/internal/training"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Exit codes per the invocation surface's exit policy.
const (
	exitSuccess         = 0
	exitUnspecified     = 1
	exitInputInvalid    = 2
	exitEncryption      = 3
	exitPlanningBlocker = 4
	exitRolledBack      = 5
	exitTimeout         = 6
)

type cliConfig struct {
	Op              string
	File            string
	Passphrase      string
	OutDir          string
	Training        string
	FormID          string
	BackupSidecar   string
	SafetyThreshold float64
	Debug           bool
}

func loadConfig() (*cliConfig, error) {
	pflag.String("op", "process", "operation: analyze|plan|apply|process|rollback")
	pflag.String("file", "", "path to the source PDF")
	pflag.String("passphrase", "", "decryption passphrase, if the PDF is encrypted")
	pflag.String("out-dir", "", "directory for output artifacts (default: alongside --file)")
	pflag.String("training", "", "path to an NDJSON training corpus")
	pflag.String("form-id", "", "form id recorded in the mapping CSV")
	pflag.String("backup", "", "backup JSON sidecar path, for --op=rollback")
	pflag.Float64("safety-threshold", 0.5, "minimum safety score required before apply")
	pflag.Bool("debug", false, "enable debug logging")
	pflag.Parse()

	v := viper.New()
	v.SetEnvPrefix("BEMRENAME")
	v.AutomaticEnv()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	cfg := &cliConfig{
		Op:              v.GetString("op"),
		File:            v.GetString("file"),
		Passphrase:      v.GetString("passphrase"),
		OutDir:          v.GetString("out-dir"),
		Training:        v.GetString("training"),
		FormID:          v.GetString("form-id"),
		BackupSidecar:   v.GetString("backup"),
		SafetyThreshold: v.GetFloat64("safety-threshold"),
		Debug:           v.GetBool("debug"),
	}

	if cfg.Op != "rollback" && cfg.File == "" {
		return nil, fmt.Errorf("--file is required for --op=%s", cfg.Op)
	}
	if cfg.Op == "rollback" && cfg.BackupSidecar == "" {
		return nil, fmt.Errorf("--backup is required for --op=rollback")
	}
	return cfg, nil
}

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
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitInputInvalid
	}

	bemlog.Setup(bemlog.ModeServer, cfg.Debug)

	store, err := loadTrainingStore(cfg.Training)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUnspecified
	}
	facade := bemrename.NewFacade(store)

	switch cfg.Op {
	case "analyze":
		return runAnalyze(facade, cfg)
	case "process":
		return runProcess(facade, cfg)
	case "plan":
		return runPlanOnly(facade, cfg)
	case "apply":
		return runProcess(facade, cfg) // apply without a prior external plan is equivalent to process
	case "rollback":
		return runRollback(facade, cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown --op %q\n", cfg.Op)
		return exitInputInvalid
	}
}

func runAnalyze(facade *bemrename.Facade, cfg *cliConfig) int {
	analysis, err := facade.Analyze(cfg.File, cfg.Passphrase)
	if err != nil {
		return reportError(err)
	}
	defer analysis.Close()

	return printJSON(map[string]any{
		"metadata":    analysis.Metadata,
		"field_count": len(analysis.Fields),
		"warnings":    analysis.Warnings,
	})
}

func runPlanOnly(facade *bemrename.Facade, cfg *cliConfig) int {
	analysis, err := facade.Analyze(cfg.File, cfg.Passphrase)
	if err != nil {
		return reportError(err)
	}
	decisions := facade.Decide(analysis)
	analysis.Close()

	plan, err := facade.Plan(cfg.File, cfg.Passphrase, decisions)
	if err != nil {
		return reportError(err)
	}
	defer plan.Close()

	return printJSON(plan.ModificationPlan)
}

func runProcess(facade *bemrename.Facade, cfg *cliConfig) int {
	result, err := facade.Process(cfg.File, bemrename.ProcessOptions{
		Passphrase:      cfg.Passphrase,
		OutDir:          cfg.OutDir,
		SafetyThreshold: cfg.SafetyThreshold,
		FormID:          cfg.FormID,
	})
	if err != nil {
		return reportError(err)
	}
	return printJSON(result)
}

func runRollback(facade *bemrename.Facade, cfg *cliConfig) int {
	result, err := facade.Rollback(cfg.BackupSidecar)
	if err != nil {
		return reportError(err)
	}
	return printJSON(result)
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUnspecified
	}
	return exitSuccess
}

// reportError prints err and maps its bemerrors.Kind to the exit policy.
func reportError(err error) int {
	fmt.Fprintln(os.Stderr, err)

	e, ok := bemerrors.As(err)
	if !ok {
		return exitUnspecified
	}
	switch e.Kind {
	case bemerrors.KindPdfInvalid, bemerrors.KindDanglingRef:
		return exitInputInvalid
	case bemerrors.KindPdfEncrypted:
		return exitEncryption
	case bemerrors.KindPlanBlocker:
		return exitPlanningBlocker
	case bemerrors.KindValidationFailure:
		return exitRolledBack
	case bemerrors.KindTimeout:
		return exitTimeout
	default:
		return exitUnspecified
	}
}
