package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/jobctl/internal/core/domain"
)

var definitionPath string

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install a job from a definition file",
	Run:   runInstall,
}

var previewCmd = &cobra.Command{
	Use:   "preview <job-id>",
	Short: "Dry-run an installed job and print the documents it would produce",
	Args:  cobra.ExactArgs(1),
	Run:   runPreview,
}

var startCmd = &cobra.Command{
	Use:   "start <job-id>",
	Short: "Start an installed job",
	Args:  cobra.ExactArgs(1),
	Run:   runJobOp("start"),
}

var stopCmd = &cobra.Command{
	Use:   "stop <job-id>",
	Short: "Stop a running job, waiting for completion",
	Args:  cobra.ExactArgs(1),
	Run:   runJobOp("stop"),
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <job-id>",
	Short: "Remove a job permanently",
	Args:  cobra.ExactArgs(1),
	Run:   runJobOp("uninstall"),
}

func init() {
	installCmd.Flags().StringVarP(&definitionPath, "file", "f", "", "job definition YAML file (required)")
	_ = installCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(installCmd, previewCmd, startCmd, stopCmd, uninstallCmd)
}

func runInstall(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	app := newController(cfg)

	data, err := os.ReadFile(definitionPath)
	if err != nil {
		slog.Error("Failed to read definition file", "error", err)
		os.Exit(1)
	}

	var def domain.JobDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		slog.Error("Failed to parse definition file", "error", err)
		os.Exit(1)
	}
	if def.ID == "" {
		def.ID = uuid.NewString()
		slog.Info("Definition has no id, generated one", "id", def.ID)
	}

	id, err := app.Install(context.Background(), def)
	if err != nil {
		slog.Error("Install failed", "error", err)
		os.Exit(1)
	}
	fmt.Println(id)
}

func runPreview(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	app := newController(cfg)

	result, err := app.Preview(context.Background(), domain.JobID(args[0]))
	if err != nil {
		slog.Error("Preview failed", "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result.Documents, "", "  ")
	if err != nil {
		slog.Error("Failed to render preview", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func runJobOp(op string) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		app := newController(cfg)
		id := domain.JobID(args[0])

		ctx := context.Background()
		var err error
		switch op {
		case "start":
			err = app.Start(ctx, id)
		case "stop":
			err = app.Stop(ctx, id)
		case "uninstall":
			err = app.Uninstall(ctx, id)
		}
		if err != nil {
			slog.Error("Operation failed", "operation", op, "job_id", id, "error", err)
			os.Exit(1)
		}
		slog.Info("Operation succeeded", "operation", op, "job_id", id)
	}
}
