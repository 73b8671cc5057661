package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/analysis"
	"github.com/spigell/job-radar/internal/logger"

	"github.com/manifoldco/promptui"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptShowReport   = "Show report by companies"
	PromptResultToFile = "Dump results to file"
	PromptQuit         = "Quit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowReport, PromptResultToFile, PromptQuit},
}

// profileFile is the layout of the --profile yaml file.
type profileFile struct {
	Profile analysis.Profile `mapstructure:"profile"`
	LLM     ai.LLMConfig     `mapstructure:"llm"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score the newest stored jobs against a profile",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("profile", "p", "profile.yaml", "yaml file with the candidate profile")
	analyzeCmd.Flags().String("provider", "", "llm provider: gemini, openai or local (overrides the profile file)")
	analyzeCmd.Flags().String("api-key", "", "api key for the llm provider (overrides the profile file)")
	analyzeCmd.Flags().String("url", "", "endpoint of the local llm (overrides the profile file)")
	analyzeCmd.Flags().BoolP("yes", "y", false, "print the report and exit without asking")
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	req, err := loadAnalysisRequest(cmd)
	if err != nil {
		logger.Fatal("loading the profile", zap.Error(err))
	}

	svc, err := newServices(ctx, config, logger)
	if err != nil {
		logger.Fatal("initializing services", zap.Error(err))
	}
	defer svc.Close()

	result, err := svc.analyzer.Run(ctx, req)
	if err != nil {
		logger.Fatal("analysis failed", zap.Error(err))
	}

	logger.Info("analysis finished",
		zap.Int("loaded", result.Summary.Loaded),
		zap.Int("analyzed", result.Summary.Analyzed),
		zap.Int("failed", result.Summary.Failed),
		zap.Int("matched", result.Summary.Matched),
	)

	if len(result.Jobs) == 0 {
		logger.Info("exiting", zap.String("reason", "no matching jobs"))
		return
	}

	if cmd.Flag("yes").Value.String() == "true" {
		if err := handleAction(PromptShowReport, logger, result); err != nil {
			logger.Error("showing the report", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Error("exiting", zap.Error(err))
			return
		}

		if err := handleAction(action, logger, result); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Error("exiting", zap.Error(err))
			return
		}
	}
}

func handleAction(action string, logger *zap.Logger, result *analysis.Result) error {
	switch action {
	case PromptShowReport:
		pretty, _ := json.MarshalIndent(result.ReportByCompany(), "", "  ")
		logger.Info(string(pretty), zap.Int("jobs count", len(result.Jobs)))
		return nil
	case PromptResultToFile:
		filename, err := result.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptQuit:
		logger.Info("exiting", zap.String("reason", "got quit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func loadAnalysisRequest(cmd *cobra.Command) (analysis.Request, error) {
	path := cmd.Flag("profile").Value.String()

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return analysis.Request{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var file profileFile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &file,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return analysis.Request{}, err
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return analysis.Request{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	llm := file.LLM
	if flag := cmd.Flag("provider").Value.String(); flag != "" {
		llm.Provider = ai.ProviderKind(flag)
	}
	if flag := cmd.Flag("api-key").Value.String(); flag != "" {
		llm.APIKey = flag
	}
	if flag := cmd.Flag("url").Value.String(); flag != "" {
		llm.URL = flag
	}

	profile := file.Profile
	return analysis.Request{Profile: &profile, LLMConfig: &llm}, nil
}
