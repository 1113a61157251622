package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/talenthunt/screener/internal/ai"
	"github.com/talenthunt/screener/internal/ai/gemini"
	"github.com/talenthunt/screener/internal/ai/openai"
	"github.com/talenthunt/screener/internal/extract"
	"github.com/talenthunt/screener/internal/interview"
	"github.com/talenthunt/screener/internal/jobs"
	"github.com/talenthunt/screener/internal/logger"
	"github.com/talenthunt/screener/internal/match"
	"github.com/talenthunt/screener/internal/screening"
	"github.com/talenthunt/screener/internal/secrets"
	"github.com/talenthunt/screener/internal/store"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptTryAgain   = "Try another role or resume"
	PromptExit       = "Exit"
	defaultStorePath = "screener.db"
)

var profileFields = []struct {
	label  string
	assign func(*screening.Profile, string)
}{
	{"Full Name", func(p *screening.Profile, v string) { p.FullName = v }},
	{"Email Address", func(p *screening.Profile, v string) { p.Email = v }},
	{"Phone Number", func(p *screening.Profile, v string) { p.Phone = v }},
	{"Years of Experience", func(p *screening.Profile, v string) { p.YearsExperience = v }},
	{"Desired Position(s)", func(p *screening.Profile, v string) { p.DesiredPositions = v }},
	{"Current Location", func(p *screening.Profile, v string) { p.Location = v }},
	{"Tech Stack", func(p *screening.Profile, v string) { p.TechStack = v }},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interactive candidate screening session",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("store", "s", "", "path to the sqlite database. Default is "+defaultStorePath+" in current directory.")

	viper.BindPFlag("store.path", runCmd.Flags().Lookup("store"))
}

// run is the main command for the cli.
func run() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		config = &Config{}
	}

	logger.Info("starting the screener", zap.String("version", version))

	catalog, err := buildCatalog(config)
	if err != nil {
		logger.Fatal("building job catalog", zap.Error(err))
	}

	chat, embedder, maxLogLength, err := buildProviders(ctx, config.AI)
	if err != nil {
		logger.Fatal("building ai providers", zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY (or OPENAI_API_KEY with ai.provider: openai) in the environment or a .env file"),
		)
	}

	storePath := defaultStorePath
	if config.Store != nil && config.Store.Path != "" {
		storePath = config.Store.Path
	}

	db, err := store.Open(storePath)
	if err != nil {
		logger.Fatal("opening candidate store", zap.Error(err), zap.String("path", storePath))
	}
	defer db.Close()

	machine := screening.NewMachine(screening.Deps{
		Questions:  interview.NewEngine(chat, logger, maxLogLength),
		Scorer:     match.NewService(embedder, logger),
		Summarizer: interview.NewSummarizer(chat, logger),
		Extractor:  extract.New(logger),
		Store:      db,
		Index:      match.NewIndex(embedder),
		Jobs:       catalog,
		Logger:     logger,
	}, screeningConfig(config))

	session := machine.NewSession()

	if err := collectProfile(machine, session); err != nil {
		logger.Fatal("collecting registration details", zap.Error(err))
	}

	if err := collectResume(ctx, machine, session, catalog); err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			logger.Info("exiting", zap.String("reason", "cancelled at resume upload"))
			return
		}
		logger.Fatal("resume screening", zap.Error(err))
	}

	if session.Stage != screening.StageInterviewActive {
		return
	}

	chatLoop(ctx, machine, session, logger)
}

func screeningConfig(config *Config) screening.Config {
	cfg := screening.DefaultConfig()
	if config.Screening == nil {
		return cfg
	}
	if config.Screening.MatchThreshold > 0 {
		cfg.MatchThreshold = config.Screening.MatchThreshold
	}
	if config.Screening.InitialQuestions > 0 {
		cfg.InitialQuestions = config.Screening.InitialQuestions
	}
	if config.Screening.MaxQuestions > 0 {
		cfg.MaxQuestions = config.Screening.MaxQuestions
	}
	return cfg
}

func buildCatalog(config *Config) (*jobs.Catalog, error) {
	if config.Jobs != nil {
		return jobs.FromConfig(config.Jobs)
	}
	return jobs.Builtin()
}

// buildProviders resolves the configured AI backend. Gemini is the default;
// an OpenAI-compatible endpoint is selected with ai.provider: openai.
func buildProviders(ctx context.Context, cfg *AIConfig) (ai.ChatProvider, ai.Embedder, int, error) {
	provider := "gemini"
	if cfg != nil && cfg.Provider != "" {
		provider = strings.TrimSpace(strings.ToLower(cfg.Provider))
	}

	switch provider {
	case "gemini":
		gcfg := &GeminiConfig{}
		if cfg != nil && cfg.Gemini != nil {
			gcfg = cfg.Gemini
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: gcfg.APIKey,
			Env:   "GEMINI_API_KEY",
			File:  gcfg.APIKeyFile,
		})
		if err != nil {
			return nil, nil, 0, err
		}

		client, err := gemini.New(ctx, apiKey, gcfg.Model, gcfg.EmbeddingModel)
		if err != nil {
			return nil, nil, 0, err
		}
		return client, client, gcfg.MaxLogLength, nil
	case "openai":
		ocfg := &OpenAIConfig{}
		if cfg != nil && cfg.OpenAI != nil {
			ocfg = cfg.OpenAI
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: ocfg.APIKey,
			Env:   "OPENAI_API_KEY",
			File:  ocfg.APIKeyFile,
		})
		if err != nil {
			return nil, nil, 0, err
		}

		client, err := openai.New(apiKey, ocfg.BaseURL, ocfg.Model, ocfg.EmbeddingModel)
		if err != nil {
			return nil, nil, 0, err
		}
		return client, client, ocfg.MaxLogLength, nil
	default:
		return nil, nil, 0, fmt.Errorf("unsupported ai provider: %s", provider)
	}
}

// collectProfile asks for the intake fields one by one, in the fixed order,
// and submits them as one registration.
func collectProfile(machine *screening.Machine, session *screening.Session) error {
	fmt.Println("Welcome to the TalentHunt screening assistant. Let's get you registered.")

	for {
		var profile screening.Profile

		for _, field := range profileFields {
			prompt := promptui.Prompt{
				Label: field.label,
				Validate: func(input string) error {
					if strings.TrimSpace(input) == "" {
						return errors.New("this field is required")
					}
					return nil
				},
			}

			value, err := prompt.Run()
			if err != nil {
				return err
			}
			field.assign(&profile, strings.TrimSpace(value))
		}

		reply, err := machine.SubmitProfile(session, profile)
		if err != nil {
			var verr *screening.ValidationError
			if errors.As(err, &verr) {
				fmt.Printf("Registration incomplete: %s. Let's try again.\n", verr.Error())
				continue
			}
			return err
		}

		printMessages(reply)
		return nil
	}
}

// collectResume loops role selection and resume upload until the candidate
// passes the match gate, or chooses to give up.
func collectResume(ctx context.Context, machine *screening.Machine, session *screening.Session, catalog *jobs.Catalog) error {
	for {
		rolePrompt := promptui.Select{
			Label: "Choose a role to apply for",
			Items: catalog.Roles(),
		}

		_, role, err := rolePrompt.Run()
		if err != nil {
			return err
		}

		pathPrompt := promptui.Prompt{
			Label: "Path to your resume file (pdf, docx, txt)",
		}

		path, err := pathPrompt.Run()
		if err != nil {
			return err
		}

		reply, err := machine.SubmitResume(ctx, session, role, strings.TrimSpace(path))
		if err != nil {
			var verr *screening.ValidationError
			if errors.As(err, &verr) {
				fmt.Println(verr.Error())
				continue
			}
			return err
		}

		printMessages(reply)

		if session.Stage == screening.StageInterviewActive {
			return nil
		}

		retryPrompt := promptui.Select{
			Label: "What next?",
			Items: []string{PromptTryAgain, PromptExit},
		}

		_, action, err := retryPrompt.Run()
		if err != nil {
			return err
		}
		if action == PromptExit {
			return nil
		}
	}
}

// chatLoop runs the interview over stdin until the session finishes.
func chatLoop(ctx context.Context, machine *screening.Machine, session *screening.Session, logger *zap.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for session.Stage == screening.StageInterviewActive {
		fmt.Print("You: ")
		if !scanner.Scan() {
			logger.Info("exiting", zap.String("reason", "input closed"))
			return
		}

		reply, err := machine.SubmitAnswer(ctx, session, scanner.Text())
		if err != nil {
			var verr *screening.ValidationError
			if errors.As(err, &verr) {
				fmt.Println(verr.Error())
				continue
			}
			// A failed save is retried by the next input.
			fmt.Printf("Something went wrong: %s\n", err)
			continue
		}

		printMessages(reply)

		if reply.RecordID != 0 {
			logger.Info("candidate record saved", zap.Int64("record_id", reply.RecordID))
		}
	}
}

func printMessages(reply *screening.Reply) {
	for _, msg := range reply.Messages {
		fmt.Printf("Assistant: %s\n", msg)
	}
}
