package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/talenthunt/screener/internal/auth"
	"github.com/talenthunt/screener/internal/logger"
	"github.com/talenthunt/screener/internal/screening"
	"github.com/talenthunt/screener/internal/secrets"
	"github.com/talenthunt/screener/internal/store"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const maxLoginAttempts = 3

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Show stored candidate records (admin only)",
}

func init() {
	recordsCmd.Run = func(_ *cobra.Command, _ []string) {
		records()
	}
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.Flags().BoolP("transcript", "t", false, "include full interview transcripts in the output")
}

func records() {
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

	authenticator, err := buildAuthenticator(config.Auth)
	if err != nil {
		logger.Fatal("building authenticator", zap.Error(err))
	}

	if !login(authenticator) {
		logger.Fatal("authentication failed", zap.Int("attempts", maxLoginAttempts))
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

	all, err := db.ListAll(ctx)
	if err != nil {
		logger.Fatal("listing candidate records", zap.Error(err))
	}

	if len(all) == 0 {
		fmt.Println("No candidate records yet.")
		return
	}

	withTranscript := false
	if flag := recordsCmd.Flag("transcript"); flag != nil {
		withTranscript = strings.EqualFold(flag.Value.String(), "true")
	}

	for _, rec := range all {
		printRecord(rec, withTranscript)
	}

	fmt.Printf("%d record(s) total.\n", len(all))
}

func buildAuthenticator(cfg *AuthConfig) (auth.Authenticator, error) {
	if cfg == nil {
		return auth.NewStatic("", ""), nil
	}

	password := cfg.Password
	if cfg.PasswordFile != "" {
		loaded, err := secrets.Load(secrets.Source{
			Name: "admin password",
			File: cfg.PasswordFile,
		})
		if err != nil {
			return nil, err
		}
		password = loaded
	}

	return auth.NewStatic(cfg.Email, password), nil
}

// login asks for admin credentials, allowing a few attempts before giving up.
func login(authenticator auth.Authenticator) bool {
	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		emailPrompt := promptui.Prompt{Label: "Admin email"}
		email, err := emailPrompt.Run()
		if err != nil {
			return false
		}

		passwordPrompt := promptui.Prompt{
			Label: "Password",
			Mask:  '*',
			Validate: func(input string) error {
				if input == "" {
					return errors.New("password is required")
				}
				return nil
			},
		}
		password, err := passwordPrompt.Run()
		if err != nil {
			return false
		}

		if authenticator.Authenticate(strings.TrimSpace(email), password) {
			return true
		}

		fmt.Printf("Invalid credentials (%d/%d).\n", attempt, maxLoginAttempts)
	}

	return false
}

func printRecord(rec *screening.Record, withTranscript bool) {
	fmt.Printf("--- Record #%d (%s) ---\n", rec.ID, rec.SubmittedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Name:        %s\n", rec.FullName)
	fmt.Printf("Email:       %s\n", rec.Email)
	fmt.Printf("Phone:       %s\n", rec.Phone)
	fmt.Printf("Experience:  %s years\n", rec.YearsExperience)
	fmt.Printf("Position:    %s\n", rec.DesiredPositions)
	fmt.Printf("Location:    %s\n", rec.Location)
	fmt.Printf("Tech stack:  %s\n", rec.TechStack)
	fmt.Printf("Match score: %.2f\n", rec.MatchScore)
	fmt.Printf("Sentiment:   %s\n", rec.Sentiment)

	fmt.Println("Technical answers:")
	for i, qa := range rec.TechnicalAnswers {
		fmt.Printf("  %d. Q: %s\n     A: %s\n", i+1, qa.Question, qa.Answer)
	}

	if withTranscript {
		fmt.Println("Transcript:")
		for _, turn := range rec.Transcript {
			fmt.Printf("  [%s] %s\n", turn.Role, turn.Content)
		}
	}

	fmt.Println()
}
