package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"daily-trivia-service/internal/app"
	"daily-trivia-service/internal/auth"
	"daily-trivia-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewGenerateCmd creates a day's question set outside the HTTP admin route,
// e.g. from a scheduler.
func NewGenerateCmd(configPath *string) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the question set for a date (default today, UTC)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), *configPath, date)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "calendar date YYYY-MM-DD")
	return cmd
}

func runGenerate(ctx context.Context, configPath, date string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	rt, err := buildRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	if date == "" {
		date = rt.service.Today()
	}
	if _, err := time.Parse(app.DateLayout, date); err != nil {
		return fmt.Errorf("invalid --date %q: %w", date, err)
	}
	session, questions, err := rt.service.GenerateForDate(ctx, date)
	if errors.Is(err, domain.ErrAlreadyGenerated) {
		log.WithField("date", date).Info("questions already generated")
		return nil
	}
	if err != nil {
		return err
	}
	log.WithField("session_id", session.ID).Infof("generated %d questions for %s", len(questions), date)
	return nil
}

// NewRecomputeCmd reruns statistics aggregation for a session.
func NewRecomputeCmd(configPath *string) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "recompute-stats",
		Short: "Recompute participants, highest score and winners for a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			rt, err := buildRuntime(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer rt.Close()

			if sessionID == "" {
				session, err := rt.service.TodaysSession(cmd.Context())
				if err != nil {
					return err
				}
				sessionID = session.ID
			}
			stats, err := rt.service.RecomputeStats(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(stats)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (default today's session)")
	return cmd
}

// NewTokenCmd signs a bearer token with the configured secret for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		id  domain.Identity
		ttl time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}
			if id.UserID == "" {
				return errors.New("--user is required")
			}
			token, err := auth.NewVerifier(cfg.Auth.JWTSecret).Sign(id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&id.UserID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&id.Email, "email", "", "user email")
	cmd.Flags().StringVar(&id.Name, "name", "", "display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
