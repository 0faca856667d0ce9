package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/ai/embedding"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/config"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/enums"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/infra/httpclient"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/jobs/cleanup"
	pgrepo "github.com/Olof-Tingskull/lovisa-bottles/internal/repo/postgres"
	accesssvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/access"
	authsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/auth"
	bottlesvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/bottles"
	userssvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/users"
)

var cfgPath string

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "bottlectl",
		Short: "Curator tooling for the bottles service",
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "configs/config.yaml", "config path")

	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(bottleCmd())
	rootCmd.AddCommand(grantCmd())
	rootCmd.AddCommand(cleanupCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(cfgPath)
}

type repos struct {
	grants  *pgrepo.GrantRepo
	media   *pgrepo.MediaRepo
	bottles *pgrepo.BottleRepo
	users   *pgrepo.UserRepo
}

func openRepos(ctx context.Context, cfg config.Config) (*repos, error) {
	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &repos{
		grants:  pgrepo.NewGrantRepo(pool),
		media:   pgrepo.NewMediaRepo(pool),
		bottles: pgrepo.NewBottleRepo(pool),
		users:   pgrepo.NewUserRepo(pool),
	}, nil
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage access tokens",
	}
	cmd.AddCommand(tokenMintCmd())
	return cmd
}

func tokenMintCmd() *cobra.Command {
	var userID int64
	var role string

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint an access token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			manager, err := authsvc.NewJWTManager(authsvc.Config{
				Secret: cfg.Auth.JWTSecret,
				TTL:    cfg.Auth.JWTAccessTTL,
			})
			if err != nil {
				return err
			}

			token, err := manager.Mint(userID, enums.Role(role))
			if err != nil {
				return err
			}

			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().StringVar(&role, "role", string(enums.RoleRecipient), "CURATOR or RECIPIENT")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(userCreateCmd())
	cmd.AddCommand(userShowCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var username, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			r, err := openRepos(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			user, err := userssvc.NewService(r.users).Create(cmd.Context(), username, enums.Role(role))
			if err != nil {
				return err
			}

			fmt.Printf("created user %d (%s, %s)\n", user.ID, user.Username, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&role, "role", string(enums.RoleRecipient), "CURATOR or RECIPIENT")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func userShowCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a user by username",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			r, err := openRepos(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			user, err := userssvc.NewService(r.users).GetByUsername(cmd.Context(), username)
			if err != nil {
				return err
			}

			out, _ := json.MarshalIndent(user, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func bottleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bottle",
		Short: "Manage bottles",
	}
	cmd.AddCommand(bottleCreateCmd())
	cmd.AddCommand(bottleListCmd())
	return cmd
}

func bottleCreateCmd() *cobra.Command {
	var creatorID, recipientID int64
	var name, text, mood string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a bottle with a single text block",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			r, err := openRepos(ctx, cfg)
			if err != nil {
				return err
			}

			embedder, err := embedding.NewClient(embedding.Config{
				URL:        cfg.AI.EmbeddingURL,
				APIKey:     cfg.AI.EmbeddingKey,
				Model:      cfg.AI.EmbeddingModel,
				MaxRetries: cfg.AI.MaxRetries,
			}, httpclient.New(cfg.AI.Timeout))
			if err != nil {
				return err
			}

			service := bottlesvc.NewService(bottlesvc.Dependencies{
				Store:    r.bottles,
				Media:    r.media,
				Embedder: embedder,
				Logger:   zap.NewNop(),
			})

			req := bottlesvc.CreateRequest{
				CreatorID: creatorID,
				Name:      name,
				Content:   []model.ContentBlock{{Kind: enums.BlockKindText, Text: text}},
			}
			if recipientID > 0 {
				req.RecipientID = &recipientID
			}
			if mood != "" {
				req.MoodText = &mood
			}

			bottle, err := service.Create(ctx, req)
			if err != nil {
				return err
			}

			fmt.Printf("created bottle %d (%s)\n", bottle.ID, bottle.Name)
			return nil
		},
	}

	cmd.Flags().Int64Var(&creatorID, "creator", 0, "creator user id")
	cmd.Flags().Int64Var(&recipientID, "recipient", 0, "recipient user id")
	cmd.Flags().StringVar(&name, "name", "", "bottle name")
	cmd.Flags().StringVar(&text, "text", "", "bottle body text")
	cmd.Flags().StringVar(&mood, "mood", "", "mood description for matching")
	_ = cmd.MarkFlagRequired("creator")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func bottleListCmd() *cobra.Command {
	var creatorID int64

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List bottles by creator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			r, err := openRepos(ctx, cfg)
			if err != nil {
				return err
			}

			bottles, err := r.bottles.ListByCreator(ctx, creatorID)
			if err != nil {
				return err
			}

			for _, bottle := range bottles {
				mood := "-"
				if bottle.MoodText != nil {
					mood = *bottle.MoodText
				}
				fmt.Printf("%d\t%s\t%s\n", bottle.ID, bottle.Name, mood)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&creatorID, "creator", 0, "creator user id")
	_ = cmd.MarkFlagRequired("creator")
	return cmd
}

func grantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Manage media access grants",
	}
	cmd.AddCommand(grantAddCmd())
	cmd.AddCommand(grantRevokeCmd())
	cmd.AddCommand(grantListCmd())
	return cmd
}

func newAccessService(ctx context.Context, cfg config.Config) (*accesssvc.Service, error) {
	r, err := openRepos(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return accesssvc.NewService(accesssvc.Dependencies{
		Grants: r.grants,
		Media:  r.media,
		Logger: zap.NewNop(),
	}, accesssvc.Config{}), nil
}

func grantAddCmd() *cobra.Command {
	var mediaID, userID int64
	var maxViews int
	var expiresIn time.Duration

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Grant a user access to a media object",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			service, err := newAccessService(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			var views *int
			if maxViews > 0 {
				views = &maxViews
			}
			var expiresAt *time.Time
			if expiresIn > 0 {
				t := time.Now().Add(expiresIn)
				expiresAt = &t
			}

			grant, err := service.Grant(cmd.Context(), mediaID, userID, views, expiresAt)
			if err != nil {
				return err
			}

			out, _ := json.MarshalIndent(grant, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().Int64Var(&mediaID, "media", 0, "media object id")
	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().IntVar(&maxViews, "max-views", 0, "view ceiling, 0 for unlimited")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "lifetime, 0 for no expiry")
	_ = cmd.MarkFlagRequired("media")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func grantRevokeCmd() *cobra.Command {
	var mediaID, userID int64

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke a user's access to a media object",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			service, err := newAccessService(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if err := service.Revoke(cmd.Context(), mediaID, userID); err != nil {
				return err
			}

			fmt.Println("revoked")
			return nil
		},
	}

	cmd.Flags().Int64Var(&mediaID, "media", 0, "media object id")
	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	_ = cmd.MarkFlagRequired("media")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func grantListCmd() *cobra.Command {
	var mediaID int64

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List grants for a media object",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			service, err := newAccessService(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			grants, err := service.List(cmd.Context(), mediaID)
			if err != nil {
				return err
			}

			for _, grant := range grants {
				ceiling := "unlimited"
				if grant.MaxViews != nil {
					ceiling = fmt.Sprintf("%d", *grant.MaxViews)
				}
				expiry := "never"
				if grant.ExpiresAt != nil {
					expiry = grant.ExpiresAt.Format(time.RFC3339)
				}
				fmt.Printf("user=%d views=%d/%s expires=%s\n", grant.UserID, grant.Views, ceiling, expiry)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&mediaID, "media", 0, "media object id")
	_ = cmd.MarkFlagRequired("media")
	return cmd
}

func cleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge long-expired access grants once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			r, err := openRepos(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			job := cleanup.NewJob(r.grants, zap.NewNop(), cleanup.Config{
				Retention: cfg.Cleanup.GrantRetention,
			})
			return job.RunOnce(cmd.Context())
		},
	}

	return cmd
}
