package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/UkralStul/modora-posts-service/internal/domain"
	"github.com/UkralStul/modora-posts-service/internal/interpret"
	"github.com/UkralStul/modora-posts-service/internal/repository"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the configured storage with sample posts",
	Long: `Seed adds two sample posts to the front of the feed.
Posts that already exist (by id) are left untouched, so running it twice is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		store, closeStore, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		added, err := repository.New(store, logger).Seed(ctx, samplePosts(time.Now()))
		if err != nil {
			return err
		}
		logger.Info("Mock data filled successfully", zap.Int("added", added), zap.String("storage", cfg.Storage))
		return nil
	},
}

// samplePosts - демо-посты для пустой ленты, от нового к старому.
func samplePosts(now time.Time) []domain.Post {
	transition := []domain.Lens{domain.LensTherapist, domain.LensPhilosophical, domain.LensCultural}
	parenting := []domain.Lens{domain.LensTherapist, domain.LensSociological}
	transitionTitle := "Feeling lost after a major life transition"
	untitled := ""

	posts := []domain.Post{
		{
			ID:       "1",
			UserID:   "user1",
			Username: domain.AnonymousUsername,
			Title:    &transitionTitle,
			Content: "I recently moved to a new city for work, leaving behind all my friends and familiar places. " +
				"While I know this was the right decision logically, I feel completely disconnected and question if I made the right choice. " +
				"The loneliness is overwhelming, and I find myself wondering who I am without my old support system.",
			Tags:            []string{"transition", "loneliness", "identity", "career"},
			Lenses:          transition,
			Interpretations: interpret.For(transition, now),
			CreatedAt:       domain.NewTimestamp(now.Add(-24 * time.Hour)),
			Upvotes:         23,
			Downvotes:       2,
			IsAnonymous:     true,
		},
		{
			ID:       "2",
			UserID:   "user2",
			Username: domain.AnonymousUsername,
			Title:    &untitled,
			Content: "My teenage daughter has been increasingly distant and hostile. Every conversation turns into an argument. " +
				"I want to connect with her but feel like I'm failing as a parent. " +
				"I remember being her age and feeling misunderstood, yet I can't seem to bridge this gap. " +
				"How do I show love when it feels rejected?",
			Tags:            []string{"parenting", "teenagers", "communication", "family"},
			Lenses:          parenting,
			Interpretations: interpret.For(parenting, now),
			CreatedAt:       domain.NewTimestamp(now.Add(-48 * time.Hour)),
			Upvotes:         31,
			Downvotes:       1,
			IsAnonymous:     true,
		},
	}
	for i := range posts {
		posts[i].Normalize()
	}
	return posts
}
