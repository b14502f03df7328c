package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/secvote/secvote/pkg/internal/http/exts"
	"github.com/secvote/secvote/pkg/internal/models"
	"github.com/secvote/secvote/pkg/internal/services"
)

func getPollResults(c *fiber.Ctx) error {
	pollId, _ := c.ParamsInt("pollId")

	summary, err := Results.Aggregate(c.UserContext(), uint(pollId))
	if err != nil {
		return remapAdmissionError(err)
	}

	return c.JSON(summary)
}

func getDetailedResults(c *fiber.Ctx) error {
	pollId, _ := c.ParamsInt("pollId")

	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Identity)

	poll, err := services.GetPoll(uint(pollId))
	if err != nil || poll.AccountID != user.AccountID {
		return fiber.NewError(fiber.StatusNotFound, "poll not found")
	}

	summary, err := Results.AggregateDetailed(c.UserContext(), uint(pollId))
	if err != nil {
		return remapAdmissionError(err)
	}

	return c.JSON(summary)
}

func getOverallStats(c *fiber.Ctx) error {
	stats, err := Results.OverallStats(c.UserContext())
	if err != nil {
		return remapAdmissionError(err)
	}

	return c.JSON(stats)
}

func getTrendingPolls(c *fiber.Ctx) error {
	trending, err := Results.Trending(c.UserContext(), 24*time.Hour, 10)
	if err != nil {
		return remapAdmissionError(err)
	}

	return c.JSON(fiber.Map{"trending_polls": trending})
}
