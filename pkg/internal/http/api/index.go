package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/secvote/secvote/pkg/internal/services"
)

// Wired up in main before the server starts listening.
var (
	Votes   *services.AdmissionController
	Results *services.ResultAggregator
)

func MapAPIs(app *fiber.App, baseURL string) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "service": "secvote"})
	})

	api := app.Group(baseURL)
	{
		polls := api.Group("/polls")
		{
			polls.Get("/", listPolls)
			polls.Post("/", createPoll)
			polls.Get("/:pollId", getPoll)
			polls.Put("/:pollId", updatePoll)
			polls.Post("/:pollId/close", closePoll)
			polls.Delete("/:pollId", deletePoll)
		}

		votes := api.Group("/votes")
		{
			votes.Post("/", castVote)
			votes.Post("/anonymous", castAnonymousVote)
			votes.Get("/check/:pollId", checkVoteStatus)
			votes.Get("/me", listMyVotes)
		}

		results := api.Group("/results")
		{
			results.Get("/stats", getOverallStats)
			results.Get("/trending", getTrendingPolls)
			results.Get("/:pollId", getPollResults)
			results.Get("/:pollId/detailed", getDetailedResults)
		}
	}
}

func remapAdmissionError(err error) error {
	switch {
	case errors.Is(err, services.ErrBadRequest), errors.Is(err, services.ErrInvalidOption):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrPollNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPollClosed), errors.Is(err, services.ErrDuplicateVote):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrAnonymousForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrStorageUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return err
	}
}
