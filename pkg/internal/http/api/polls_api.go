package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/secvote/secvote/pkg/internal/http/exts"
	"github.com/secvote/secvote/pkg/internal/models"
	"github.com/secvote/secvote/pkg/internal/services"
)

func getPoll(c *fiber.Ctx) error {
	pollId, _ := c.ParamsInt("pollId")

	poll, err := services.GetPoll(uint(pollId))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	poll.Metric = services.GetPollMetric(poll)

	return c.JSON(poll)
}

func listPolls(c *fiber.Ctx) error {
	take := c.QueryInt("take", 10)
	offset := c.QueryInt("offset", 0)
	if take > 50 {
		take = 50
	}

	polls, count, err := services.ListPolls(take, offset)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"count": count,
		"data":  polls,
	})
}

func createPoll(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Identity)

	var data struct {
		Title          string              `json:"title" validate:"required,max=200"`
		Description    string              `json:"description" validate:"max=1000"`
		Options        []models.PollOption `json:"options" validate:"required,min=2,max=10"`
		ExpiredAt      *time.Time          `json:"expired_at"`
		AllowAnonymous bool                `json:"allow_anonymous"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	poll := models.Poll{
		Title:          data.Title,
		Description:    data.Description,
		Options:        data.Options,
		ExpiredAt:      data.ExpiredAt,
		AllowAnonymous: data.AllowAnonymous,
		AccountID:      user.AccountID,
		AccountName:    user.Username,
	}

	var err error
	if poll, err = services.NewPoll(poll); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(poll)
}

func updatePoll(c *fiber.Ctx) error {
	pollId, _ := c.ParamsInt("pollId")

	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Identity)

	var data struct {
		Title          string              `json:"title" validate:"required,max=200"`
		Description    string              `json:"description" validate:"max=1000"`
		Options        []models.PollOption `json:"options" validate:"required,min=2,max=10"`
		ExpiredAt      *time.Time          `json:"expired_at"`
		AllowAnonymous bool                `json:"allow_anonymous"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	poll, err := services.GetPoll(uint(pollId))
	if err != nil || poll.AccountID != user.AccountID {
		return fiber.NewError(fiber.StatusNotFound, "poll not found")
	}

	poll.Title = data.Title
	poll.Description = data.Description
	poll.Options = data.Options
	poll.ExpiredAt = data.ExpiredAt
	poll.AllowAnonymous = data.AllowAnonymous

	if poll, err = services.UpdatePoll(poll); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(poll)
}

func closePoll(c *fiber.Ctx) error {
	pollId, _ := c.ParamsInt("pollId")

	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Identity)

	poll, err := services.GetPoll(uint(pollId))
	if err != nil || poll.AccountID != user.AccountID {
		return fiber.NewError(fiber.StatusNotFound, "poll not found")
	}

	if poll, err = services.ClosePoll(poll); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(poll)
}

func deletePoll(c *fiber.Ctx) error {
	pollId, _ := c.ParamsInt("pollId")

	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Identity)

	poll, err := services.GetPoll(uint(pollId))
	if err != nil || poll.AccountID != user.AccountID {
		return fiber.NewError(fiber.StatusNotFound, "poll not found")
	}

	if err := services.DeletePoll(poll); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(poll)
}
