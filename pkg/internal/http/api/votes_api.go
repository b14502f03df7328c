package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/secvote/secvote/pkg/internal/http/exts"
	"github.com/secvote/secvote/pkg/internal/models"
)

func castVote(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Identity)

	var data struct {
		PollID   uint   `json:"poll_id" validate:"required"`
		OptionID string `json:"option_id" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	vote, err := Votes.CastVote(c.UserContext(), data.PollID, data.OptionID, user, c.IP())
	if err != nil {
		return remapAdmissionError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(vote)
}

func castAnonymousVote(c *fiber.Ctx) error {
	var data struct {
		PollID   uint   `json:"poll_id" validate:"required"`
		OptionID string `json:"option_id" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	vote, err := Votes.CastAnonymousVote(c.UserContext(), data.PollID, data.OptionID, c.IP())
	if err != nil {
		return remapAdmissionError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(vote)
}

func checkVoteStatus(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Identity)

	pollId, _ := c.ParamsInt("pollId")

	vote, voted, err := Votes.LookupVote(c.UserContext(), uint(pollId), user)
	if err != nil {
		return remapAdmissionError(err)
	}

	resp := fiber.Map{"has_voted": voted}
	if voted {
		resp["vote"] = vote
	}
	return c.JSON(resp)
}

func listMyVotes(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Identity)

	take := c.QueryInt("take", 10)
	offset := c.QueryInt("offset", 0)
	if take > 50 {
		take = 50
	}

	votes, count, err := Votes.ListAccountVotes(c.UserContext(), user, take, offset)
	if err != nil {
		return remapAdmissionError(err)
	}

	return c.JSON(fiber.Map{
		"count": count,
		"data":  votes,
	})
}
