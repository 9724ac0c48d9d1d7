package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cubestudio/dataset-admin/pkg/access"
	"github.com/cubestudio/dataset-admin/pkg/config"
	"github.com/cubestudio/dataset-admin/pkg/contract"
	"github.com/cubestudio/dataset-admin/pkg/utils"
)

const callerKey = "caller"

// identity reads the caller from the headers set by the authenticating proxy.
func identity(cfg config.AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username := strings.TrimSpace(c.Get(cfg.UserHeader))
		if username == "" {
			return contract.NewError(
				contract.ErrorCodeUnauthenticated,
				"missing "+cfg.UserHeader+" header",
			)
		}

		c.Locals(callerKey, access.Caller{
			Username: username,
			Roles:    utils.SplitNonEmpty(c.Get(cfg.RolesHeader), ","),
		})

		return c.Next()
	}
}

func callerFrom(c *fiber.Ctx) access.Caller {
	caller, _ := c.Locals(callerKey).(access.Caller)

	return caller
}
