package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-mailqueue/app/dto"
	"github.com/vibast-solutions/ms-go-mailqueue/app/queue"
)

type EmailController struct {
	publisher queue.Publisher
	logger    logrus.FieldLogger
}

// NewEmailController constructs the HTTP email controller.
func NewEmailController(publisher queue.Publisher, logger logrus.FieldLogger) *EmailController {
	return &EmailController{publisher: publisher, logger: logger.WithField("component", "http")}
}

// Send validates a notification job and enqueues it for delivery.
func (c *EmailController) Send(ctx echo.Context) error {
	req, err := dto.FromEchoContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := c.publisher.Publish(ctx.Request().Context(), req.ToJob()); err != nil {
		c.logger.WithError(err).WithField("template", req.Template).Error("Failed to queue email")
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to queue email"})
	}

	return ctx.JSON(http.StatusOK, map[string]string{"message": "email queued"})
}
