package email

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/fractracker/complaints/internal/models"
)

var validate = validator.New()

// Handler emails one agency. It satisfies agency.Handler.
type Handler struct {
	Sender  Sender
	Images  *ImageFetcher
	Agency  string
	To      string
	CC      string
	Subject string
	Logger  zerolog.Logger
}

// NewHandler rejects missing or malformed recipient addresses up front.
func NewHandler(sender Sender, images *ImageFetcher, agency, to, cc, subject string, logger zerolog.Logger) (*Handler, error) {
	if err := validate.Var(to, "required,email"); err != nil {
		return nil, fmt.Errorf("recipient address for %s: %w", agency, err)
	}
	if err := validate.Var(cc, "omitempty,email"); err != nil {
		return nil, fmt.Errorf("cc address: %w", err)
	}
	if images == nil {
		images = &ImageFetcher{}
	}
	return &Handler{
		Sender:  sender,
		Images:  images,
		Agency:  agency,
		To:      to,
		CC:      cc,
		Subject: subject,
		Logger:  logger,
	}, nil
}

func (h *Handler) Submit(ctx context.Context, report models.Report) error {
	body, err := Compose(report, h.Agency)
	if err != nil {
		return fmt.Errorf("compose email: %w", err)
	}
	attachments, err := h.Images.Fetch(ctx, report.ImageURLs)
	if err != nil {
		return err
	}

	err = h.Sender.Send(ctx, Message{
		To:          h.To,
		CC:          h.CC,
		Subject:     h.Subject,
		Body:        body,
		Attachments: attachments,
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", h.To, err)
	}

	h.Logger.Info().
		Str("report_id", report.ID).
		Str("agency", h.Agency).
		Int("attachments", len(attachments)).
		Msg("complaint email sent")
	return nil
}
