package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/BradenHooton/svatba/internal/models"
)

// Notifier tells the couple about a new RSVP.
type Notifier interface {
	NotifyNewRSVP(ctx context.Context, guest models.Guest) error
}

// NoopNotifier is used when email is not configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyNewRSVP(context.Context, models.Guest) error { return nil }

// sesAPI is the subset of the SES client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// AWSSESNotifier sends new-RSVP notifications using AWS SES
type AWSSESNotifier struct {
	sesClient   sesAPI
	fromAddress string
	recipients  []string
	logger      *slog.Logger
}

// NewAWSSESNotifier loads the default AWS credential chain for region.
func NewAWSSESNotifier(region, fromAddress string, recipients []string, logger *slog.Logger) (*AWSSESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESNotifier{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		recipients:  recipients,
		logger:      logger,
	}, nil
}

func (n *AWSSESNotifier) NotifyNewRSVP(ctx context.Context, guest models.Guest) error {
	subject := fmt.Sprintf("Ново RSVP: %s", guest.GuestName)
	body := renderRSVPText(guest)

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: n.recipients,
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	result, err := n.sesClient.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("rsvp notification sent",
		slog.String("guest_id", guest.ID),
		slog.String("message_id", aws.ToString(result.MessageId)))
	return nil
}

func renderRSVPText(g models.Guest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Име: %s\n", g.GuestName)
	fmt.Fprintf(&b, "Имейл: %s\n", g.Email)
	if g.Phone != "" {
		fmt.Fprintf(&b, "Телефон: %s\n", g.Phone)
	}
	fmt.Fprintf(&b, "Присъствие: %s\n", yesNo(g.Attending))
	if g.Attending {
		if g.PlusOneAttending {
			fmt.Fprintf(&b, "Придружител: %s\n", g.PlusOneName)
		}
		fmt.Fprintf(&b, "Деца: %d\n", g.ChildrenCount)
		if g.MenuChoice != "" {
			fmt.Fprintf(&b, "Меню: %s\n", menuLabel(g.MenuChoice))
		}
	}
	if g.Allergies != "" {
		fmt.Fprintf(&b, "Алергии: %s\n", g.Allergies)
	}
	fmt.Fprintf(&b, "Дата: %s\n", g.SubmissionDate)
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Да"
	}
	return "Не"
}

func menuLabel(choice string) string {
	switch choice {
	case models.MenuMeat:
		return "Месно"
	case models.MenuVegetarian:
		return "Вегетарианско"
	}
	return choice
}

func dietaryLabel(pref string) string {
	switch pref {
	case models.DietaryStandard:
		return "Стандартна"
	case models.DietaryVegetarian:
		return "Вегетарианска"
	}
	return pref
}
