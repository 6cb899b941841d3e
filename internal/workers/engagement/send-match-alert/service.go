package sendmatchalert

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsclients "fundmatch-workers/internal/common/aws"
	"fundmatch-workers/internal/common/errors"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/common/metrics"
	"fundmatch-workers/internal/common/validation"
)

// qualityRank orders match quality bands for threshold comparison.
var qualityRank = map[string]int{
	"LOW":    0,
	"MEDIUM": 1,
	"HIGH":   2,
}

// EmailSender sends transactional mail. Satisfied by the SES client wrapper.
type EmailSender interface {
	SendEmail(ctx context.Context, msg awsclients.EmailMessage) (string, error)
}

// SMSSender publishes direct-to-phone messages. Satisfied by the SNS client
// wrapper.
type SMSSender interface {
	PublishSMS(ctx context.Context, phone, message string) (string, error)
}

type Service struct {
	config *Config
	logger logger.Logger
	email  EmailSender
	sms    SMSSender
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		email:  deps.Email,
		sms:    deps.SMS,
	}
}

// Execute delivers a match alert. Email is the primary channel and must
// succeed; SMS rides along for super-like matches and matches at or above the
// configured quality threshold, and never fails the job.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	s.logger.Info("Sending match alert", map[string]interface{}{
		"userId":   input.UserID,
		"matchId":  input.MatchID,
		"priority": input.Priority,
	})

	if !validation.ValidateEmail(input.Email) {
		return nil, errors.NewValidationFailedError(fmt.Sprintf("invalid recipient email address: %s", input.Email))
	}

	messageID, err := s.email.SendEmail(ctx, s.buildEmail(input))
	if err != nil {
		metrics.MatchAlertsSent.WithLabelValues("email", "error").Inc()
		return nil, errors.NewNotificationSendFailedError("email", err)
	}
	metrics.MatchAlertsSent.WithLabelValues("email", "sent").Inc()

	channels := []string{"email"}

	if s.config.SMSEnabled && input.Phone != "" && s.smsWorthy(input) {
		if !validation.ValidatePhone(input.Phone) {
			s.logger.Warn("Skipping SMS alert, phone number is malformed", map[string]interface{}{
				"userId": input.UserID,
			})
		} else if err := s.sendSMS(ctx, input); err != nil {
			metrics.MatchAlertsSent.WithLabelValues("sms", "error").Inc()
			s.logger.Warn("SMS alert failed, email already delivered", map[string]interface{}{
				"userId": input.UserID,
				"error":  err.Error(),
			})
		} else {
			metrics.MatchAlertsSent.WithLabelValues("sms", "sent").Inc()
			channels = append(channels, "sms")
		}
	}

	s.logger.Info("Match alert sent", map[string]interface{}{
		"userId":    input.UserID,
		"matchId":   input.MatchID,
		"messageId": messageID,
		"channels":  channels,
	})

	return &Output{
		Success:   true,
		Message:   "Match alert sent",
		MessageID: messageID,
		Channels:  channels,
		SentAt:    time.Now(),
	}, nil
}

func (s *Service) buildEmail(input *Input) awsclients.EmailMessage {
	return awsclients.EmailMessage{
		From:    s.config.SenderEmail,
		To:      input.Email,
		Subject: s.buildSubject(input),
		Body:    s.buildBody(input),
	}
}

func (s *Service) buildSubject(input *Input) string {
	if input.Priority {
		return fmt.Sprintf("Priority match: %s wants to connect", input.PartnerName)
	}
	return fmt.Sprintf("You matched with %s", input.PartnerName)
}

func (s *Service) buildBody(input *Input) string {
	var builder strings.Builder

	builder.WriteString("Hi,\r\n\r\n")
	builder.WriteString("You have a new match on FundMatch.\r\n\r\n")
	builder.WriteString(fmt.Sprintf("Partner: %s\r\n", input.PartnerName))

	if input.Quality != "" {
		builder.WriteString(fmt.Sprintf("Compatibility: %d (%s)\r\n", input.Score, input.Quality))
	} else {
		builder.WriteString(fmt.Sprintf("Compatibility: %d\r\n", input.Score))
	}

	if input.Priority {
		builder.WriteString("\r\nThis partner used a super like on you.\r\n")
	}

	if input.ChatRoomID != "" {
		builder.WriteString(fmt.Sprintf("\r\nYour chat room is open. Visit room %s to start the conversation.\r\n", input.ChatRoomID))
	}

	builder.WriteString("\r\nThe FundMatch Team\r\n")

	return builder.String()
}

// smsWorthy reports whether the match earns the SMS channel. Every super-like
// match does; other matches qualify when their quality band reaches the
// configured threshold.
func (s *Service) smsWorthy(input *Input) bool {
	if input.Priority {
		return true
	}
	floor, ok := qualityRank[s.config.SMSThreshold]
	if !ok {
		return false
	}
	band, ok := qualityRank[strings.ToUpper(input.Quality)]
	return ok && band >= floor
}

func (s *Service) sendSMS(ctx context.Context, input *Input) error {
	text := fmt.Sprintf("FundMatch: you matched with %s. Open the app to start the conversation.", input.PartnerName)
	if input.Priority {
		text = fmt.Sprintf("FundMatch: %s super liked you. Open the app to respond.", input.PartnerName)
	}
	_, err := s.sms.PublishSMS(ctx, input.Phone, text)
	return err
}
