package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/aura-booking/backend/config"
	"github.com/aura-booking/backend/internal/models"
)

// ErrChannelUnavailable is returned when the requested channel has no
// configured provider or no usable recipient address.
var ErrChannelUnavailable = errors.New("messaging: channel unavailable")

// Sender delivers one message on a channel and returns the provider's message
// id when it has one.
type Sender interface {
	Send(ctx context.Context, channel models.Channel, recipient, subject, body string) (providerID string, err error)
}

// ProviderSender sends via Twilio (WhatsApp, SMS) and SMTP (email). Providers
// left unconfigured make their channel unavailable rather than failing startup;
// a single-channel deployment is a supported setup.
type ProviderSender struct {
	twilio       *twilio.RestClient
	smsFrom      string
	whatsappFrom string

	mailer      *mail.Client
	fromAddress string
	fromName    string

	logger *zap.Logger
}

// NewProviderSender builds a sender from config. Either provider may be absent.
func NewProviderSender(twilioCfg config.TwilioConfig, emailCfg config.EmailConfig, logger *zap.Logger) *ProviderSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ProviderSender{
		smsFrom:      twilioCfg.SMSFrom,
		whatsappFrom: twilioCfg.WhatsAppFrom,
		fromAddress:  emailCfg.FromAddress,
		fromName:     emailCfg.FromName,
		logger:       logger,
	}

	if twilioCfg.AccountSID != "" && twilioCfg.AuthToken != "" {
		s.twilio = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: twilioCfg.AccountSID,
			Password: twilioCfg.AuthToken,
		})
	} else {
		logger.Warn("twilio not configured, whatsapp and sms channels disabled")
	}

	if emailCfg.SMTPHost != "" {
		mailer, err := mail.NewClient(emailCfg.SMTPHost,
			mail.WithPort(emailCfg.SMTPPort),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(emailCfg.SMTPUser),
			mail.WithPassword(emailCfg.SMTPPass),
		)
		if err != nil {
			logger.Warn("smtp client setup failed, email channel disabled", zap.Error(err))
		} else {
			s.mailer = mailer
		}
	} else {
		logger.Warn("smtp not configured, email channel disabled")
	}

	return s
}

// Send dispatches to the channel's provider.
func (s *ProviderSender) Send(ctx context.Context, channel models.Channel, recipient, subject, body string) (string, error) {
	if recipient == "" {
		return "", ErrChannelUnavailable
	}
	switch channel {
	case models.ChannelWhatsApp:
		return s.sendTwilio("whatsapp:"+s.whatsappFrom, "whatsapp:"+recipient, body)
	case models.ChannelSMS:
		return s.sendTwilio(s.smsFrom, recipient, body)
	case models.ChannelEmail:
		return "", s.sendEmail(ctx, recipient, subject, body)
	}
	return "", fmt.Errorf("messaging: unknown channel %q", channel)
}

func (s *ProviderSender) sendTwilio(from, to, body string) (string, error) {
	if s.twilio == nil || from == "" || from == "whatsapp:" {
		return "", ErrChannelUnavailable
	}
	params := &twilioapi.CreateMessageParams{}
	params.SetFrom(from)
	params.SetTo(to)
	params.SetBody(body)

	resp, err := s.twilio.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid != nil {
		return *resp.Sid, nil
	}
	return "", nil
}

func (s *ProviderSender) sendEmail(ctx context.Context, to, subject, body string) error {
	if s.mailer == nil {
		return ErrChannelUnavailable
	}
	m := mail.NewMsg()
	if err := m.FromFormat(s.fromName, s.fromAddress); err != nil {
		return err
	}
	if err := m.To(to); err != nil {
		return err
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)
	return s.mailer.DialAndSendWithContext(ctx, m)
}
