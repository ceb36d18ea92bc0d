package notify

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SESService is the slice of the SES client used here, for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type EmailSender interface {
	SendEmail(ctx context.Context, msg Message) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, phone, text string) error
}

type SESSink struct {
	client SESService
	from   string
}

func NewSESSink(client SESService, from string) *SESSink {
	return &SESSink{client: client, from: from}
}

func (s *SESSink) SendEmail(ctx context.Context, msg Message) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(msg.Subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(msg.Text)},
				Html: &sestypes.Content{Data: aws.String(msg.HTML)},
			},
		},
		Source: aws.String(s.from),
	})
	return err
}

type SNSSink struct {
	client   SNSService
	senderID string
}

func NewSNSSink(client SNSService, senderID string) *SNSSink {
	return &SNSSink{client: client, senderID: senderID}
}

func (s *SNSSink) SendSMS(ctx context.Context, phone, text string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(E164(phone)),
		Message:     aws.String(text),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
		},
	}
	if s.senderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderID),
		}
	}
	_, err := s.client.Publish(ctx, input)
	return err
}

// E164 prefixes a bare 10-digit Indian mobile number with +91.
func E164(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+91" + phone
}
