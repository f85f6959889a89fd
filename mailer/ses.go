package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Enquiry carries everything the agent-notification email needs.
type Enquiry struct {
	AgentName    string
	AgentEmail   string
	FromName     string
	FromEmail    string
	FromPhone    string
	AdSlug       string
	PropertyType string
	Action       string
	Address      string
	Price        string
	Message      string
}

type SESMailer struct {
	client    *ses.Client
	from      string
	replyTo   string
	appName   string
	clientURL string
}

func NewSESMailer(ctx context.Context, region, from, replyTo, appName, clientURL string) (*SESMailer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %v", err)
	}
	return &SESMailer{
		client:    ses.NewFromConfig(awsCfg),
		from:      from,
		replyTo:   replyTo,
		appName:   appName,
		clientURL: clientURL,
	}, nil
}

func (m *SESMailer) SendWelcome(ctx context.Context, to string) error {
	subject := fmt.Sprintf("Welcome to %s", m.appName)
	body := fmt.Sprintf(`<html><p>Welcome to %s and thank you for joining us.</p></html>`, m.appName)
	return m.send(ctx, to, m.replyTo, subject, body)
}

func (m *SESMailer) SendPasswordReset(ctx context.Context, to, tempPassword string) error {
	subject := fmt.Sprintf("Password reset %s", m.appName)
	body := fmt.Sprintf(`<html>
		<p>Here is your temporary password, please change it as soon as you login.</p>
		<h2 style="color:red;">%s</h2>
	</html>`, tempPassword)
	return m.send(ctx, to, m.replyTo, subject, body)
}

func (m *SESMailer) SendEnquiry(ctx context.Context, e Enquiry) error {
	subject := fmt.Sprintf("Enquiry received - %s", m.appName)
	return m.send(ctx, e.AgentEmail, e.FromEmail, subject, enquiryBody(e, m.appName, m.clientURL))
}

func enquiryBody(e Enquiry, appName, clientURL string) string {
	return fmt.Sprintf(`<html>
		<p>Hi %s,</p>
		<p>You have received a new enquiry from %s from %s</p>
		<p><strong>Details:</strong></p>
		<ul>
			<li>Name: %s</li>
			<li>Email: <a href="mailto:%s">%s</a></li>
			<li>Phone: %s</li>
			<li>Enquired ad: <a href="%s/ad/%s">%s for %s - %s (%s)</a></li>
		</ul>
		<p><strong>Message:</strong></p>
		<p>%s</p>
		<p>Best regards,<br/>Team %s</p>
	</html>`,
		e.AgentName, e.FromName, clientURL,
		e.FromName, e.FromEmail, e.FromEmail, e.FromPhone,
		clientURL, e.AdSlug, e.PropertyType, e.Action, e.Address, e.Price,
		e.Message, appName)
}

func (m *SESMailer) send(ctx context.Context, to, replyTo, subject, html string) error {
	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:           aws.String(m.from),
		ReplyToAddresses: []string{replyTo},
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(html),
				},
			},
		},
	})
	return err
}
