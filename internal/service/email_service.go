package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the part of the SES client the email service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	// If fromEmail is empty, create a disabled service
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{
			enabled: false,
			debug:   debug,
		}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From: %s <%s>", fromName, fromEmail)
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return newEmailServiceWithClient(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, debug), nil
}

func newEmailServiceWithClient(client sesAPI, fromEmail, fromName, appBaseURL string, debug bool) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// ChildSummary is one child's line in a parent digest
type ChildSummary struct {
	Name         string
	Grade        string
	AttemptCount int
	RapidCount   int
	LatestMarks  *int
	LatestDate   *string
	RapidMarks   *int
	RapidTime    *int
}

// SendProgressDigest emails a parent one summary of each child's latest results
func (s *EmailService) SendProgressDigest(ctx context.Context, toEmail, toName string, children []ChildSummary) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): progress digest to %s", toEmail)
		return nil
	}

	subject := "Your MathClub progress update"
	htmlBody, textBody := renderDigest(toName, children, s.appBaseURL)

	if s.debug {
		log.Printf("[DEBUG] Sending progress digest: to=%s, children=%d", toEmail, len(children))
	}

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

func renderDigest(toName string, children []ChildSummary, appBaseURL string) (string, string) {
	var rows, lines strings.Builder
	for _, c := range children {
		latest := "no quizzes yet"
		if c.LatestMarks != nil {
			latest = fmt.Sprintf("%d%%", *c.LatestMarks)
			if c.LatestDate != nil {
				latest += " on " + dateOnly(*c.LatestDate)
			}
		}
		rapid := "no rapid math yet"
		if c.RapidMarks != nil {
			rapid = fmt.Sprintf("%d%%", *c.RapidMarks)
			if c.RapidTime != nil {
				rapid += fmt.Sprintf(" in %ds", *c.RapidTime)
			}
		}

		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%s</td><td>%d</td><td>%s</td><td>%d</td><td>%s</td></tr>\n",
			html.EscapeString(c.Name), html.EscapeString(c.Grade), c.AttemptCount, latest, c.RapidCount, rapid)
		fmt.Fprintf(&lines, "- %s (grade %s): %d quizzes, latest %s; %d rapid math, latest %s\n",
			c.Name, c.Grade, c.AttemptCount, latest, c.RapidCount, rapid)
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #4a90e2; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		table { width: 100%%; border-collapse: collapse; }
		td, th { border-bottom: 1px solid #ddd; padding: 6px; text-align: left; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Progress Update</h1>
		</div>
		<div class="content">
			<p>Hi %s,</p>
			<p>Here is how your children are doing on MathClub:</p>
			<table>
				<tr><th>Name</th><th>Grade</th><th>Quizzes</th><th>Latest</th><th>Rapid math</th><th>Latest</th></tr>
				%s
			</table>
			<p><a href="%s">Open MathClub</a></p>
		</div>
		<div class="footer">
			<p>This is an automated email from MathClub. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, html.EscapeString(toName), rows.String(), appBaseURL)

	textBody := fmt.Sprintf(`Hi %s,

Here is how your children are doing on MathClub:

%s
Open MathClub: %s

---
This is an automated email from MathClub. Please do not reply.
`, toName, lines.String(), appBaseURL)

	return htmlBody, textBody
}

func dateOnly(timestamp string) string {
	if len(timestamp) >= 10 {
		return timestamp[:10]
	}
	return timestamp
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
