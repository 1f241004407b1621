package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
)

type EmailService struct {
	apiKey    string
	from      string
	templates *template.Template
}

type EmailData struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

// Template data structures
type WelcomeEmailData struct {
	Name string
}

type SecurityAlertData struct {
	Name     string
	Reasons  []string
	Location string
	Device   string
}

type PasswordResetData struct {
	ResetLink string
}

type PasswordChangedData struct {
	Email string
}

func NewEmailService(apiKey string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %v", err)
	}

	return &EmailService{
		apiKey:    apiKey,
		from:      "AgriMarket <noreply@agrimarket.app>",
		templates: templates,
	}, nil
}

func (s *EmailService) sendTemplateEmail(to, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %v", err)
	}

	emailData := EmailData{
		From:    s.from,
		To:      to,
		Subject: subject,
		Html:    body.String(),
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("error marshaling email data: %v", err)
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %v", err)
	}

	log.Printf("Resend API response for %s: status %d", to, resp.StatusCode)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("resend API error: %s", string(respBody))
	}

	return nil
}

// Email sending methods
func (s *EmailService) SendWelcomeEmail(email, name string) error {
	data := WelcomeEmailData{
		Name: name,
	}
	return s.sendTemplateEmail(email, "Welcome to AgriMarket", "welcome.html", data)
}

func (s *EmailService) SendSecurityAlertEmail(email, name string, reasons []string, location, device string) error {
	data := SecurityAlertData{
		Name:     name,
		Reasons:  reasons,
		Location: location,
		Device:   device,
	}
	return s.sendTemplateEmail(email, "Unusual sign-in activity on your account", "security_alert.html", data)
}

func (s *EmailService) SendPasswordResetEmail(email, resetToken string) error {
	data := PasswordResetData{
		ResetLink: fmt.Sprintf("https://agrimarket.app/reset-password?token=%s", resetToken),
	}
	return s.sendTemplateEmail(email, "Reset your AgriMarket password", "password_reset.html", data)
}

func (s *EmailService) SendPasswordChangedEmail(email string) error {
	data := PasswordChangedData{
		Email: email,
	}
	return s.sendTemplateEmail(email, "Your password was changed", "password_changed.html", data)
}
