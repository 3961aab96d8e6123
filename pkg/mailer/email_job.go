package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// HTML is optional; Text is recommended as fallback.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// WelcomeJob builds the email enqueued after a successful registration.
func WelcomeJob(to, username string) EmailJob {
	return EmailJob{
		To:      to,
		Subject: "Welcome to Travel Diaries",
		Text: "Hi " + username + ",\n\n" +
			"Your account is ready. Create your first diary and start adding entries.\n",
	}
}
