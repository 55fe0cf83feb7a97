package email

// Config holds the settings for the Postmark email client.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	SenderEmail          string `env:"EMAIL_SENDER,required"`
	SupportEmail         string `env:"EMAIL_SUPPORT,required"`
}
