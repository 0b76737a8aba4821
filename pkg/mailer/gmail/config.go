package gmail

// Config holds Gmail provider configuration. ClientID and ClientSecret are
// the OAuth application credentials; RefreshToken, SenderEmail, and
// SenderName are deployment-wide defaults that individual messages may
// override. TokenURL and APIBaseURL exist so tests can point the provider
// at local servers.
//
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	ClientID     string `env:"GMAIL_CLIENT_ID"`
	ClientSecret string `env:"GMAIL_CLIENT_SECRET"`
	RefreshToken string `env:"GMAIL_REFRESH_TOKEN"`
	SenderEmail  string `env:"GMAIL_SENDER_EMAIL"`
	SenderName   string `env:"GMAIL_SENDER_NAME"`
	TokenURL     string `env:"GMAIL_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	APIBaseURL   string `env:"GMAIL_API_BASE_URL" envDefault:"https://gmail.googleapis.com"`
}
