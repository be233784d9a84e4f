package models

// Lead represents a contact form submission
type Lead struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// LeadList is the response body for the list endpoint
type LeadList struct {
	Total int    `json:"total"`
	Data  []Lead `json:"data"`
}

// CredentialStatus reports which notification settings are present, never their values
type CredentialStatus struct {
	Channel            string `json:"channel"`
	SendEmail          bool   `json:"send_email"`
	OwnerEmailSet      bool   `json:"owner_email_set"`
	AppPasswordSet     bool   `json:"app_password_set"`
	WhatsAppTokenSet   bool   `json:"whatsapp_token_set"`
	WhatsAppPhoneIDSet bool   `json:"whatsapp_phone_id_set"`
	WhatsAppOwnerSet   bool   `json:"whatsapp_owner_set"`
	MailerURLSet       bool   `json:"mailer_url_set"`
	MailerSecretSet    bool   `json:"mailer_secret_set"`
	TwilioSet          bool   `json:"twilio_set"`
	QueueHealthy       bool   `json:"queue_healthy"`
}
