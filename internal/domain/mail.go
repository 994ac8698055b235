package domain

const (
	MailTypeCreateUser        = "create_user"
	MailTypeAltRequestCreated = "alt_request_created"
	MailTypeAltRequestDecided = "alt_request_decided"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// AltRequestMailData 用于替班申请的创建和审批通知
type AltRequestMailData struct {
	FullName      string `json:"fullName"`
	RequesterName string `json:"requesterName"`
	Date          string `json:"date"`
	TimeRange     string `json:"timeRange"`
	AltNote       string `json:"altNote"`
	Status        string `json:"status"`
	AltName       string `json:"altName"`
}
